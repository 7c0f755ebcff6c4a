package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/npole/herodispatch/core/eta"
	"github.com/npole/herodispatch/core/model"
	"github.com/npole/herodispatch/infra/geocode"
	"github.com/npole/herodispatch/infra/notify"
)

// Config is the root configuration of the dispatch service.
type Config struct {
	Server  ServerConfig      `json:"server"`
	ETA     eta.Config        `json:"eta"`
	Heroes  []HeroConfig      `json:"heroes"`
	Storage StorageConfig     `json:"storage"`
	Metrics MetricsConfig     `json:"metrics"`
	Notify  notify.MQTTConfig `json:"notify"`
	Geocode geocode.Config    `json:"geocode"`
}

// ServerConfig defines the API listener.
type ServerConfig struct {
	Addr string `json:"addr"`
}

// SetDefaults applies sane defaults.
func (c *ServerConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}

// HeroConfig declares one roster entry.
type HeroConfig struct {
	Name        string  `json:"name"`
	SpeedFactor float64 `json:"speed_factor"`
}

// StorageConfig selects the record store backend.
type StorageConfig struct {
	// Backend is "memory" or "sqlite".
	Backend string `json:"backend"`
	// Path is the SQLite file location.
	Path string `json:"path"`
}

// SetDefaults applies sane defaults.
func (c *StorageConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "memory"
	}
	if c.Path == "" {
		c.Path = "herodispatch.db"
	}
}

// Validate checks the backend selection.
func (c StorageConfig) Validate() error {
	if c.Backend != "memory" && c.Backend != "sqlite" {
		return fmt.Errorf("unknown storage backend %s", c.Backend)
	}
	return nil
}

// MetricsConfig enables the observability sinks.
type MetricsConfig struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusAddr    string `json:"prometheus_addr"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}

// SetDefaults applies sane defaults.
func (c *MetricsConfig) SetDefaults() {
	if c.PrometheusAddr == "" {
		c.PrometheusAddr = ":9090"
	}
}

// Roster builds the hero roster from the configuration, falling back to the
// built-in heroes when none are declared.
func (c *Config) Roster() ([]model.Hero, error) {
	if len(c.Heroes) == 0 {
		return model.DefaultRoster(), nil
	}
	heroes := make([]model.Hero, 0, len(c.Heroes))
	for _, hc := range c.Heroes {
		h := model.Hero{ID: model.HeroID(hc.Name), Name: hc.Name, SpeedFactor: hc.SpeedFactor}
		if err := h.Validate(); err != nil {
			return nil, err
		}
		heroes = append(heroes, h)
	}
	return heroes, nil
}

// Load reads the configuration file and applies HD_* environment overrides.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("HD_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "hd_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	return ApplyDefaults(&cfg)
}

// ApplyDefaults fills defaults and validates every section.
func ApplyDefaults(cfg *Config) (*Config, error) {
	cfg.Server.SetDefaults()
	cfg.ETA.SetDefaults()
	cfg.Storage.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.Notify.SetDefaults()
	cfg.Geocode.SetDefaults()
	if err := cfg.ETA.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Storage.Validate(); err != nil {
		return nil, err
	}
	if _, err := cfg.Roster(); err != nil {
		return nil, err
	}
	return cfg, nil
}
