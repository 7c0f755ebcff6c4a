package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/npole/herodispatch/infra/logger"
)

// Config defines the place-suggestion endpoint.
type Config struct {
	// BaseURL points to a Nominatim-compatible search API.
	BaseURL string `json:"base_url"`
	// TimeoutSeconds bounds each lookup.
	TimeoutSeconds int `json:"timeout_seconds"`
	// Limit caps the number of suggestions per query.
	Limit int `json:"limit"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://nominatim.openstreetmap.org"
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 5
	}
	if c.Limit == 0 {
		c.Limit = 5
	}
}

// Suggestion is one candidate place for a partial name.
type Suggestion struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// Client looks up place suggestions over HTTP. The dispatch core never calls
// this; it only serves the request-creation UI.
type Client struct {
	base  string
	limit int
	http  *http.Client
	log   logger.Logger
}

// New creates a Client from the configuration.
func New(cfg Config) *Client {
	cfg.SetDefaults()
	return &Client{
		base:  cfg.BaseURL,
		limit: cfg.Limit,
		http:  &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		log:   logger.New("geocode"),
	}
}

type nominatimPlace struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// Suggest returns candidate places for a partial name. Lookup failures yield
// an empty list; the caller never sees an upstream error.
func (c *Client) Suggest(ctx context.Context, query string) []Suggestion {
	if query == "" {
		return nil
	}
	u := fmt.Sprintf("%s/search?q=%s&format=json&limit=%d",
		c.base, url.QueryEscape(query), c.limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		c.log.Errorf("geocode request: %v", err)
		return nil
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warnf("geocode lookup failed: %v", err)
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.log.Warnf("geocode lookup status %d", resp.StatusCode)
		return nil
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		c.log.Warnf("geocode decode: %v", err)
		return nil
	}

	res := make([]Suggestion, 0, len(places))
	for _, p := range places {
		lat, errLat := strconv.ParseFloat(p.Lat, 64)
		lng, errLng := strconv.ParseFloat(p.Lon, 64)
		if errLat != nil || errLng != nil {
			continue
		}
		res = append(res, Suggestion{Name: p.DisplayName, Lat: lat, Lng: lng})
	}
	return res
}
