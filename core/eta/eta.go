package eta

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"
)

// Config defines the bounds of the simulated delivery duration.
type Config struct {
	// MinSeconds and MaxSeconds bound the final estimate.
	MinSeconds int `json:"min_seconds"`
	// MaxSeconds must be strictly greater than MinSeconds.
	MaxSeconds int `json:"max_seconds"`
	// JitterSeconds is the half-width of the symmetric random perturbation
	// added to the raw estimate before squashing.
	JitterSeconds float64 `json:"jitter_seconds"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.MinSeconds == 0 {
		c.MinSeconds = 10
	}
	if c.MaxSeconds == 0 {
		c.MaxSeconds = 120
	}
	if c.JitterSeconds == 0 {
		c.JitterSeconds = 10
	}
}

// Validate checks bound consistency.
func (c Config) Validate() error {
	if c.MinSeconds <= 0 {
		return fmt.Errorf("min_seconds must be positive")
	}
	if c.MaxSeconds <= c.MinSeconds {
		return fmt.Errorf("max_seconds must be greater than min_seconds")
	}
	if c.JitterSeconds < 0 {
		return fmt.Errorf("jitter_seconds must not be negative")
	}
	return nil
}

const (
	// maxDistanceKm caps the distance input at roughly half the Earth's
	// circumference so antipodal destinations stay in range.
	maxDistanceKm = 20000
	// rawScale is the reference raw value mapped to MaxSeconds by the
	// logarithmic squash.
	rawScale = 200
)

// Calculator turns distance, area difficulty and hero speed into a bounded
// delivery duration.
type Calculator struct {
	cfg    Config
	jitter func() float64
}

// New creates a Calculator with a time-seeded jitter source. The jitter
// closure is safe for concurrent Estimate calls.
func New(cfg Config) (*Calculator, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	var mu sync.Mutex
	c := &Calculator{cfg: cfg}
	c.jitter = func() float64 {
		mu.Lock()
		defer mu.Unlock()
		return (rng.Float64() - 0.5) * 2 * c.cfg.JitterSeconds
	}
	return c, nil
}

// NewWithJitter creates a Calculator with an explicit jitter source. Pass a
// function returning 0 for deterministic estimates.
func NewWithJitter(cfg Config, jitter func() float64) (*Calculator, error) {
	c, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if jitter != nil {
		c.jitter = jitter
	}
	return c, nil
}

// Estimate computes the delivery duration for a destination. Lower speed
// factors mean faster heroes. The raw distance/congestion sum is compressed
// through a logarithmic squash so transcontinental runs still produce a
// playable duration within [MinSeconds, MaxSeconds].
func (c *Calculator) Estimate(distanceKm, areaScore, speedFactor float64) time.Duration {
	distance := math.Min(math.Max(distanceKm, 0), maxDistanceKm)
	area := math.Min(math.Max(areaScore, 0), 100)

	raw := (distance/500)*speedFactor + (area/100)*30 + c.jitter()
	if raw < 0 {
		raw = 0
	}

	minT := float64(c.cfg.MinSeconds)
	maxT := float64(c.cfg.MaxSeconds)
	scaled := minT + math.Log(1+raw)/math.Log(1+rawScale)*(maxT-minT)

	secs := math.Round(math.Max(minT, math.Min(maxT, scaled)))
	return time.Duration(secs) * time.Second
}

// Bounds returns the configured [min, max] in seconds.
func (c *Calculator) Bounds() (int, int) {
	return c.cfg.MinSeconds, c.cfg.MaxSeconds
}
