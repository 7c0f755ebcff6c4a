package pricing

import (
	"context"
	"sort"
	"strings"

	"github.com/npole/herodispatch/core/pricing"
	"github.com/npole/herodispatch/infra/logger"
)

// catalogue maps gift keywords to rough market prices. It replaces the
// original AI-backed estimator with a deterministic lookup.
var catalogue = map[string]float64{
	"bicycle":     8000,
	"cycle":       8000,
	"doll":        1500,
	"lego":        4000,
	"train":       3500,
	"robot":       6000,
	"console":     35000,
	"playstation": 45000,
	"laptop":      60000,
	"phone":       20000,
	"telescope":   12000,
	"skates":      2500,
	"drone":       15000,
	"puzzle":      800,
	"book":        500,
}

// keywords lists the catalogue keys longest first, ties broken alphabetically,
// so a gift naming several keywords always resolves to the most specific one.
var keywords = sortedKeywords()

func sortedKeywords() []string {
	ks := make([]string, 0, len(catalogue))
	for k := range catalogue {
		ks = append(ks, k)
	}
	sort.Slice(ks, func(i, j int) bool {
		if len(ks[i]) != len(ks[j]) {
			return len(ks[i]) > len(ks[j])
		}
		return ks[i] < ks[j]
	})
	return ks
}

// StaticEstimator guesses prices from the keyword catalogue and falls back to
// the neutral default for unknown gifts.
type StaticEstimator struct {
	log logger.Logger
}

// NewStaticEstimator creates a StaticEstimator.
func NewStaticEstimator() *StaticEstimator {
	return &StaticEstimator{log: logger.New("pricing")}
}

func (e *StaticEstimator) Estimate(_ context.Context, gift string) float64 {
	needle := strings.ToLower(gift)
	for _, keyword := range keywords {
		if strings.Contains(needle, keyword) {
			return pricing.Clamp(catalogue[keyword])
		}
	}
	e.log.Debugf("no price match for %q, using default", gift)
	return pricing.DefaultPrice
}
