package pricing

import "context"

// DefaultPrice is the neutral fallback when estimation is unavailable. A
// failing estimator must never block request submission.
const DefaultPrice = 5000

// Bounds outside which an estimate is considered garbage and replaced by
// DefaultPrice.
const (
	MinPlausiblePrice = 100
	MaxPlausiblePrice = 1_000_000
)

// Estimator guesses a market price for a gift description.
type Estimator interface {
	// Estimate returns a price in currency units. Implementations return
	// DefaultPrice instead of an error when the upstream source fails.
	Estimate(ctx context.Context, gift string) float64
}

// Clamp replaces implausible estimates with the fallback.
func Clamp(price float64) float64 {
	if price < MinPlausiblePrice || price > MaxPlausiblePrice {
		return DefaultPrice
	}
	return price
}
