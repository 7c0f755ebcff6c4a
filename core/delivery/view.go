package delivery

import (
	"math"
	"time"

	"gonum.org/v1/gonum/interp"

	"github.com/npole/herodispatch/core/geo"
)

// View is the read-only snapshot of one in-flight delivery.
type View struct {
	DeliveryID       string    `json:"deliveryId"`
	HeroID           string    `json:"heroId"`
	RequestID        string    `json:"requestId"`
	StartTime        time.Time `json:"startTime"`
	ETASeconds       int       `json:"etaSeconds"`
	ElapsedSeconds   float64   `json:"elapsedSeconds"`
	RemainingSeconds float64   `json:"remainingSeconds"`
	Progress         float64   `json:"progress"`
	CurrentPosition  geo.Point `json:"currentPosition"`
	Destination      geo.Point `json:"destination"`
}

func (s *Simulator) view(id string, d activeDelivery, now time.Time) View {
	dest := geo.Point{}
	if req, err := s.requests.Get(d.requestID); err == nil {
		dest = geo.Point{Lat: req.Lat, Lng: req.Lng}
	} else {
		s.log.Warnf("delivery %s has no request record", id)
	}

	elapsed := now.Sub(d.start).Seconds()
	total := d.eta.Seconds()
	progress := 0.0
	if total > 0 {
		progress = math.Min(math.Max(elapsed/total, 0), 1)
	}

	return View{
		DeliveryID:       id,
		HeroID:           d.heroID,
		RequestID:        d.requestID,
		StartTime:        d.start,
		ETASeconds:       int(d.eta / time.Second),
		ElapsedSeconds:   elapsed,
		RemainingSeconds: math.Max(0, total-elapsed),
		Progress:         progress,
		CurrentPosition:  position(dest, progress),
		Destination:      dest,
	}
}

// position interpolates the depot-to-destination track component-wise at the
// given progress fraction.
func position(dest geo.Point, progress float64) geo.Point {
	xs := []float64{0, 1}
	var lat, lng interp.PiecewiseLinear
	if err := lat.Fit(xs, []float64{geo.Depot.Lat, dest.Lat}); err != nil {
		return geo.Depot
	}
	if err := lng.Fit(xs, []float64{geo.Depot.Lng, dest.Lng}); err != nil {
		return geo.Depot
	}
	return geo.Point{Lat: lat.Predict(progress), Lng: lng.Predict(progress)}
}
