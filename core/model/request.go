package model

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/npole/herodispatch/core/score"
)

// Status is the lifecycle state of a gift request.
type Status string

const (
	// StatusWaiting means no hero has been assigned yet.
	StatusWaiting Status = "waiting"
	// StatusAssigned means a hero is set but still busy with a prior job;
	// the request sits in that hero's queue.
	StatusAssigned Status = "assigned"
	// StatusDelivering means the hero is actively simulating this delivery.
	StatusDelivering Status = "delivering"
	// StatusCompleted is terminal.
	StatusCompleted Status = "completed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusWaiting, StatusAssigned, StatusDelivering, StatusCompleted:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool { return s == StatusCompleted }

var (
	ErrMissingFields = errors.New("model: missing required request fields")
	ErrBadCoordinate = errors.New("model: coordinate out of range")
)

// GiftRequest is a child's gift request and its dispatch state.
type GiftRequest struct {
	ID           string             `json:"id"`
	ChildName    string             `json:"childName"`
	City         string             `json:"city"`
	Lat          float64            `json:"lat"`
	Lng          float64            `json:"lng"`
	Gift         string             `json:"gift"`
	GiftPrice    float64            `json:"giftPrice"`
	Answers      score.AnswerSet    `json:"answers"`
	HeroScores   map[string]float64 `json:"heroScores"`
	AssignedHero string             `json:"assignedHero,omitempty"`
	ETASeconds   int                `json:"etaSeconds,omitempty"`
	Status       Status             `json:"status"`
	CreatedAt    time.Time          `json:"createdAt"`
	CompletedAt  *time.Time         `json:"completedAt,omitempty"`
}

// Validate checks the fields a child must provide at submission time.
func (r GiftRequest) Validate() error {
	if r.ChildName == "" || r.City == "" || r.Gift == "" {
		return ErrMissingFields
	}
	if math.IsNaN(r.Lat) || math.IsNaN(r.Lng) || math.IsInf(r.Lat, 0) || math.IsInf(r.Lng, 0) {
		return ErrBadCoordinate
	}
	if r.Lat < -90 || r.Lat > 90 {
		return fmt.Errorf("%w: latitude %v", ErrBadCoordinate, r.Lat)
	}
	if r.Lng < -180 || r.Lng > 180 {
		return fmt.Errorf("%w: longitude %v", ErrBadCoordinate, r.Lng)
	}
	return nil
}

// ETA returns the stored estimate as a duration, zero when unset.
func (r GiftRequest) ETA() time.Duration {
	return time.Duration(r.ETASeconds) * time.Second
}

// CheckInvariants verifies the status/assignment consistency rules.
// A hero and an ETA are present exactly when the request left the waiting
// state.
func (r GiftRequest) CheckInvariants() error {
	assigned := r.AssignedHero != ""
	switch r.Status {
	case StatusWaiting:
		if assigned || r.ETASeconds != 0 {
			return fmt.Errorf("model: waiting request %s carries assignment data", r.ID)
		}
	case StatusAssigned, StatusDelivering, StatusCompleted:
		if !assigned || r.ETASeconds == 0 {
			return fmt.Errorf("model: %s request %s lacks hero or eta", r.Status, r.ID)
		}
	default:
		return fmt.Errorf("model: unknown status %q", r.Status)
	}
	return nil
}
