package model

import (
	"fmt"
	"strings"
)

// Hero is a delivery agent with a personal FIFO job queue.
type Hero struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// SpeedFactor is in (0,1]; smaller means faster.
	SpeedFactor float64 `json:"speedFactor"`
	Busy        bool    `json:"busy"`
	// CurrentTask is the request the hero is actively delivering, empty when
	// free.
	CurrentTask string `json:"currentTask,omitempty"`
	// Queue holds assigned request IDs in FIFO order.
	Queue []string `json:"queue"`
	// TotalRemainingSeconds tracks the ETA sum of the current task plus all
	// queued tasks. Maintained incrementally, reconciled on queue mutations.
	TotalRemainingSeconds int `json:"totalRemainingSeconds"`
}

// Validate checks roster-level constraints.
func (h Hero) Validate() error {
	if h.ID == "" || h.Name == "" {
		return fmt.Errorf("model: hero needs id and name")
	}
	if h.SpeedFactor <= 0 || h.SpeedFactor > 1 {
		return fmt.Errorf("model: hero %s speed factor %v outside (0,1]", h.Name, h.SpeedFactor)
	}
	return nil
}

// CheckInvariants verifies busy/currentTask agreement and that the current
// task never sits in the queue.
func (h Hero) CheckInvariants() error {
	if h.Busy != (h.CurrentTask != "") {
		return fmt.Errorf("model: hero %s busy=%v with currentTask=%q", h.ID, h.Busy, h.CurrentTask)
	}
	if h.CurrentTask != "" && h.QueueContains(h.CurrentTask) {
		return fmt.Errorf("model: hero %s queue contains current task %s", h.ID, h.CurrentTask)
	}
	return nil
}

// QueueContains reports whether the request is already queued.
func (h Hero) QueueContains(requestID string) bool {
	for _, id := range h.Queue {
		if id == requestID {
			return true
		}
	}
	return false
}

// HeroID derives the stable identifier used for a hero name.
func HeroID(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "-")
}

// DefaultRoster returns the built-in heroes with their speed factors.
func DefaultRoster() []Hero {
	specs := []struct {
		name  string
		speed float64
	}{
		{"Flash", 0.3},
		{"Spider-Man", 0.5},
		{"Batman", 0.7},
		{"Aquaman", 0.6},
		{"Ant-Man", 0.4},
		{"Doctor Strange", 0.2},
		{"Wonder Woman", 0.5},
	}
	heroes := make([]Hero, 0, len(specs))
	for _, s := range specs {
		heroes = append(heroes, Hero{ID: HeroID(s.name), Name: s.name, SpeedFactor: s.speed})
	}
	return heroes
}
