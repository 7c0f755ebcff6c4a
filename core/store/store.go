package store

import (
	"errors"

	"github.com/npole/herodispatch/core/model"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("store: not found")

// RequestStore persists gift requests. Implementations must be safe for
// concurrent use.
type RequestStore interface {
	// Create stores a new request, assigning an ID when none is set.
	Create(r *model.GiftRequest) error
	Get(id string) (model.GiftRequest, error)
	// List returns all requests, newest first.
	List() ([]model.GiftRequest, error)
	Update(r model.GiftRequest) error
}

// HeroStore persists the hero roster. List preserves insertion order so that
// recommendation tie-breaks stay deterministic.
type HeroStore interface {
	// Put inserts or replaces a hero.
	Put(h model.Hero) error
	Get(id string) (model.Hero, error)
	List() ([]model.Hero, error)
	Update(h model.Hero) error
}
