package store

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/npole/herodispatch/core/model"
)

// MemoryRequests is an in-memory RequestStore.
type MemoryRequests struct {
	mu   sync.RWMutex
	data map[string]model.GiftRequest
}

// NewMemoryRequests creates an empty in-memory request store.
func NewMemoryRequests() *MemoryRequests {
	return &MemoryRequests{data: map[string]model.GiftRequest{}}
}

func (s *MemoryRequests) Create(r *model.GiftRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	s.data[r.ID] = *r
	return nil
}

func (s *MemoryRequests) Get(id string) (model.GiftRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.data[id]
	if !ok {
		return model.GiftRequest{}, ErrNotFound
	}
	return r, nil
}

func (s *MemoryRequests) List() ([]model.GiftRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]model.GiftRequest, 0, len(s.data))
	for _, r := range s.data {
		res = append(res, r)
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].ID < res[j].ID
		}
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	return res, nil
}

func (s *MemoryRequests) Update(r model.GiftRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[r.ID]; !ok {
		return ErrNotFound
	}
	s.data[r.ID] = r
	return nil
}

// MemoryHeroes is an in-memory HeroStore preserving insertion order.
type MemoryHeroes struct {
	mu    sync.RWMutex
	data  map[string]model.Hero
	order []string
}

// NewMemoryHeroes creates an empty in-memory hero store.
func NewMemoryHeroes() *MemoryHeroes {
	return &MemoryHeroes{data: map[string]model.Hero{}}
}

func (s *MemoryHeroes) Put(h model.Hero) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[h.ID]; !ok {
		s.order = append(s.order, h.ID)
	}
	s.data[h.ID] = h
	return nil
}

func (s *MemoryHeroes) Get(id string) (model.Hero, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.data[id]
	if !ok {
		return model.Hero{}, ErrNotFound
	}
	return h, nil
}

func (s *MemoryHeroes) List() ([]model.Hero, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]model.Hero, 0, len(s.order))
	for _, id := range s.order {
		res = append(res, s.data[id])
	}
	return res, nil
}

func (s *MemoryHeroes) Update(h model.Hero) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[h.ID]; !ok {
		return ErrNotFound
	}
	s.data[h.ID] = h
	return nil
}
