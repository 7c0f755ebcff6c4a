package delivery

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/npole/herodispatch/core/logger"
	"github.com/npole/herodispatch/core/store"
	"github.com/npole/herodispatch/internal/eventbus"
)

// Completed is emitted on the event bus when a delivery timer fires.
type Completed struct {
	DeliveryID string
	HeroID     string
	RequestID  string
	At         time.Time
}

// CancelFunc stops a pending completion trigger. It reports whether the
// trigger was still pending.
type CancelFunc func() bool

type activeDelivery struct {
	heroID    string
	requestID string
	start     time.Time
	eta       time.Duration
	cancel    CancelFunc
}

// Simulator drives time-based progress for in-flight deliveries. It owns the
// registry of active timers; completion is announced on the event bus rather
// than handled inline, so the queue manager stays decoupled.
type Simulator struct {
	requests store.RequestStore
	log      logger.Logger
	bus      *eventbus.Bus[Completed]

	now      func() time.Time
	schedule func(d time.Duration, fn func()) CancelFunc

	mu     sync.Mutex
	active map[string]*activeDelivery
}

// NewSimulator creates a Simulator using real timers.
func NewSimulator(requests store.RequestStore, log logger.Logger) (*Simulator, error) {
	if requests == nil {
		return nil, fmt.Errorf("delivery: nil request store")
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &Simulator{
		requests: requests,
		log:      log,
		bus:      eventbus.New[Completed](16),
		now:      time.Now,
		schedule: func(d time.Duration, fn func()) CancelFunc {
			t := time.AfterFunc(d, fn)
			return t.Stop
		},
		active: make(map[string]*activeDelivery),
	}, nil
}

// ID derives the deterministic delivery identifier for a hero/request pair.
func ID(heroID, requestID string) string {
	return heroID + "-" + requestID
}

// Events returns a channel of completion events. Each subscriber gets its own
// channel; it is closed when the simulator shuts down. Subscriptions are
// lossless: a completion event removes the delivery from the active registry,
// so dropping one would strand the request in the delivering state.
func (s *Simulator) Events() <-chan Completed {
	return s.bus.SubscribeUnbounded()
}

// Start registers an in-flight delivery and schedules its completion trigger.
// Starting an already-active pair is a no-op and returns the existing ID.
func (s *Simulator) Start(heroID, requestID string, eta time.Duration) string {
	id := ID(heroID, requestID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.active[id]; ok {
		s.log.Warnf("delivery %s already running", id)
		return id
	}
	d := &activeDelivery{
		heroID:    heroID,
		requestID: requestID,
		start:     s.now(),
		eta:       eta,
	}
	d.cancel = s.schedule(eta, func() { s.complete(id) })
	s.active[id] = d
	s.log.Infof("delivery %s started, eta %s", id, eta)
	return id
}

func (s *Simulator) complete(id string) {
	s.mu.Lock()
	d, ok := s.active[id]
	if ok {
		delete(s.active, id)
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	s.bus.Publish(Completed{
		DeliveryID: id,
		HeroID:     d.heroID,
		RequestID:  d.requestID,
		At:         s.now(),
	})
}

// Cancel stops a pending delivery. It reports whether a delivery was actually
// found; cancelling twice is safe and the second call reports false.
func (s *Simulator) Cancel(deliveryID string) bool {
	s.mu.Lock()
	d, ok := s.active[deliveryID]
	if ok {
		delete(s.active, deliveryID)
	}
	s.mu.Unlock()
	if !ok {
		return false
	}
	d.cancel()
	s.log.Infof("delivery %s cancelled", deliveryID)
	return true
}

// Has reports whether the hero/request pair has a live timer.
func (s *Simulator) Has(heroID, requestID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[ID(heroID, requestID)]
	return ok
}

// Active returns the computed progress views of all in-flight deliveries,
// ordered by delivery ID. A delivery whose request record is gone keeps a
// zero destination instead of failing the listing.
func (s *Simulator) Active() []View {
	s.mu.Lock()
	snapshot := make(map[string]activeDelivery, len(s.active))
	for id, d := range s.active {
		snapshot[id] = *d
	}
	now := s.now()
	s.mu.Unlock()

	views := make([]View, 0, len(snapshot))
	for id, d := range snapshot {
		views = append(views, s.view(id, d, now))
	}
	sort.Slice(views, func(i, j int) bool { return views[i].DeliveryID < views[j].DeliveryID })
	return views
}

// Close cancels every pending trigger and closes the event bus.
func (s *Simulator) Close() {
	s.mu.Lock()
	for id, d := range s.active {
		d.cancel()
		delete(s.active, id)
	}
	s.mu.Unlock()
	s.bus.Close()
}
