package dispatch

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/npole/herodispatch/core/eta"
	"github.com/npole/herodispatch/core/geo"
	"github.com/npole/herodispatch/core/logger"
	"github.com/npole/herodispatch/core/metrics"
	"github.com/npole/herodispatch/core/model"
	"github.com/npole/herodispatch/core/store"
)

var (
	ErrUnknownHero     = errors.New("dispatch: unknown hero")
	ErrUnknownRequest  = errors.New("dispatch: unknown request")
	ErrAlreadyAssigned = errors.New("dispatch: request already assigned")
	ErrInvalidETA      = errors.New("dispatch: eta must be positive")
)

// Manager owns hero busy/free state and per-hero FIFO queues. All mutations
// for a given hero are serialized through a per-hero lock; operations on
// different heroes proceed in parallel. Assignments additionally serialize on
// a per-request lock so the same request cannot land on two heroes.
type Manager struct {
	heroes   store.HeroStore
	requests store.RequestStore
	calc     *eta.Calculator
	metrics  metrics.Sink
	log      logger.Logger
	now      func() time.Time

	mu        sync.Mutex
	heroLocks map[string]*sync.Mutex
	reqLocks  map[string]*sync.Mutex
}

// NewManager creates a Manager. The metrics sink and logger may be nil.
func NewManager(heroes store.HeroStore, requests store.RequestStore, calc *eta.Calculator, sink metrics.Sink, log logger.Logger) (*Manager, error) {
	if heroes == nil || requests == nil || calc == nil {
		return nil, fmt.Errorf("dispatch: nil parameter provided to NewManager")
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &Manager{
		heroes:    heroes,
		requests:  requests,
		calc:      calc,
		metrics:   sink,
		log:       log,
		now:       time.Now,
		heroLocks: make(map[string]*sync.Mutex),
		reqLocks:  make(map[string]*sync.Mutex),
	}, nil
}

func (m *Manager) heroLock(heroID string) *sync.Mutex {
	return m.lockFor(m.heroLocks, heroID)
}

func (m *Manager) requestLock(requestID string) *sync.Mutex {
	return m.lockFor(m.reqLocks, requestID)
}

func (m *Manager) lockFor(locks map[string]*sync.Mutex, id string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := locks[id]
	if !ok {
		l = &sync.Mutex{}
		locks[id] = l
	}
	return l
}

// Recommendation joins a request's affinity score with a hero's live state.
type Recommendation struct {
	HeroID                string  `json:"heroId"`
	Name                  string  `json:"name"`
	Score                 float64 `json:"score"`
	Busy                  bool    `json:"busy"`
	QueueLength           int     `json:"queueLength"`
	TotalRemainingSeconds int     `json:"totalRemainingSeconds"`
	ETASeconds            int     `json:"etaSeconds"`
	SpeedFactor           float64 `json:"speedFactor"`
}

// Recommend ranks the roster for the given request, best score first. Heroes
// with equal scores keep their roster order so the ranking is deterministic.
func (m *Manager) Recommend(requestID string) ([]Recommendation, error) {
	req, err := m.requests.Get(requestID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRequest, requestID)
	}
	heroes, err := m.heroes.List()
	if err != nil {
		return nil, fmt.Errorf("dispatch: list heroes: %w", err)
	}

	distance := geo.Distance(geo.Depot.Lat, geo.Depot.Lng, req.Lat, req.Lng)
	area := geo.AreaDifficulty(req.Lat, req.Lng)

	recs := make([]Recommendation, 0, len(heroes))
	for _, h := range heroes {
		d := m.calc.Estimate(distance, area, h.SpeedFactor)
		recs = append(recs, Recommendation{
			HeroID:                h.ID,
			Name:                  h.Name,
			Score:                 req.HeroScores[h.Name],
			Busy:                  h.Busy,
			QueueLength:           len(h.Queue),
			TotalRemainingSeconds: h.TotalRemainingSeconds,
			ETASeconds:            int(d / time.Second),
			SpeedFactor:           h.SpeedFactor,
		})
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Score > recs[j].Score })
	return recs, nil
}

// Assign atomically starts or enqueues the request on the target hero.
// Returns true when the job was queued behind a running delivery, false when
// the hero picked it up immediately. The request lock is taken before the
// hero lock, so concurrent assignments of one waiting request to different
// heroes resolve to a single winner; the rest get ErrAlreadyAssigned.
func (m *Manager) Assign(heroID, requestID string, d time.Duration) (bool, error) {
	etaSeconds := int(d / time.Second)
	if etaSeconds <= 0 {
		return false, ErrInvalidETA
	}

	reqLock := m.requestLock(requestID)
	reqLock.Lock()
	lock := m.heroLock(heroID)
	lock.Lock()
	queued, hero, req, err := m.assignLocked(heroID, requestID, etaSeconds)
	lock.Unlock()
	reqLock.Unlock()
	if err != nil {
		return false, err
	}

	m.log.Infof("assigned request %s to %s (queued=%v, eta=%ds)", req.ID, hero.Name, queued, etaSeconds)
	if err := m.metrics.RecordAssignment(metrics.AssignmentEvent{
		HeroID:     hero.ID,
		HeroName:   hero.Name,
		RequestID:  req.ID,
		City:       req.City,
		Queued:     queued,
		ETASeconds: etaSeconds,
		Time:       m.now(),
	}); err != nil {
		m.log.Errorf("metrics error: %v", err)
	}
	return queued, nil
}

func (m *Manager) assignLocked(heroID, requestID string, etaSeconds int) (bool, model.Hero, model.GiftRequest, error) {
	hero, err := m.heroes.Get(heroID)
	if err != nil {
		return false, model.Hero{}, model.GiftRequest{}, fmt.Errorf("%w: %s", ErrUnknownHero, heroID)
	}
	req, err := m.requests.Get(requestID)
	if err != nil {
		return false, model.Hero{}, model.GiftRequest{}, fmt.Errorf("%w: %s", ErrUnknownRequest, requestID)
	}
	if req.Status != model.StatusWaiting {
		return false, model.Hero{}, model.GiftRequest{}, fmt.Errorf("%w: %s is %s", ErrAlreadyAssigned, requestID, req.Status)
	}
	if hero.CurrentTask == requestID || hero.QueueContains(requestID) {
		return false, model.Hero{}, model.GiftRequest{}, fmt.Errorf("%w: hero %s already holds %s", ErrAlreadyAssigned, heroID, requestID)
	}

	queued := hero.Busy
	if queued {
		hero.Queue = append(hero.Queue, requestID)
		hero.TotalRemainingSeconds += etaSeconds
		req.Status = model.StatusAssigned
	} else {
		hero.Busy = true
		hero.CurrentTask = requestID
		hero.TotalRemainingSeconds = etaSeconds
		req.Status = model.StatusDelivering
	}
	req.AssignedHero = heroID
	req.ETASeconds = etaSeconds

	if err := m.requests.Update(req); err != nil {
		return false, model.Hero{}, model.GiftRequest{}, fmt.Errorf("dispatch: update request: %w", err)
	}
	if err := m.heroes.Update(hero); err != nil {
		return false, model.Hero{}, model.GiftRequest{}, fmt.Errorf("dispatch: update hero: %w", err)
	}
	return queued, hero, req, nil
}

// AdvanceQueue pops the hero's next queued request and promotes it to
// delivering. Queue entries whose request record disappeared are skipped.
// Returns nil when the queue is empty and the hero went free.
func (m *Manager) AdvanceQueue(heroID string) (*model.GiftRequest, error) {
	lock := m.heroLock(heroID)
	lock.Lock()
	defer lock.Unlock()
	return m.advanceLocked(heroID)
}

func (m *Manager) advanceLocked(heroID string) (*model.GiftRequest, error) {
	hero, err := m.heroes.Get(heroID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHero, heroID)
	}

	for len(hero.Queue) > 0 {
		nextID := hero.Queue[0]
		hero.Queue = hero.Queue[1:]

		next, err := m.requests.Get(nextID)
		if errors.Is(err, store.ErrNotFound) {
			m.log.Warnf("queued request %s vanished, skipping", nextID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("dispatch: get queued request: %w", err)
		}

		hero.Busy = true
		hero.CurrentTask = nextID
		hero.TotalRemainingSeconds = next.ETASeconds + m.queuedSeconds(hero.Queue)

		next.Status = model.StatusDelivering
		if err := m.requests.Update(next); err != nil {
			return nil, fmt.Errorf("dispatch: update request: %w", err)
		}
		if err := m.heroes.Update(hero); err != nil {
			return nil, fmt.Errorf("dispatch: update hero: %w", err)
		}
		m.log.Infof("hero %s advanced to request %s", hero.Name, nextID)
		return &next, nil
	}

	hero.Busy = false
	hero.CurrentTask = ""
	hero.Queue = nil
	hero.TotalRemainingSeconds = 0
	if err := m.heroes.Update(hero); err != nil {
		return nil, fmt.Errorf("dispatch: update hero: %w", err)
	}
	m.log.Infof("hero %s is now free", hero.Name)
	return nil, nil
}

// queuedSeconds reconciles the remaining-time bookkeeping against the stored
// ETAs of the queue tail.
func (m *Manager) queuedSeconds(queue []string) int {
	total := 0
	for _, id := range queue {
		if r, err := m.requests.Get(id); err == nil {
			total += r.ETASeconds
		}
	}
	return total
}

// Complete finalizes the hero's current delivery and advances the queue in
// one per-hero critical section. It returns the completed request and the
// next one to start, if any. Completing the same delivery twice is harmless.
func (m *Manager) Complete(heroID, requestID string) (model.GiftRequest, *model.GiftRequest, error) {
	lock := m.heroLock(heroID)
	lock.Lock()
	defer lock.Unlock()

	req, err := m.requests.Get(requestID)
	if err != nil {
		m.log.Warnf("completed request %s not found", requestID)
	} else if req.Status != model.StatusCompleted {
		now := m.now()
		req.Status = model.StatusCompleted
		req.CompletedAt = &now
		if err := m.requests.Update(req); err != nil {
			return model.GiftRequest{}, nil, fmt.Errorf("dispatch: update request: %w", err)
		}
	}

	hero, err := m.heroes.Get(heroID)
	if err != nil {
		return req, nil, fmt.Errorf("%w: %s", ErrUnknownHero, heroID)
	}
	if hero.CurrentTask != requestID {
		// Stale completion trigger; the hero already moved on.
		m.log.Warnf("hero %s current task is %q, ignoring completion of %s", heroID, hero.CurrentTask, requestID)
		return req, nil, nil
	}

	next, err := m.advanceLocked(heroID)
	if err != nil {
		return req, nil, err
	}
	return req, next, nil
}
