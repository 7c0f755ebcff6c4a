package delivery

import (
	"context"
	"fmt"

	"github.com/npole/herodispatch/core/dispatch"
	"github.com/npole/herodispatch/core/logger"
	"github.com/npole/herodispatch/core/metrics"
	"github.com/npole/herodispatch/core/model"
	"github.com/npole/herodispatch/core/notify"
	"github.com/npole/herodispatch/core/store"
)

// Coordinator consumes completion events from the Simulator and drives the
// complete -> advance queue -> start next cascade through the dispatch
// manager. Queued jobs flow without operator intervention.
type Coordinator struct {
	sim      *Simulator
	manager  *dispatch.Manager
	heroes   store.HeroStore
	requests store.RequestStore
	notifier notify.Notifier
	metrics  metrics.Sink
	log      logger.Logger
}

// NewCoordinator creates a Coordinator. Notifier, sink and logger may be nil.
func NewCoordinator(sim *Simulator, manager *dispatch.Manager, heroes store.HeroStore, requests store.RequestStore, notifier notify.Notifier, sink metrics.Sink, log logger.Logger) (*Coordinator, error) {
	if sim == nil || manager == nil || heroes == nil || requests == nil {
		return nil, fmt.Errorf("delivery: nil parameter provided to NewCoordinator")
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &Coordinator{
		sim:      sim,
		manager:  manager,
		heroes:   heroes,
		requests: requests,
		notifier: notifier,
		metrics:  sink,
		log:      log,
	}, nil
}

// Run processes completion events until the context is canceled or the
// simulator closes.
func (c *Coordinator) Run(ctx context.Context) {
	events := c.sim.Events()
	defer c.sim.bus.Unsubscribe(events)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.Handle(ev)
		case <-ctx.Done():
			return
		}
	}
}

// Handle finalizes one completed delivery and cascades to the hero's next
// queued job.
func (c *Coordinator) Handle(ev Completed) {
	req, next, err := c.manager.Complete(ev.HeroID, ev.RequestID)
	if err != nil {
		c.log.Errorf("complete %s: %v", ev.DeliveryID, err)
		return
	}

	if req.ID != "" {
		hero, herr := c.heroes.Get(ev.HeroID)
		if herr != nil {
			c.log.Warnf("hero %s not found for notification", ev.HeroID)
		}
		c.notifier.DeliveryCompleted(req, hero)

		completedAt := ev.At
		if req.CompletedAt != nil {
			completedAt = *req.CompletedAt
		}
		if err := c.metrics.RecordCompletion(metrics.CompletionEvent{
			HeroID:      ev.HeroID,
			HeroName:    hero.Name,
			RequestID:   req.ID,
			City:        req.City,
			Gift:        req.Gift,
			ETASeconds:  req.ETASeconds,
			CompletedAt: completedAt,
		}); err != nil {
			c.log.Errorf("metrics error: %v", err)
		}
	}

	if next != nil {
		c.sim.Start(ev.HeroID, next.ID, next.ETA())
	}
}

// Reconcile restarts a fresh delivery for every request stuck in the
// delivering state without a live timer. Timer state is process-local, so
// this runs once after startup when records are loaded from persistence.
func (c *Coordinator) Reconcile() (int, error) {
	reqs, err := c.requests.List()
	if err != nil {
		return 0, fmt.Errorf("delivery: list requests: %w", err)
	}
	restarted := 0
	for _, r := range reqs {
		if r.Status != model.StatusDelivering || r.AssignedHero == "" {
			continue
		}
		if c.sim.Has(r.AssignedHero, r.ID) {
			continue
		}
		c.log.Warnf("request %s was delivering with no timer, restarting", r.ID)
		c.sim.Start(r.AssignedHero, r.ID, r.ETA())
		restarted++
	}
	return restarted, nil
}
