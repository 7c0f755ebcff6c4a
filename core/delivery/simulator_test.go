package delivery

import (
	"testing"
	"time"

	"github.com/npole/herodispatch/core/store"
)

// fakeClock drives the simulator without real timers. Scheduled triggers fire
// only when the test calls fire().
type fakeClock struct {
	now     time.Time
	pending map[string]func()
	nextID  int
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 12, 24, 18, 0, 0, 0, time.UTC), pending: map[string]func(){}}
}

func (c *fakeClock) schedule(d time.Duration, fn func()) CancelFunc {
	id := string(rune('A' + c.nextID))
	c.nextID++
	c.pending[id] = fn
	return func() bool {
		if _, ok := c.pending[id]; !ok {
			return false
		}
		delete(c.pending, id)
		return true
	}
}

func (c *fakeClock) fireAll() {
	for id, fn := range c.pending {
		delete(c.pending, id)
		fn()
	}
}

func newTestSimulator(t *testing.T) (*Simulator, *fakeClock, *store.MemoryRequests) {
	t.Helper()
	requests := store.NewMemoryRequests()
	sim, err := NewSimulator(requests, nil)
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	clock := newFakeClock()
	sim.now = func() time.Time { return clock.now }
	sim.schedule = clock.schedule
	return sim, clock, requests
}

func TestSimulatorStartAndComplete(t *testing.T) {
	sim, clock, _ := newTestSimulator(t)
	events := sim.Events()

	id := sim.Start("flash", "r1", 30*time.Second)
	if id != "flash-r1" {
		t.Fatalf("delivery id %s", id)
	}
	if !sim.Has("flash", "r1") {
		t.Fatal("delivery should be active")
	}

	clock.now = clock.now.Add(30 * time.Second)
	clock.fireAll()

	select {
	case ev := <-events:
		if ev.DeliveryID != "flash-r1" || ev.HeroID != "flash" || ev.RequestID != "r1" {
			t.Fatalf("unexpected event %+v", ev)
		}
		if !ev.At.Equal(clock.now) {
			t.Fatalf("event time %v, want %v", ev.At, clock.now)
		}
	case <-time.After(time.Second):
		t.Fatal("no completion event")
	}
	if sim.Has("flash", "r1") {
		t.Fatal("delivery should be gone after completion")
	}
}

func TestSimulatorBurstCompletionsAllDelivered(t *testing.T) {
	sim, clock, _ := newTestSimulator(t)
	events := sim.Events()

	// Fire more completions than any internal buffer while the consumer is
	// idle; every delivery must still surface an event.
	const n = 40
	for i := 0; i < n; i++ {
		sim.Start("flash", string(rune('a'+i%26))+string(rune('0'+i/26)), 30*time.Second)
	}
	clock.now = clock.now.Add(30 * time.Second)
	clock.fireAll()

	seen := map[string]bool{}
	for i := 0; i < n; i++ {
		select {
		case ev := <-events:
			if seen[ev.DeliveryID] {
				t.Fatalf("duplicate event for %s", ev.DeliveryID)
			}
			seen[ev.DeliveryID] = true
		case <-time.After(time.Second):
			t.Fatalf("only %d of %d completion events arrived", i, n)
		}
	}
	if len(sim.Active()) != 0 {
		t.Fatal("deliveries left active")
	}
}

func TestSimulatorDuplicateStartIsNoop(t *testing.T) {
	sim, clock, _ := newTestSimulator(t)
	sim.Start("flash", "r1", 30*time.Second)
	sim.Start("flash", "r1", 30*time.Second)
	if len(clock.pending) != 1 {
		t.Fatalf("expected one pending trigger, got %d", len(clock.pending))
	}
}

func TestSimulatorCancel(t *testing.T) {
	sim, clock, _ := newTestSimulator(t)
	events := sim.Events()
	id := sim.Start("flash", "r1", 30*time.Second)

	if !sim.Cancel(id) {
		t.Fatal("first cancel should report true")
	}
	if sim.Cancel(id) {
		t.Fatal("second cancel should report false")
	}

	clock.fireAll()
	select {
	case ev := <-events:
		t.Fatalf("cancelled delivery still completed: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSimulatorActiveViews(t *testing.T) {
	sim, clock, requests := newTestSimulator(t)
	r := reqFixture("r1")
	if err := requests.Create(&r); err != nil {
		t.Fatalf("create: %v", err)
	}
	sim.Start("flash", "r1", 60*time.Second)
	clock.now = clock.now.Add(30 * time.Second)

	views := sim.Active()
	if len(views) != 1 {
		t.Fatalf("expected one view, got %d", len(views))
	}
	v := views[0]
	if v.DeliveryID != "flash-r1" || v.ETASeconds != 60 {
		t.Fatalf("unexpected view %+v", v)
	}
	if v.ElapsedSeconds != 30 || v.RemainingSeconds != 30 {
		t.Fatalf("elapsed=%v remaining=%v", v.ElapsedSeconds, v.RemainingSeconds)
	}
	if v.Progress < 0.49 || v.Progress > 0.51 {
		t.Fatalf("progress %v, want ~0.5", v.Progress)
	}
	// Halfway between the pole and Kochi along the interpolated track.
	if v.CurrentPosition.Lat >= 90 || v.CurrentPosition.Lat <= r.Lat {
		t.Fatalf("position %+v not between depot and destination", v.CurrentPosition)
	}
	if v.Destination.Lat != r.Lat || v.Destination.Lng != r.Lng {
		t.Fatalf("destination %+v", v.Destination)
	}
}

func TestSimulatorActiveViewMissingRequest(t *testing.T) {
	sim, _, _ := newTestSimulator(t)
	sim.Start("flash", "ghost", 60*time.Second)
	views := sim.Active()
	if len(views) != 1 {
		t.Fatalf("expected one view, got %d", len(views))
	}
	if views[0].Destination.Lat != 0 || views[0].Destination.Lng != 0 {
		t.Fatalf("missing request should keep a zero destination: %+v", views[0])
	}
}

func TestSimulatorActiveSortedByID(t *testing.T) {
	sim, _, _ := newTestSimulator(t)
	sim.Start("spider-man", "r2", 30*time.Second)
	sim.Start("flash", "r1", 30*time.Second)
	views := sim.Active()
	if len(views) != 2 || views[0].DeliveryID != "flash-r1" || views[1].DeliveryID != "spider-man-r2" {
		t.Fatalf("unexpected order %+v", views)
	}
}

func TestSimulatorClose(t *testing.T) {
	sim, clock, _ := newTestSimulator(t)
	events := sim.Events()
	sim.Start("flash", "r1", 30*time.Second)
	sim.Close()

	if len(clock.pending) != 0 {
		t.Fatalf("pending triggers survived close: %d", len(clock.pending))
	}
	if _, ok := <-events; ok {
		t.Fatal("event channel should be closed")
	}
	if len(sim.Active()) != 0 {
		t.Fatal("no deliveries should remain")
	}
}
