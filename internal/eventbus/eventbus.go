package eventbus

import "sync"

// Bus is a type-safe publish/subscribe bus for events of type T. Publishing
// never blocks. Plain subscribers are lossy: one whose buffer is full misses
// the event. Unbounded subscribers queue without limit and never miss one.
type Bus[T any] struct {
	mu        sync.RWMutex
	buffer    int
	subs      []chan T
	unbounded []*unboundedSub[T]
	closed    bool
}

// New creates a Bus whose plain subscriber channels hold up to buffer events.
func New[T any](buffer int) *Bus[T] {
	if buffer <= 0 {
		buffer = 8
	}
	return &Bus[T]{buffer: buffer}
}

// Publish sends the event to all subscribers.
func (b *Bus[T]) Publish(e T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
	for _, s := range b.unbounded {
		s.push(e)
	}
}

// Subscribe registers a lossy subscriber and returns its channel. The channel
// is closed when the bus closes or the subscriber unsubscribes.
func (b *Bus[T]) Subscribe() <-chan T {
	ch := make(chan T, b.buffer)
	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subs = append(b.subs, ch)
	}
	b.mu.Unlock()
	return ch
}

// SubscribeUnbounded registers a subscriber that never misses an event.
// Pending events are queued without limit and delivered in publish order, so
// a slow consumer delays delivery instead of losing state-carrying events.
func (b *Bus[T]) SubscribeUnbounded() <-chan T {
	s := newUnboundedSub[T]()
	b.mu.Lock()
	if b.closed {
		s.close()
	} else {
		b.unbounded = append(b.unbounded, s)
	}
	b.mu.Unlock()
	return s.out
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *Bus[T]) Unsubscribe(sub <-chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ch := range b.subs {
		if ch == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			if !b.closed {
				close(ch)
			}
			return
		}
	}
	for i, s := range b.unbounded {
		if s.out == sub {
			b.unbounded = append(b.unbounded[:i], b.unbounded[i+1:]...)
			s.close()
			return
		}
	}
}

// Close closes the bus and all subscriber channels.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
	for _, s := range b.unbounded {
		s.close()
	}
	b.unbounded = nil
}

// unboundedSub forwards a growable queue to its output channel from a
// dedicated goroutine.
type unboundedSub[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []T
	closed bool
	out    chan T
	done   chan struct{}
}

func newUnboundedSub[T any]() *unboundedSub[T] {
	s := &unboundedSub[T]{out: make(chan T), done: make(chan struct{})}
	s.cond = sync.NewCond(&s.mu)
	go s.run()
	return s
}

func (s *unboundedSub[T]) push(e T) {
	s.mu.Lock()
	if !s.closed {
		s.queue = append(s.queue, e)
		s.cond.Signal()
	}
	s.mu.Unlock()
}

func (s *unboundedSub[T]) run() {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 {
			s.mu.Unlock()
			close(s.out)
			return
		}
		e := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- e:
		case <-s.done:
			close(s.out)
			return
		}
	}
}

func (s *unboundedSub[T]) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.done)
	s.cond.Broadcast()
	s.mu.Unlock()
}
