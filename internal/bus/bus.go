package bus

import (
	"sync"
	"time"
)

const subscriberBuffer = 64

// Bus is the process-wide progress event broadcaster. The zero value is not
// usable; construct with New.
type Bus struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
}

// Subscription is one observer's event stream. Events arrives on Events()
// until Close is called, the bus shuts down, or the subscriber falls behind
// and is dropped.
type Subscription struct {
	bus    *Bus
	filter string
	ch     chan Event
	once   sync.Once
}

// New constructs an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[*Subscription]struct{})}
}

// Subscribe registers an observer. A non-empty filterSessionID restricts the
// stream to that session's events; empty receives all sessions.
func (b *Bus) Subscribe(filterSessionID string) *Subscription {
	sub := &Subscription{
		bus:    b,
		filter: filterSessionID,
		ch:     make(chan Event, subscriberBuffer),
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(sub.ch)
		return sub
	}
	b.subs[sub] = struct{}{}
	return sub
}

// Publish broadcasts event to matching subscribers. Delivery never blocks:
// a subscriber with a full buffer is removed and its channel closed.
func (b *Bus) Publish(sessionID string, event Event) {
	event.SessionID = sessionID
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for sub := range b.subs {
		if sub.filter != "" && sub.filter != sessionID {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			delete(b.subs, sub)
			sub.once.Do(func() { close(sub.ch) })
		}
	}
}

// Close shuts the bus down and closes every subscription channel.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for sub := range b.subs {
		sub.once.Do(func() { close(sub.ch) })
	}
	b.subs = nil
}

// Events returns the subscription's receive channel.
func (s *Subscription) Events() <-chan Event { return s.ch }

// Close unregisters the subscription and closes its channel. Safe to call
// multiple times and concurrently with Publish.
func (s *Subscription) Close() {
	s.bus.mu.Lock()
	if !s.bus.closed {
		delete(s.bus.subs, s)
	}
	s.bus.mu.Unlock()
	s.once.Do(func() { close(s.ch) })
}
