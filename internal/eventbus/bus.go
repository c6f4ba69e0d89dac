// Package eventbus is an in-process pub/sub hub with a bounded history
// ring and non-blocking, drop-on-full per-subscriber fan-out.
package eventbus

import (
	"sync"

	"github.com/google/uuid"

	"github.com/talgya/village-sim/internal/event"
)

const defaultSubscriberBuffer = 64

// Subscription is a handle to an unbounded-intent, drop-on-full FIFO queue
// of events. The queue is closed on Unsubscribe; a reader should range
// over Events until the channel closes.
type Subscription struct {
	ID     uuid.UUID
	Events <-chan event.Event
}

// Bus is a process-wide event hub. Publish is serialized: two concurrent
// publishes produce a total order observed identically by all
// subscribers.
type Bus struct {
	publishMu sync.Mutex

	subMu sync.RWMutex
	subs  map[uuid.UUID]chan event.Event

	histMu  sync.Mutex
	history []event.Event
	histCap int
}

// New creates a Bus whose history ring holds at most historyCap events
// (oldest dropped first).
func New(historyCap int) *Bus {
	if historyCap <= 0 {
		historyCap = 1000
	}
	return &Bus{
		subs:    make(map[uuid.UUID]chan event.Event),
		histCap: historyCap,
	}
}

// Subscribe registers a new reader and returns its handle.
func (b *Bus) Subscribe() Subscription {
	ch := make(chan event.Event, defaultSubscriberBuffer)
	id := uuid.New()
	b.subMu.Lock()
	b.subs[id] = ch
	b.subMu.Unlock()
	return Subscription{ID: id, Events: ch}
}

// Unsubscribe closes and orphans a subscriber's queue. Safe to call more
// than once.
func (b *Bus) Unsubscribe(sub Subscription) {
	b.subMu.Lock()
	defer b.subMu.Unlock()
	if ch, ok := b.subs[sub.ID]; ok {
		delete(b.subs, sub.ID)
		close(ch)
	}
}

// Publish appends e to the bounded history ring and hands it to every
// subscriber's queue without blocking; a full queue drops the event for
// that subscriber only (at-most-once, no retry).
func (b *Bus) Publish(e event.Event) {
	b.publishMu.Lock()
	defer b.publishMu.Unlock()

	b.histMu.Lock()
	b.history = append(b.history, e)
	if len(b.history) > b.histCap {
		b.history = b.history[len(b.history)-b.histCap:]
	}
	b.histMu.Unlock()

	b.subMu.RLock()
	defer b.subMu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			// Subscriber queue full — drop for this subscriber only.
		}
	}
}

// QueueDepthHint returns the summed backlog across every subscriber's
// channel, a coarse signal for health reporting — not a precise depth
// under concurrent publish.
func (b *Bus) QueueDepthHint() int {
	b.subMu.RLock()
	defer b.subMu.RUnlock()
	total := 0
	for _, ch := range b.subs {
		total += len(ch)
	}
	return total
}

// History returns the most recent limit events in insertion order. A
// non-positive limit returns the full retained history.
func (b *Bus) History(limit int) []event.Event {
	b.histMu.Lock()
	defer b.histMu.Unlock()
	if limit <= 0 || limit >= len(b.history) {
		out := make([]event.Event, len(b.history))
		copy(out, b.history)
		return out
	}
	start := len(b.history) - limit
	out := make([]event.Event, limit)
	copy(out, b.history[start:])
	return out
}
