package events

import (
	"sync"
	"time"
)

type Type string

const (
	// CatalogChanged signals that the product list is stale and consumers
	// should refetch. Replaces the old ambient "update flag" the screens
	// used to poll.
	CatalogChanged Type = "catalog.changed"
)

type Event struct {
	Type      Type      `json:"type"`
	ProductID string    `json:"productId,omitempty"`
	At        time.Time `json:"at"`
}

// Bus is a minimal in-process pub/sub. Subscribers are invoked synchronously
// on the publishing goroutine, so handlers must stay cheap.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]func(Event)
	nextID int
	recent []Event
	keep   int
}

func NewBus(keep int) *Bus {
	if keep <= 0 {
		keep = 50
	}
	return &Bus{
		subs: make(map[int]func(Event)),
		keep: keep,
	}
}

// Subscribe registers a handler and returns its cancel func.
func (b *Bus) Subscribe(fn func(Event)) (cancel func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

func (b *Bus) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}

	b.mu.Lock()
	b.recent = append(b.recent, e)
	if len(b.recent) > b.keep {
		b.recent = b.recent[len(b.recent)-b.keep:]
	}
	handlers := make([]func(Event), 0, len(b.subs))
	for _, fn := range b.subs {
		handlers = append(handlers, fn)
	}
	b.mu.Unlock()

	for _, fn := range handlers {
		fn(e)
	}
}

// Recent returns up to n most recent events, newest last.
func (b *Bus) Recent(n int) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n <= 0 || n > len(b.recent) {
		n = len(b.recent)
	}
	out := make([]Event, n)
	copy(out, b.recent[len(b.recent)-n:])
	return out
}
