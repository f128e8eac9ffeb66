package events

import (
	"context"
	"sync"

	"signal-arena/internal/observability"
)

// Broadcaster is a Sink that fans events out to live subscribers, such as
// websocket connections. A subscriber whose buffer is full misses the event.
type Broadcaster struct {
	mu     sync.RWMutex
	subs   map[uint64]chan Event
	nextID uint64
	buffer int
}

// NewBroadcaster creates a Broadcaster with a per-subscriber buffer.
func NewBroadcaster(buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = 64
	}
	return &Broadcaster{subs: make(map[uint64]chan Event), buffer: buffer}
}

func (b *Broadcaster) Name() string { return "broadcast" }

// Subscribe registers a subscriber. The returned cancel func closes the channel.
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	ch := make(chan Event, b.buffer)
	b.subs[id] = ch
	n := len(b.subs)
	b.mu.Unlock()
	observability.SetWSSubscribers(n)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			close(ch)
			n := len(b.subs)
			b.mu.Unlock()
			observability.SetWSSubscribers(n)
		})
	}
	return ch, cancel
}

// Subscribers returns the number of live subscribers.
func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Deliver offers e to every subscriber without blocking.
func (b *Broadcaster) Deliver(_ context.Context, e Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			observability.RecordWSDropped()
		}
	}
	return nil
}
