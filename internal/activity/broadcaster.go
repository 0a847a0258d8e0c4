package activity

import "sync"

// subscriberBuffer is the per-subscriber channel capacity. A subscriber that
// falls this far behind starts losing messages.
const subscriberBuffer = 50

// Broadcaster fans one activity feed out to many WebSocket subscribers.
// Slow subscribers drop messages instead of blocking the feed.
type Broadcaster struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]chan string
}

// NewBroadcaster creates an empty fan-out.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[uint64]chan string)}
}

// Subscribe registers a buffered receiver. The returned cancel func must be
// called when the subscriber goes away.
func (b *Broadcaster) Subscribe() (<-chan string, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan string, subscriberBuffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

// Send delivers a message to every subscriber with buffer room and returns
// the number of subscribers at delivery time.
func (b *Broadcaster) Send(message string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- message:
		default:
		}
	}
	return len(b.subs)
}
