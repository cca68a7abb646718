package logstream

import "sync"

// subscriberCapacity bounds each subscriber's buffered channel; a
// subscriber that falls this far behind loses entries rather than
// stalling the dispatcher.
const subscriberCapacity = 100

// Broadcaster fans Entry values out to any number of SSE subscribers.
// Publishing is best-effort: a slow subscriber drops entries instead of
// blocking the request path that generated them.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[chan Entry]struct{}
}

// NewBroadcaster returns a ready-to-use Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[chan Entry]struct{})}
}

// Subscribe registers a new subscriber and returns its channel along with
// an unsubscribe function the caller must invoke when done listening.
func (b *Broadcaster) Subscribe() (ch <-chan Entry, unsubscribe func()) {
	c := make(chan Entry, subscriberCapacity)

	b.mu.Lock()
	b.subs[c] = struct{}{}
	b.mu.Unlock()

	return c, func() {
		b.mu.Lock()
		if _, ok := b.subs[c]; ok {
			delete(b.subs, c)
			close(c)
		}
		b.mu.Unlock()
	}
}

// Publish delivers e to every current subscriber without blocking. A
// subscriber whose buffer is full simply misses this entry.
func (b *Broadcaster) Publish(e Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for c := range b.subs {
		select {
		case c <- e:
		default:
		}
	}
}

// Subscribers reports how many listeners are currently registered.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
