package auth

import "sync"

// Named process-wide events published on a [Broadcaster].
const (
	// EventAuthExpired fires when a 401 response invalidates the stored
	// credential.
	EventAuthExpired = "auth-expired"
	// EventLoggedOut fires when the user explicitly logs out.
	EventLoggedOut = "logged-out"
)

// Broadcaster delivers named events to any number of subscribers.
//
// Publish never blocks: subscribers that have not drained their channel
// miss the event rather than stall the publisher.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[string][]chan struct{}
}

// NewBroadcaster creates an empty Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[string][]chan struct{})}
}

// Subscribe returns a channel that receives a signal each time the named
// event is published. The channel has a buffer of one.
func (b *Broadcaster) Subscribe(event string) <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan struct{}, 1)
	b.subs[event] = append(b.subs[event], ch)
	return ch
}

// Publish signals every subscriber of the named event.
func (b *Broadcaster) Publish(event string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs[event] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
