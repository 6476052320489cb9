package reminder

import "sync"

// Fired is the signal published when a reminder's scheduled time elapses.
type Fired struct {
	Kind    Kind
	Title   string
	Message string
	ItemID  string
}

// Subscriber is a callback invoked when a reminder fires.
type Subscriber func(Fired)

// Bus is a synchronous in-process publish/subscribe channel for fired
// reminders. Any number of listeners (a UI banner, a log writer) may
// subscribe and unsubscribe independently.
type Bus struct {
	mu          sync.Mutex
	nextID      int
	subscribers map[int]Subscriber
}

// NewBus creates an empty reminder signal bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[int]Subscriber)}
}

// Subscribe registers a callback invoked on every fired reminder and
// returns a function that removes the subscription.
func (b *Bus) Subscribe(fn Subscriber) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subscribers[id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subscribers, id)
	}
}

// Publish dispatches a fired-reminder signal to all current subscribers.
func (b *Bus) Publish(f Fired) {
	b.mu.Lock()
	subs := make([]Subscriber, 0, len(b.subscribers))
	for _, fn := range b.subscribers {
		subs = append(subs, fn)
	}
	b.mu.Unlock()

	for _, fn := range subs {
		fn(f)
	}
}
