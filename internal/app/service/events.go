package service

import (
	"sync"
	"time"
)

// EventType names a kind of store change
type EventType string

const (
	EventProductCreated EventType = "product.created"
	EventProductUpdated EventType = "product.updated"
	EventProductDeleted EventType = "product.deleted"
	EventConfigUpdated  EventType = "config.updated"
	EventStoreImported  EventType = "store.imported"
	EventStoreReset     EventType = "store.reset"
)

// Event notifies subscribers that the store changed. ReloadRequired is set
// when the whole catalog was replaced and views must refetch everything.
type Event struct {
	Type           EventType `json:"type"`
	ProductID      string    `json:"productId,omitempty"`
	ReloadRequired bool      `json:"reloadRequired"`
	At             time.Time `json:"at"`
}

const defaultSubscriberBuffer = 16

// Notifier fans store events out to subscribers. Publish never blocks: a
// subscriber whose buffer is full misses the event.
type Notifier struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	buffer int
}

// NewNotifier creates a notifier whose subscriber channels hold buffer events
func NewNotifier(buffer int) *Notifier {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	return &Notifier{
		subs:   make(map[int]chan Event),
		buffer: buffer,
	}
}

// Subscribe registers a new subscriber. The returned function unsubscribes
// and closes the channel; it is safe to call more than once.
func (n *Notifier) Subscribe() (<-chan Event, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	ch := make(chan Event, n.buffer)
	n.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			delete(n.subs, id)
			close(ch)
		})
	}
}

// Publish delivers the event to every subscriber with room in its buffer
func (n *Notifier) Publish(event Event) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, ch := range n.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribers returns the number of active subscribers
func (n *Notifier) Subscribers() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}
