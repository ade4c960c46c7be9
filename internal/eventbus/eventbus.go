// Package eventbus carries progress events from the simulation and solver
// layers to whoever wants to display them, without coupling those layers to
// a logger or a UI. Delivery is best effort: a slow subscriber loses events
// rather than stalling a solve.
package eventbus

import "sync"

// Event is any progress event published on the bus; see events.go and the
// GA generation event for the concrete types.
type Event interface{}

// subBuffer holds roughly one GA run of generation events per subscriber.
const subBuffer = 16

// EventBus is the publish/subscribe contract.
type EventBus interface {
	Publish(Event)
	Subscribe() <-chan Event
	Unsubscribe(<-chan Event)
	Close()
}

// Bus fans events out to buffered subscriber channels. The subscriber set
// is keyed by the receive-only view handed out by Subscribe, so Unsubscribe
// can find the channel it was given without a linear scan.
type Bus struct {
	mu     sync.RWMutex
	subs   map[<-chan Event]chan Event
	closed bool
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{subs: make(map[<-chan Event]chan Event)}
}

// Publish delivers e to every subscriber whose buffer has room and drops it
// for the rest. Publishing on a closed bus is a no-op.
func (b *Bus) Publish(e Event) {
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
}

// Subscribe registers a new subscriber. The returned channel is closed on
// Unsubscribe or Close; subscribing to a closed bus yields a closed channel.
func (b *Bus) Subscribe() <-chan Event {
	ch := make(chan Event, subBuffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subs[ch] = ch
	return ch
}

// Unsubscribe removes the subscriber and closes its channel. Unknown
// channels, including ones already removed, are ignored.
func (b *Bus) Unsubscribe(sub <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.subs[sub]
	if !ok {
		return
	}
	delete(b.subs, sub)
	close(ch)
}

// Close closes all subscriber channels and clears the set. Further
// publishes and subscriptions are no-ops.
func (b *Bus) Close() {
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
}

// Watch narrows a bus subscription to events of one concrete type, such as
// SolveDone or a GA generation event. Events of other types are discarded.
// The returned stop function unsubscribes; the typed channel closes once the
// subscription drains, after stop or after the bus itself closes.
func Watch[T any](b EventBus, buf int) (<-chan T, func()) {
	sub := b.Subscribe()
	out := make(chan T, buf)
	go func() {
		defer close(out)
		for e := range sub {
			if ev, ok := e.(T); ok {
				out <- ev
			}
		}
	}()
	return out, func() { b.Unsubscribe(sub) }
}
