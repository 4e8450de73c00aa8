package session

import (
	"sync"

	"github.com/cskr/pubsub"

	"github.com/nfarrow/appliancelink/internal/message"
)

// Event kinds a session broadcasts.
const (
	EventStatus     = "status"
	EventMessage    = "message"
	EventSubscribed = "subscribed"
	EventError      = "error"
)

// eventBufferSize is the per-subscriber channel capacity. Slow
// consumers drop events rather than stall message handling.
const eventBufferSize = 128

// Event is one session broadcast. Kind decides which payload fields are
// set.
type Event struct {
	Kind   string
	Serial string

	// Status is a deep copy of the snapshot (EventStatus).
	Status map[string]any

	// Message is the validated inbound message (EventMessage).
	Message *message.Message

	// Err is the per-message or connection error (EventError).
	Err error
}

// eventBus wraps pubsub fan-out with non-blocking publishes.
//
// Every operation is guarded by the stopped flag: the pubsub command
// channel has no reader once Shutdown returns, so a publish (or
// subscribe) issued after shutdown would block its caller forever —
// and publishes arrive from the transport's delivery goroutine, which
// may still be draining messages when the session stops.
type eventBus struct {
	ps     *pubsub.PubSub
	serial string

	mu      sync.Mutex
	stopped bool
}

func newEventBus(serial string) *eventBus {
	return &eventBus{
		ps:     pubsub.New(eventBufferSize),
		serial: serial,
	}
}

func (b *eventBus) publish(kind string, ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return
	}

	ev.Kind = kind
	ev.Serial = b.serial
	b.ps.TryPub(ev, kind)
}

// subscribe returns an event channel for the given kinds. After
// shutdown it returns a closed channel so late subscribers observe end
// of stream instead of blocking.
func (b *eventBus) subscribe(kinds ...string) chan any {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		ch := make(chan any)
		close(ch)
		return ch
	}
	return b.ps.Sub(kinds...)
}

func (b *eventBus) unsubscribe(ch chan any, kinds ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return
	}
	if len(kinds) == 0 {
		b.ps.Unsub(ch)
		return
	}
	b.ps.Unsub(ch, kinds...)
}

func (b *eventBus) shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return
	}
	b.stopped = true
	b.ps.Shutdown()
}
