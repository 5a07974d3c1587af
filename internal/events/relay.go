package events

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"todolist/internal/logger"
	"todolist/internal/models/todo"
)

// Event kinds published by the todo service.
const (
	TodoCreated     = "todo.created"
	TodoUpdated     = "todo.updated"
	TodoDeleted     = "todo.deleted"
	TodoBulkDeleted = "todo.bulkDeleted"
	TodoOverdue     = "todo.overdue"
)

// DeletedPayload carries the id and pre-deletion title of a removed todo.
type DeletedPayload struct {
	ID    int64
	Title string
}

// BulkDeletedPayload carries the requested id set and the actual count.
type BulkDeletedPayload struct {
	IDs   []int64
	Count int64
}

// OverduePayload is published by the overdue worker for past-due todos.
type OverduePayload struct {
	Todos []*todo.Todo
}

type Handler func(payload any)

type event struct {
	kind    string
	payload any
}

// Relay is the in-process publish point between the todo service and the
// broadcast gateway. Publish is fire-and-forget: events go onto a buffered
// queue drained by a single goroutine, so a slow subscriber never delays
// the mutation that produced the event, and same-kind events reach each
// listener in publish order. A full queue drops the event, so delivery
// is best effort: under sustained overload a listener can miss a
// publish. There is no durability and no retry.
type Relay struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	queue    chan event
	done     chan struct{}
	closed   sync.Once
}

const defaultQueueSize = 256

func NewRelay() *Relay {
	r := &Relay{
		handlers: make(map[string][]Handler),
		queue:    make(chan event, defaultQueueSize),
		done:     make(chan struct{}),
	}
	go r.dispatch()
	return r
}

// Subscribe registers a handler for an event kind. Handlers registered
// after a publish do not see it.
func (r *Relay) Subscribe(kind string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = append(r.handlers[kind], h)
}

// Publish enqueues an event for delivery to every handler of its kind.
func (r *Relay) Publish(kind string, payload any) {
	select {
	case r.queue <- event{kind: kind, payload: payload}:
	case <-r.done:
	default:
		logger.Warn("Relay: queue full, event dropped",
			zap.String("kind", kind),
			zap.Int("queue_size", defaultQueueSize))
	}
}

// Close stops the dispatch loop. Events already queued are delivered.
func (r *Relay) Close() {
	r.closed.Do(func() {
		close(r.done)
	})
}

func (r *Relay) dispatch() {
	for {
		select {
		case ev := <-r.queue:
			r.deliver(ev)
		case <-r.done:
			// drain what is left, then stop
			for {
				select {
				case ev := <-r.queue:
					r.deliver(ev)
				default:
					return
				}
			}
		}
	}
}

func (r *Relay) deliver(ev event) {
	r.mu.RLock()
	handlers := make([]Handler, len(r.handlers[ev.kind]))
	copy(handlers, r.handlers[ev.kind])
	r.mu.RUnlock()

	start := time.Now()
	for _, h := range handlers {
		h(ev.payload)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Relay: slow event delivery",
			zap.String("kind", ev.kind),
			zap.Int("handlers", len(handlers)),
			zap.Duration("ms", time.Since(start)))
	}
}
