package glc

import (
	"sync"
)

// Events is the queue of one event kind. Every kind has a single consumer
// which acts on the latest event only. Unconsumed events are dropped at Finale.
type Events[T any] struct {
	queue []T
}

func (e *Events[T]) Send(events ...T) {
	e.queue = append(e.queue, events...)
}

// Latest consumes the queue and returns its last event.
func (e *Events[T]) Latest() (T, bool) {
	var zero T
	if len(e.queue) == 0 {
		return zero, false
	}
	last := e.queue[len(e.queue)-1]
	e.Clear()
	return last, true
}

func (e *Events[T]) Len() int {
	return len(e.queue)
}

func (e *Events[T]) Clear() {
	clear(e.queue)
	e.queue = e.queue[:0]
}

type eventRegistry struct {
	clears []func()
}

func clearEventsSystem(registry *eventRegistry) {
	for _, c := range registry.clears {
		c()
	}
}

// AddEvent registers the Events[T] resource. Registering a kind twice returns
// the existing queue.
func AddEvent[T any](app *App) *Events[T] {
	if existing := Resource[Events[T]](app); existing != nil {
		return existing
	}
	registry := Resource[eventRegistry](app)
	if registry == nil {
		registry = &eventRegistry{}
		app.addResources(registry)
		app.UseSystem(System(clearEventsSystem).InStage(Finale))
	}
	events := &Events[T]{}
	app.addResources(events)
	registry.clears = append(registry.clears, events.Clear)
	return events
}

// hostQueue collects events pushed from outside the frame loop. flushInto
// swaps the buffers so pushes racing a flush land in the next frame.
type hostQueue[T any] struct {
	mu    sync.Mutex
	front []T
	back  []T
}

func (q *hostQueue[T]) push(e T) {
	q.mu.Lock()
	q.back = append(q.back, e)
	q.mu.Unlock()
}

func (q *hostQueue[T]) flushInto(events *Events[T]) {
	q.mu.Lock()
	q.front, q.back = q.back, q.front[:0]
	q.mu.Unlock()

	events.Send(q.front...)
	clear(q.front)
	q.front = q.front[:0]
}
