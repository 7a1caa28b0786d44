package utils

import (
	"context"
	"sync"

	"openchat/internal/transcript"
)

// AllTables subscribes a handler to changes of every table.
const AllTables = "*"

type Handler func(change transcript.Change)

// EventBus fans row changes out to in-process subscribers. Publish never
// blocks; when the buffer is full the change is dropped and reported.
type EventBus struct {
	subscribers map[string][]Handler
	events      chan transcript.Change
	mu          sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[string][]Handler),
		events:      make(chan transcript.Change, 256),
	}
}

func (eb *EventBus) Publish(change transcript.Change) bool {
	select {
	case eb.events <- change:
		return true
	default:
		return false
	}
}

func (eb *EventBus) Subscribe(table string, handler Handler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.subscribers[table] = append(eb.subscribers[table], handler)
}

// Run dispatches published changes until ctx is done.
func (eb *EventBus) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case change := <-eb.events:
			eb.dispatch(change)
		}
	}
}

func (eb *EventBus) dispatch(change transcript.Change) {
	eb.mu.RLock()
	handlers := make([]Handler, 0, len(eb.subscribers[change.Table])+len(eb.subscribers[AllTables]))
	handlers = append(handlers, eb.subscribers[change.Table]...)
	handlers = append(handlers, eb.subscribers[AllTables]...)
	eb.mu.RUnlock()

	for _, h := range handlers {
		h(change)
	}
}
