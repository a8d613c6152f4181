// Package events is the in-process event bus: capture sessions and device
// discovery publish typed events, anything interested subscribes.
package events

import (
	"github.com/kelindar/event"
)

// Bus wraps a kelindar/event dispatcher for typed event broadcasting.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers of its type.
// Usage: bus.Publish(SessionStartedEvent{...})
func (b *Bus) Publish(ev Event) {
	// kelindar/event dispatches on the concrete type, so each known event
	// type is forwarded through the generic Publish.
	switch e := ev.(type) {
	case SessionStartedEvent:
		event.Publish(b.dispatcher, e)
	case SessionStoppedEvent:
		event.Publish(b.dispatcher, e)
	case SessionErrorEvent:
		event.Publish(b.dispatcher, e)
	case DeviceDiscoveryEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe registers a handler; the handler's parameter type selects which
// events it receives. Returns an unsubscribe function.
// Usage: unsub := bus.Subscribe(func(e SessionErrorEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(SessionStartedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(SessionStoppedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(SessionErrorEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(DeviceDiscoveryEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		// Unknown handler types subscribe to nothing.
		return func() {}
	}
}
