package events

import (
	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers.
// kelindar/event dispatches on the static type, so each concrete event
// needs its own case.
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case DevicesRefreshedEvent:
		event.Publish(b.dispatcher, e)
	case BridgeRequestedEvent:
		event.Publish(b.dispatcher, e)
	case BridgeRemovedEvent:
		event.Publish(b.dispatcher, e)
	case BridgeStateChangedEvent:
		event.Publish(b.dispatcher, e)
	case GraphUpdatedEvent:
		event.Publish(b.dispatcher, e)
	case JackServerStateEvent:
		event.Publish(b.dispatcher, e)
	case BridgeMetricsEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes handler to the event type of its argument and
// returns an unsubscribe function. Unknown handler types get a no-op.
// Usage: unsub := bus.Subscribe(func(e BridgeStateChangedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(DevicesRefreshedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(BridgeRequestedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(BridgeRemovedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(BridgeStateChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(GraphUpdatedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(JackServerStateEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(BridgeMetricsEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}
