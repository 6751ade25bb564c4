package events

import "github.com/kelindar/event"

// SubscribeToChannel forwards events of type T into ch for a select loop,
// such as an SSE handler. Events are dropped while ch is full.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- any) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
		}
	})
}

// SubscribeAll forwards every event type to ch and returns one function
// that unsubscribes them all.
func SubscribeAll(bus *Bus, ch chan<- any) func() {
	unsubs := []func(){
		SubscribeToChannel[DevicesRefreshedEvent](bus, ch),
		SubscribeToChannel[BridgeRequestedEvent](bus, ch),
		SubscribeToChannel[BridgeRemovedEvent](bus, ch),
		SubscribeToChannel[BridgeStateChangedEvent](bus, ch),
		SubscribeToChannel[GraphUpdatedEvent](bus, ch),
		SubscribeToChannel[JackServerStateEvent](bus, ch),
		SubscribeToChannel[BridgeMetricsEvent](bus, ch),
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}
