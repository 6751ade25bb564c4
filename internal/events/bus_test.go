package events

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan BridgeStateChangedEvent, 1)

	unsub := bus.Subscribe(func(e BridgeStateChangedEvent) {
		received <- e
	})
	defer unsub()

	bus.Publish(BridgeStateChangedEvent{Device: "USB", State: StateBridged})

	got := <-received
	if got.Device != "USB" || got.State != StateBridged {
		t.Errorf("unexpected event: %+v", got)
	}
}

func TestBus_MultipleSubscribers(_ *testing.T) {
	bus := New()
	received1 := make(chan GraphUpdatedEvent, 1)
	received2 := make(chan GraphUpdatedEvent, 1)

	unsub1 := bus.Subscribe(func(e GraphUpdatedEvent) { received1 <- e })
	defer unsub1()
	unsub2 := bus.Subscribe(func(e GraphUpdatedEvent) { received2 <- e })
	defer unsub2()

	bus.Publish(GraphUpdatedEvent{BridgedDevices: []string{"USB"}, Connections: 2})

	<-received1
	<-received2
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	received := make(chan BridgeRemovedEvent, 1)

	unsub := bus.Subscribe(func(e BridgeRemovedEvent) { received <- e })

	bus.Publish(BridgeRemovedEvent{Device: "USB"})
	<-received

	unsub()

	bus.Publish(BridgeRemovedEvent{Device: "PCH"})
	select {
	case <-received:
		t.Fatal("Should not have received event after unsubscribe")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestBus_TypeSafety(t *testing.T) {
	bus := New()

	refreshed := make(chan bool, 1)
	requested := make(chan bool, 1)

	unsub1 := bus.Subscribe(func(_ DevicesRefreshedEvent) { refreshed <- true })
	defer unsub1()
	unsub2 := bus.Subscribe(func(_ BridgeRequestedEvent) { requested <- true })
	defer unsub2()

	bus.Publish(DevicesRefreshedEvent{Count: 1})
	<-refreshed

	select {
	case <-requested:
		t.Fatal("BridgeRequested subscriber should NOT have received DevicesRefreshedEvent")
	case <-time.After(10 * time.Millisecond):
	}

	bus.Publish(BridgeRequestedEvent{Device: "USB"})
	<-requested

	select {
	case <-refreshed:
		t.Fatal("DevicesRefreshed subscriber should NOT have received BridgeRequestedEvent")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestBus_ThreadSafety(_ *testing.T) {
	bus := New()
	var wg sync.WaitGroup
	numGoroutines := 10
	eventsPerGoroutine := 100
	expected := numGoroutines * eventsPerGoroutine

	receivedCh := make(chan bool, expected)

	unsub := bus.Subscribe(func(_ BridgeStateChangedEvent) { receivedCh <- true })
	defer unsub()

	for range numGoroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range eventsPerGoroutine {
				bus.Publish(BridgeStateChangedEvent{
					Device:    "USB",
					State:     StateBridged,
					Timestamp: time.Now().Format(time.RFC3339),
				})
			}
		}()
	}

	wg.Wait()

	for range expected {
		<-receivedCh
	}
}

func TestBus_UnknownHandlerIsNoop(_ *testing.T) {
	bus := New()
	unsub := bus.Subscribe(func(string) {})
	unsub()
}

func TestEventJSONSerialization(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		keys  []string
	}{
		{
			"DevicesRefreshedEvent",
			DevicesRefreshedEvent{Count: 2, Devices: []string{"PCH", "USB"}, Timestamp: "2025-01-27T10:30:00Z"},
			[]string{"count", "devices", "timestamp"},
		},
		{
			"BridgeRequestedEvent",
			BridgeRequestedEvent{Device: "USB", Clients: []string{"alsa_USB_src"}, Rate: 48000, Periods: 128, NPeriods: 2},
			[]string{"device", "clients", "rate", "periods", "nperiods"},
		},
		{
			"BridgeStateChangedEvent",
			BridgeStateChangedEvent{Device: "USB", State: StateDisconnected},
			[]string{"device", "state"},
		},
		{
			"GraphUpdatedEvent",
			GraphUpdatedEvent{BridgedDevices: []string{"USB"}, Connections: 3},
			[]string{"bridged_devices", "connections"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.event)
			if err != nil {
				t.Fatalf("Failed to marshal: %v", err)
			}

			var result map[string]any
			if unmarshalErr := json.Unmarshal(data, &result); unmarshalErr != nil {
				t.Fatalf("Failed to unmarshal: %v", unmarshalErr)
			}
			for _, k := range tt.keys {
				if _, ok := result[k]; !ok {
					t.Errorf("missing key %q in %s", k, data)
				}
			}
		})
	}
}

func TestSubscribeToChannel(t *testing.T) {
	bus := New()
	ch := make(chan any, 10)

	unsub := SubscribeToChannel[BridgeRequestedEvent](bus, ch)
	defer unsub()

	bus.Publish(BridgeRequestedEvent{Device: "USB"})

	received := <-ch
	ev, ok := received.(BridgeRequestedEvent)
	if !ok {
		t.Fatalf("Expected BridgeRequestedEvent, got %T", received)
	}
	if ev.Device != "USB" {
		t.Errorf("Expected device USB, got %s", ev.Device)
	}
}

func TestSubscribeToChannel_NonBlocking(_ *testing.T) {
	bus := New()
	ch := make(chan any, 1)

	unsub := SubscribeToChannel[JackServerStateEvent](bus, ch)
	defer unsub()

	// The second publish must be dropped rather than block the dispatcher.
	bus.Publish(JackServerStateEvent{Running: true})
	bus.Publish(JackServerStateEvent{Running: false})

	time.Sleep(20 * time.Millisecond)
}

func TestSubscribeAll(t *testing.T) {
	bus := New()
	ch := make(chan any, 10)

	unsub := SubscribeAll(bus, ch)

	bus.Publish(DevicesRefreshedEvent{Count: 1})
	bus.Publish(BridgeMetricsEvent{Device: "USB"})

	seen := map[string]bool{}
	for range 2 {
		select {
		case ev := <-ch:
			switch ev.(type) {
			case DevicesRefreshedEvent:
				seen["refreshed"] = true
			case BridgeMetricsEvent:
				seen["metrics"] = true
			}
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for events")
		}
	}
	if !seen["refreshed"] || !seen["metrics"] {
		t.Errorf("expected both events, saw %v", seen)
	}

	unsub()
	bus.Publish(DevicesRefreshedEvent{Count: 2})
	select {
	case ev := <-ch:
		t.Errorf("received %T after unsubscribe", ev)
	case <-time.After(20 * time.Millisecond):
	}
}
