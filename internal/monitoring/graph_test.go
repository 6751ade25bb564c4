package monitoring

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/jackbridge/internal/events"
	"github.com/smazurov/jackbridge/internal/jack"
)

type scriptedSource struct {
	mu     sync.Mutex
	graphs []*jack.Graph
	errs   []error
	calls  int
}

func (s *scriptedSource) ReadGraph(_ context.Context) (*jack.Graph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	if i >= len(s.graphs) {
		i = len(s.graphs) - 1
	}
	return s.graphs[i], s.errs[i]
}

type mockEventBus struct {
	mu        sync.Mutex
	events    []events.Event
	published chan struct{}
}

func newMockEventBus() *mockEventBus {
	return &mockEventBus{published: make(chan struct{}, 100)}
}

func (m *mockEventBus) Publish(ev events.Event) {
	m.mu.Lock()
	m.events = append(m.events, ev)
	m.mu.Unlock()
	select {
	case m.published <- struct{}{}:
	default:
	}
}

func (m *mockEventBus) take() []events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.events
	m.events = nil
	return out
}

func stateChanges(evts []events.Event) map[string]string {
	changes := make(map[string]string)
	for _, ev := range evts {
		if sc, ok := ev.(events.BridgeStateChangedEvent); ok {
			changes[sc.Device] = sc.State
		}
	}
	return changes
}

func TestPollPublishesTransitions(t *testing.T) {
	usb := &jack.Graph{BridgedDevices: []string{"USB"}, Edges: []jack.Edge{{Device: "USB", Port: "system:playback_1"}}}
	both := &jack.Graph{BridgedDevices: []string{"USB", "PCH"}, Edges: usb.Edges}
	pch := &jack.Graph{BridgedDevices: []string{"PCH"}}

	source := &scriptedSource{
		graphs: []*jack.Graph{nil, usb, usb, both, pch, nil},
		errs:   make([]error, 6),
	}
	bus := newMockEventBus()
	m := NewGraphMonitor(source, bus, time.Hour)
	ctx := context.Background()

	m.Poll(ctx)
	if evts := bus.take(); len(evts) != 0 {
		t.Errorf("nil to nil should publish nothing, got %v", evts)
	}

	m.Poll(ctx)
	evts := bus.take()
	if got := stateChanges(evts); len(got) != 1 || got["USB"] != events.StateBridged {
		t.Errorf("expected USB bridged, got %v", got)
	}
	if len(evts) != 2 {
		t.Errorf("expected state change plus graph update, got %d events", len(evts))
	}

	m.Poll(ctx)
	if evts := bus.take(); len(evts) != 0 {
		t.Errorf("unchanged graph should publish nothing, got %v", evts)
	}

	m.Poll(ctx)
	if got := stateChanges(bus.take()); len(got) != 1 || got["PCH"] != events.StateBridged {
		t.Errorf("expected PCH bridged, got %v", got)
	}

	m.Poll(ctx)
	if got := stateChanges(bus.take()); len(got) != 1 || got["USB"] != events.StateDisconnected {
		t.Errorf("expected USB disconnected, got %v", got)
	}

	m.Poll(ctx)
	evts = bus.take()
	if got := stateChanges(evts); len(got) != 1 || got["PCH"] != events.StateDisconnected {
		t.Errorf("expected PCH disconnected, got %v", got)
	}
	var update events.GraphUpdatedEvent
	for _, ev := range evts {
		if u, ok := ev.(events.GraphUpdatedEvent); ok {
			update = u
		}
	}
	if update.BridgedDevices == nil || len(update.BridgedDevices) != 0 || update.Connections != 0 {
		t.Errorf("expected empty graph update, got %+v", update)
	}
}

func TestPollKeepsSnapshotOnError(t *testing.T) {
	usb := &jack.Graph{BridgedDevices: []string{"USB"}}
	queryErr := jack.NewError(jack.ErrCodeGraphQueryFailed, "JACK server is not running", errors.New("exit status 1"))

	source := &scriptedSource{
		graphs: []*jack.Graph{usb, nil, usb},
		errs:   []error{nil, queryErr, nil},
	}
	bus := newMockEventBus()
	m := NewGraphMonitor(source, bus, time.Hour)
	ctx := context.Background()

	m.Poll(ctx)
	bus.take()

	m.Poll(ctx)
	if evts := bus.take(); len(evts) != 0 {
		t.Errorf("failed query should not publish, got %v", evts)
	}
	graph, _, err := m.Snapshot()
	if !graph.Has("USB") {
		t.Error("snapshot should survive a failed query")
	}
	if !jack.HasCode(err, jack.ErrCodeGraphQueryFailed) {
		t.Errorf("snapshot should report the query error, got %v", err)
	}

	m.Poll(ctx)
	if evts := bus.take(); len(evts) != 0 {
		t.Errorf("recovered query with same graph should not publish, got %v", evts)
	}
}

func TestMonitorStartStop(t *testing.T) {
	source := &scriptedSource{
		graphs: []*jack.Graph{{BridgedDevices: []string{"USB"}}},
		errs:   []error{nil},
	}
	bus := newMockEventBus()
	m := NewGraphMonitor(source, bus, 10*time.Millisecond)

	m.Start(context.Background())

	select {
	case <-bus.published:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for first poll")
	}

	m.Stop()

	graph, polled, _ := m.Snapshot()
	if !graph.Has("USB") || polled.IsZero() {
		t.Errorf("unexpected snapshot: %+v at %v", graph, polled)
	}
}
