// Package monitoring polls the JACK graph and reports bridge state changes.
package monitoring

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/smazurov/jackbridge/internal/events"
	"github.com/smazurov/jackbridge/internal/jack"
	"github.com/smazurov/jackbridge/internal/logging"
	"github.com/smazurov/jackbridge/internal/metrics"
)

// DefaultInterval is the time between graph polls.
const DefaultInterval = 2 * time.Second

// GraphSource reads the current bridge graph; nil means nothing is bridged.
type GraphSource interface {
	ReadGraph(ctx context.Context) (*jack.Graph, error)
}

// EventPublisher interface for publishing events.
type EventPublisher interface {
	Publish(ev events.Event)
}

// GraphMonitor turns polled graph snapshots into bridge state events.
// A device counts as bridged once it shows up in a poll, and as
// disconnected once a later poll no longer lists it.
type GraphMonitor struct {
	source   GraphSource
	eventBus EventPublisher
	interval time.Duration
	logger   logging.Logger

	mu       sync.RWMutex
	last     *jack.Graph
	lastPoll time.Time
	lastErr  error

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewGraphMonitor creates a monitor polling source every interval.
func NewGraphMonitor(source GraphSource, eventBus EventPublisher, interval time.Duration) *GraphMonitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &GraphMonitor{
		source:   source,
		eventBus: eventBus,
		interval: interval,
		logger:   logging.GetLogger("monitoring"),
	}
}

// Start begins polling until ctx is cancelled or Stop is called.
func (m *GraphMonitor) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	m.wg.Add(1)
	go m.run(ctx)
}

// Stop stops polling and waits for the loop to exit.
func (m *GraphMonitor) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}

// Snapshot returns the last polled graph and when it was taken.
func (m *GraphMonitor) Snapshot() (*jack.Graph, time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last, m.lastPoll, m.lastErr
}

func (m *GraphMonitor) run(ctx context.Context) {
	defer m.wg.Done()

	m.logger.Info("Starting graph monitor", "interval", m.interval)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Graph monitor stopped")
			return
		case <-ticker.C:
			m.Poll(ctx)
		}
	}
}

// Poll reads the graph once and publishes what changed since the previous poll.
// A failed read keeps the previous snapshot so a flaky query does not flap
// every device to disconnected.
func (m *GraphMonitor) Poll(ctx context.Context) {
	graph, err := m.source.ReadGraph(ctx)
	now := time.Now()

	m.mu.Lock()
	prev := m.last
	m.lastPoll = now
	m.lastErr = err
	if err == nil {
		m.last = graph
	}
	m.mu.Unlock()

	if err != nil {
		if ctx.Err() == nil {
			m.logger.Warn("Graph query failed", "error", err)
		}
		return
	}

	m.updateMetrics(prev, graph)

	if graphEqual(prev, graph) {
		return
	}

	ts := now.Format(time.RFC3339)
	for _, device := range devicesOf(graph) {
		if !prev.Has(device) {
			m.logger.Info("Bridge appeared", "device", device)
			m.eventBus.Publish(events.BridgeStateChangedEvent{Device: device, State: events.StateBridged, Timestamp: ts})
		}
	}
	for _, device := range devicesOf(prev) {
		if !graph.Has(device) {
			m.logger.Info("Bridge gone", "device", device)
			m.eventBus.Publish(events.BridgeStateChangedEvent{Device: device, State: events.StateDisconnected, Timestamp: ts})
		}
	}

	m.eventBus.Publish(events.GraphUpdatedEvent{
		BridgedDevices: devicesOf(graph),
		Connections:    edgeCount(graph),
		Timestamp:      ts,
	})
}

func (m *GraphMonitor) updateMetrics(prev, cur *jack.Graph) {
	devices := devicesOf(cur)
	metrics.SetJackBridgedDevices(len(devices))
	for _, device := range devices {
		metrics.SetJackDeviceConnections(device, len(cur.PortsOf(device)))
	}
	for _, device := range devicesOf(prev) {
		if !cur.Has(device) {
			metrics.DeleteJackDeviceMetrics(device)
		}
	}
}

func devicesOf(g *jack.Graph) []string {
	if g == nil {
		return []string{}
	}
	return slices.Clone(g.BridgedDevices)
}

func edgeCount(g *jack.Graph) int {
	if g == nil {
		return 0
	}
	return len(g.Edges)
}

func graphEqual(a, b *jack.Graph) bool {
	if a == nil || b == nil {
		return a == b
	}
	return slices.Equal(a.BridgedDevices, b.BridgedDevices) && slices.Equal(a.Edges, b.Edges)
}
