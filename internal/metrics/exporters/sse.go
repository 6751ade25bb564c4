package exporters

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/smazurov/jackbridge/internal/events"
	"github.com/smazurov/jackbridge/internal/metrics"
)

// EventPublisher publishes events to subscribers.
type EventPublisher interface {
	Publish(ev events.Event)
}

// SSEExporter periodically publishes per-device bridge metrics on the bus
// for the /api/events stream.
type SSEExporter struct {
	eventBus EventPublisher
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewSSEExporter creates an exporter publishing every second.
func NewSSEExporter(eventBus EventPublisher) *SSEExporter {
	return &SSEExporter{
		eventBus: eventBus,
		interval: time.Second,
	}
}

// Start begins the publish loop.
func (s *SSEExporter) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.run()
}

// Stop stops the loop and waits for it to finish. It is safe to call more than once.
func (s *SSEExporter) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *SSEExporter) run() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.publishMetrics()
		}
	}
}

func (s *SSEExporter) publishMetrics() {
	all := metrics.GetAllBridgeMetrics()

	devices := make([]string, 0, len(all))
	for device := range all {
		devices = append(devices, device)
	}
	sort.Strings(devices)

	for _, device := range devices {
		s.eventBus.Publish(events.BridgeMetricsEvent{
			EventType:   "bridge_metrics",
			Device:      device,
			Connections: strconv.Itoa(all[device].Connections),
		})
	}
}

// GetEventTypes returns the SSE event names this exporter produces.
func GetEventTypes() map[string]any {
	return map[string]any{
		"bridge-metrics": events.BridgeMetricsEvent{},
	}
}
