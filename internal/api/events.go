package api

import (
	"context"
	"maps"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/jackbridge/internal/api/models"
	"github.com/smazurov/jackbridge/internal/events"
	"github.com/smazurov/jackbridge/internal/metrics/exporters"
)

// eventTypes maps SSE event names to payload types.
func eventTypes() map[string]any {
	types := map[string]any{
		"connected":            models.StreamConnectedEvent{},
		"devices-refreshed":    events.DevicesRefreshedEvent{},
		"bridge-requested":     events.BridgeRequestedEvent{},
		"bridge-removed":       events.BridgeRemovedEvent{},
		"bridge-state-changed": events.BridgeStateChangedEvent{},
		"graph-updated":        events.GraphUpdatedEvent{},
		"jack-server-state":    events.JackServerStateEvent{},
	}
	maps.Copy(types, exporters.GetEventTypes())
	return types
}

func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time stream of inventory refreshes, bridge requests, graph changes and bridge metrics",
		Tags:        []string{"events"},
	}, eventTypes(), func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 32)
		unsubscribe := events.SubscribeAll(s.eventBus, eventCh)
		defer unsubscribe()

		if err := send.Data(models.StreamConnectedEvent{
			Message:   "SSE connection established",
			Timestamp: time.Now().Format(time.RFC3339),
		}); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
