package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/jackbridge/internal/api/models"
	"github.com/smazurov/jackbridge/internal/events"
	"github.com/smazurov/jackbridge/internal/jack"
)

func (s *Server) registerBridgeRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-jack-connections",
		Method:      http.MethodGet,
		Path:        "/api/jack/connections",
		Summary:     "Get Bridge Connections",
		Description: "Read the JACK graph and report which ALSA devices are bridged and what they connect to",
		Tags:        []string{"jack"},
		Errors:      []int{404, 503},
	}, func(ctx context.Context, _ *struct{}) (*models.ConnectionsResponse, error) {
		graph, err := s.options.Graph.ReadGraph(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		if graph == nil {
			return nil, huma.Error404NotFound("no bridged ALSA devices")
		}
		return &models.ConnectionsResponse{Body: models.ConnectionsFromGraph(graph)}, nil
	})

	if s.options.Monitor != nil {
		monitor := s.options.Monitor
		huma.Register(s.api, huma.Operation{
			OperationID: "get-jack-monitor",
			Method:      http.MethodGet,
			Path:        "/api/jack/monitor",
			Summary:     "Get Graph Monitor State",
			Description: "Report the bridge graph as of the monitor's last poll, with the poll time and the error of a failed poll",
			Tags:        []string{"jack"},
		}, func(_ context.Context, _ *struct{}) (*models.MonitorResponse, error) {
			graph, polledAt, pollErr := monitor.Snapshot()
			return &models.MonitorResponse{Body: models.MonitorFromSnapshot(graph, polledAt, pollErr)}, nil
		})
	}

	huma.Register(s.api, huma.Operation{
		OperationID:   "connect-alsa-to-jack",
		Method:        http.MethodPost,
		Path:          "/api/jack/connect",
		Summary:       "Connect Device",
		Description:   "Launch capture and playback bridges for an ALSA card. The bridges appear in the graph once JACK has loaded them.",
		Tags:          []string{"jack"},
		DefaultStatus: http.StatusAccepted,
		Errors:        []int{400, 404, 422, 500},
	}, func(ctx context.Context, input *models.ConnectRequest) (*models.ConnectResponse, error) {
		device, ok := s.options.Devices.Find(input.Body.CardName)
		if !ok {
			return nil, huma.Error404NotFound(fmt.Sprintf("ALSA device %s not found", input.Body.CardName))
		}

		result, err := s.options.Bridges.Connect(ctx, device, jack.ConnectOptions{
			Rate:     input.Body.Rate,
			Periods:  input.Body.Periods,
			NPeriods: input.Body.NPeriods,
		})
		if err != nil {
			return nil, mapError(err)
		}

		s.eventBus.Publish(events.BridgeRequestedEvent{
			Device:    result.Device,
			Clients:   result.Clients,
			Rate:      result.Rate,
			Periods:   result.Periods,
			NPeriods:  result.NPeriods,
			Timestamp: time.Now().Format(time.RFC3339),
		})

		return &models.ConnectResponse{
			Body: models.ConnectData{
				Device:   result.Device,
				Clients:  result.Clients,
				Rate:     result.Rate,
				Periods:  result.Periods,
				NPeriods: result.NPeriods,
				Message:  fmt.Sprintf("bridge launch requested for ALSA device %s", result.Device),
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "disconnect-alsa-from-jack",
		Method:      http.MethodPost,
		Path:        "/api/jack/disconnect",
		Summary:     "Disconnect Device",
		Description: "Unload both bridge clients of a device. Unloading a device that is not bridged succeeds.",
		Tags:        []string{"jack"},
		Errors:      []int{400, 500},
	}, func(ctx context.Context, input *models.DisconnectRequest) (*models.DisconnectResponse, error) {
		device := input.Body.DeviceName
		if err := s.options.Bridges.Disconnect(ctx, device); err != nil {
			return nil, mapError(err)
		}

		s.eventBus.Publish(events.BridgeRemovedEvent{
			Device:    device,
			Timestamp: time.Now().Format(time.RFC3339),
		})

		return &models.DisconnectResponse{
			Body: models.MessageData{
				Message: fmt.Sprintf("ALSA device %s disconnected from JACK", device),
			},
		}, nil
	})
}
