package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/jackbridge/internal/api/models"
	"github.com/smazurov/jackbridge/internal/events"
)

func (s *Server) registerJackServerRoutes() {
	if s.options.JackServer == nil {
		return
	}
	jackd := s.options.JackServer

	huma.Register(s.api, huma.Operation{
		OperationID: "get-jack-server",
		Method:      http.MethodGet,
		Path:        "/api/jack/server",
		Summary:     "JACK Server Status",
		Description: "Report whether the JACK server is started",
		Tags:        []string{"jack"},
		Errors:      []int{500},
	}, func(ctx context.Context, _ *struct{}) (*models.ServerStatusResponse, error) {
		status, err := jackd.Status(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		return &models.ServerStatusResponse{
			Body: models.ServerStatusData{Running: status.Running, Output: status.Output},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "start-jack-server",
		Method:      http.MethodPost,
		Path:        "/api/jack/server",
		Summary:     "Start JACK Server",
		Description: "Configure the driver and timing, then start the JACK server. Omitted fields use the configured defaults.",
		Tags:        []string{"jack"},
		Errors:      []int{500},
	}, func(ctx context.Context, input *models.ServerStartRequest) (*models.ServerStatusResponse, error) {
		cfg := s.options.JackServerDefaults
		if input.Body.Driver != "" {
			cfg.Driver = input.Body.Driver
		}
		if input.Body.Rate > 0 {
			cfg.Rate = input.Body.Rate
		}
		if input.Body.Period > 0 {
			cfg.Period = input.Body.Period
		}

		if err := jackd.Start(ctx, cfg); err != nil {
			return nil, mapError(err)
		}
		s.publishServerState(true)
		return &models.ServerStatusResponse{Body: models.ServerStatusData{Running: true}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "stop-jack-server",
		Method:      http.MethodDelete,
		Path:        "/api/jack/server",
		Summary:     "Stop JACK Server",
		Description: "Stop the JACK server. Bridges are unloaded with it.",
		Tags:        []string{"jack"},
		Errors:      []int{500},
	}, func(ctx context.Context, _ *struct{}) (*models.ServerStatusResponse, error) {
		if err := jackd.Stop(ctx); err != nil {
			return nil, mapError(err)
		}
		s.publishServerState(false)
		return &models.ServerStatusResponse{Body: models.ServerStatusData{Running: false}}, nil
	})
}

func (s *Server) publishServerState(running bool) {
	s.eventBus.Publish(events.JackServerStateEvent{
		Running:   running,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}
