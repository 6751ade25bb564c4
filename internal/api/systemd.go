package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/jackbridge/internal/api/models"
)

func (s *Server) registerSystemdRoutes() {
	if s.options.Systemd == nil || s.options.JackServiceName == "" {
		return
	}

	unit := s.options.JackServiceName
	manager := s.options.Systemd

	huma.Register(s.api, huma.Operation{
		OperationID: "get-jack-service-status",
		Method:      http.MethodGet,
		Path:        "/api/systemd/jack/status",
		Summary:     "JACK Service Status",
		Description: "Get the systemd state of the unit running the JACK server",
		Tags:        []string{"systemd"},
		Errors:      []int{500},
	}, func(ctx context.Context, _ *struct{}) (*models.SystemdServiceStatusResponse, error) {
		status, err := manager.GetServiceStatus(ctx, unit)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to get service status", err)
		}
		return &models.SystemdServiceStatusResponse{
			Body: models.SystemdServiceStatus{Service: unit, Status: status},
		}, nil
	})

	actions := []struct {
		name string
		run  func(context.Context, string) error
	}{
		{"start", manager.StartService},
		{"stop", manager.StopService},
		{"restart", manager.RestartService},
	}
	for _, a := range actions {
		huma.Register(s.api, huma.Operation{
			OperationID: a.name + "-jack-service",
			Method:      http.MethodPost,
			Path:        "/api/systemd/jack/" + a.name,
			Summary:     "Systemd " + a.name + " JACK",
			Description: "Queue a " + a.name + " job for the unit running the JACK server",
			Tags:        []string{"systemd"},
			Errors:      []int{500},
		}, func(ctx context.Context, _ *struct{}) (*models.SystemdServiceActionResponse, error) {
			if err := a.run(ctx, unit); err != nil {
				return nil, huma.Error500InternalServerError("Failed to "+a.name+" service", err)
			}
			return &models.SystemdServiceActionResponse{
				Body: models.SystemdServiceAction{Service: unit, Action: a.name, Success: true},
			}, nil
		})
	}
}
