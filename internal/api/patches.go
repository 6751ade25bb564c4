package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/jackbridge/internal/api/models"
)

func (s *Server) registerPatchRoutes() {
	if s.options.Patchbay == nil {
		return
	}
	patchbay := s.options.Patchbay

	huma.Register(s.api, huma.Operation{
		OperationID: "list-ports",
		Method:      http.MethodGet,
		Path:        "/api/jack/ports",
		Summary:     "List Ports",
		Description: "List every JACK port that can be patched, with direction and whether it is physical",
		Tags:        []string{"jack"},
		Errors:      []int{503},
	}, func(ctx context.Context, _ *struct{}) (*models.PortsResponse, error) {
		ports, err := patchbay.Ports(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		return &models.PortsResponse{Body: models.PortsFromDomain(ports)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "connect-ports",
		Method:      http.MethodPost,
		Path:        "/api/jack/patches",
		Summary:     "Connect Ports",
		Description: "Connect an output port to an input port",
		Tags:        []string{"jack"},
		Errors:      []int{400, 500},
	}, func(ctx context.Context, input *models.PatchRequest) (*models.PatchResponse, error) {
		if err := patchbay.Connect(ctx, input.Body.Source, input.Body.Destination); err != nil {
			return nil, mapError(err)
		}
		return &models.PatchResponse{
			Body: models.MessageData{
				Message: fmt.Sprintf("connected %s to %s", input.Body.Source, input.Body.Destination),
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "disconnect-ports",
		Method:      http.MethodDelete,
		Path:        "/api/jack/patches",
		Summary:     "Disconnect Ports",
		Description: "Remove the connection between two ports",
		Tags:        []string{"jack"},
		Errors:      []int{400, 500},
	}, func(ctx context.Context, input *models.PatchRequest) (*models.PatchResponse, error) {
		if err := patchbay.Disconnect(ctx, input.Body.Source, input.Body.Destination); err != nil {
			return nil, mapError(err)
		}
		return &models.PatchResponse{
			Body: models.MessageData{
				Message: fmt.Sprintf("disconnected %s from %s", input.Body.Source, input.Body.Destination),
			},
		}, nil
	})
}
