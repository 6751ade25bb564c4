package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/jackbridge/internal/alsa"
	"github.com/smazurov/jackbridge/internal/api/models"
)

func (s *Server) registerDeviceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-alsa-devices",
		Method:      http.MethodGet,
		Path:        "/api/alsa/devices",
		Summary:     "List ALSA Devices",
		Description: "Get the cached ALSA device inventory with probed playback and capture parameters",
		Tags:        []string{"alsa"},
	}, func(_ context.Context, _ *struct{}) (*models.DeviceListResponse, error) {
		devices, refreshedAt := s.options.Devices.Devices()
		return deviceListResponse(devices, refreshedAt), nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "refresh-alsa-devices",
		Method:      http.MethodPost,
		Path:        "/api/alsa/devices/refresh",
		Summary:     "Refresh ALSA Devices",
		Description: "Re-run discovery and probing, replacing the cached inventory",
		Tags:        []string{"alsa"},
		Errors:      []int{500},
	}, func(ctx context.Context, _ *struct{}) (*models.DeviceListResponse, error) {
		devices, err := s.options.Devices.Refresh(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		_, refreshedAt := s.options.Devices.Devices()
		return deviceListResponse(devices, refreshedAt), nil
	})
}

func deviceListResponse(devices []alsa.Device, refreshedAt time.Time) *models.DeviceListResponse {
	data := make([]models.DeviceData, len(devices))
	for i, d := range devices {
		data[i] = models.DeviceFromDomain(d)
	}
	return &models.DeviceListResponse{
		Body: models.DeviceListData{
			Devices:     data,
			Count:       len(data),
			RefreshedAt: refreshedAt,
		},
	}
}
