// Package api serves the bridge control HTTP API with huma.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/smazurov/jackbridge/internal/alsa"
	"github.com/smazurov/jackbridge/internal/api/models"
	"github.com/smazurov/jackbridge/internal/events"
	"github.com/smazurov/jackbridge/internal/jack"
	"github.com/smazurov/jackbridge/internal/logging"
	"github.com/smazurov/jackbridge/internal/version"
)

// DeviceInventory is the cached ALSA device list.
type DeviceInventory interface {
	Devices() ([]alsa.Device, time.Time)
	Refresh(ctx context.Context) ([]alsa.Device, error)
	Find(cardName string) (alsa.Device, bool)
}

// BridgeController launches and unloads device bridges.
type BridgeController interface {
	Connect(ctx context.Context, device alsa.Device, opts jack.ConnectOptions) (jack.LaunchResult, error)
	Disconnect(ctx context.Context, device string) error
}

// GraphReader reads the current bridge graph.
type GraphReader interface {
	ReadGraph(ctx context.Context) (*jack.Graph, error)
}

// GraphSnapshotter reports the graph monitor's last poll.
type GraphSnapshotter interface {
	Snapshot() (*jack.Graph, time.Time, error)
}

// ServerController starts and stops the JACK server.
type ServerController interface {
	Status(ctx context.Context) (jack.ServerStatus, error)
	Start(ctx context.Context, cfg jack.ServerConfig) error
	Stop(ctx context.Context) error
}

// PortPatcher lists, connects and disconnects JACK ports.
type PortPatcher interface {
	Ports(ctx context.Context) ([]jack.Port, error)
	Connect(ctx context.Context, source, destination string) error
	Disconnect(ctx context.Context, source, destination string) error
}

// ServiceController manages a systemd unit.
type ServiceController interface {
	GetServiceStatus(ctx context.Context, unit string) (string, error)
	StartService(ctx context.Context, unit string) error
	StopService(ctx context.Context, unit string) error
	RestartService(ctx context.Context, unit string) error
}

// Options wires the server to its collaborators. Optional ones left nil
// leave their routes unregistered.
type Options struct {
	CORSOrigins []string

	Devices DeviceInventory
	Bridges BridgeController
	Graph   GraphReader
	Monitor GraphSnapshotter // optional

	JackServer         ServerController // optional
	JackServerDefaults jack.ServerConfig
	Patchbay           PortPatcher       // optional
	Systemd            ServiceController // optional
	JackServiceName    string

	EventBus          *events.Bus
	PrometheusHandler http.Handler // optional
}

// Server is the HTTP API server.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	httpServer *http.Server
	options    *Options
	eventBus   *events.Bus
	logger     *slog.Logger
}

// NewServer creates the API and registers every route.
func NewServer(opts *Options) *Server {
	mux := http.NewServeMux()

	corsConfig := DefaultCORSConfig()
	if len(opts.CORSOrigins) > 0 {
		corsConfig.AllowOrigins = opts.CORSOrigins
	}
	AddCORSHandler(mux, corsConfig)

	config := huma.DefaultConfig("jackbridge API", version.Version)
	config.Info.Description = "Bridge ALSA sound devices into a JACK server"
	config.Servers = []*huma.Server{}

	api := humago.New(mux, config)

	eventBus := opts.EventBus
	if eventBus == nil {
		eventBus = events.New()
	}

	server := &Server{
		api:      api,
		mux:      mux,
		options:  opts,
		eventBus: eventBus,
		logger:   logging.GetLogger("api"),
	}

	api.UseMiddleware(NewCORSMiddleware(corsConfig))
	api.UseMiddleware(HTTPLoggingMiddleware)

	if opts.PrometheusHandler != nil {
		mux.Handle("GET /metrics", opts.PrometheusHandler)
	}

	server.registerRoutes()
	return server
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start listens on addr until Stop is called. It returns nil after a clean stop.
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting API server", "addr", addr)
	s.logger.Info("OpenAPI documentation available", "url", "http://"+addr+"/docs")

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop shuts the server down. SSE streams are closed rather than drained.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("Stopping API server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return s.httpServer.Close()
	}
	return nil
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Description: "Check API health status",
		Tags:        []string{"health"},
	}, func(_ context.Context, _ *struct{}) (*models.HealthResponse, error) {
		return &models.HealthResponse{
			Body: models.HealthData{
				Status:  "ok",
				Message: "API is healthy",
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Version",
		Description: "Get application version information",
		Tags:        []string{"system"},
	}, func(_ context.Context, _ *struct{}) (*models.VersionResponse, error) {
		info := version.Get()
		return &models.VersionResponse{
			Body: models.VersionData{
				Version:   info.Version,
				GitCommit: info.GitCommit,
				BuildDate: info.BuildDate,
				Modified:  info.Modified,
				GoVersion: info.GoVersion,
				Platform:  info.Platform,
			},
		}, nil
	})

	s.registerDeviceRoutes()
	s.registerBridgeRoutes()
	s.registerJackServerRoutes()
	s.registerPatchRoutes()
	s.registerSystemdRoutes()
	s.registerSSERoutes()
}
