package jack

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/smazurov/jackbridge/internal/logging"
	"github.com/smazurov/jackbridge/internal/metrics"
	"github.com/smazurov/jackbridge/internal/process"
)

// ServerConfig selects the driver and timing used when starting JACK.
type ServerConfig struct {
	Driver string
	Rate   int
	Period int
}

// DefaultServerConfig returns a dummy-driver setup that needs no hardware.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Driver: "dummy",
		Rate:   96000,
		Period: 128,
	}
}

// ServerStatus is the state reported by jack_control.
type ServerStatus struct {
	Running bool   `json:"running"`
	Output  string `json:"output,omitempty"`
}

// Server controls jackdbus through jack_control.
type Server struct {
	runner process.Runner
	logger logging.Logger
}

// NewServer creates a jack_control wrapper.
func NewServer(runner process.Runner) *Server {
	return &Server{
		runner: runner,
		logger: logging.GetLogger("jackd"),
	}
}

// Status asks jack_control whether the server is started.
func (s *Server) Status(ctx context.Context) (ServerStatus, error) {
	out, err := s.runner.CombinedOutput(ctx, "jack_control", "status")
	text := strings.TrimSpace(string(out))

	switch {
	case process.IsNotFound(err):
		return ServerStatus{}, NewError(ErrCodeServerControlFailed, "jack_control is not installed", err)
	case strings.Contains(text, "started"):
		metrics.SetJackServerRunning(true)
		return ServerStatus{Running: true, Output: text}, nil
	case strings.Contains(text, "stopped"):
		metrics.SetJackServerRunning(false)
		return ServerStatus{Running: false, Output: text}, nil
	case err != nil:
		return ServerStatus{}, NewError(ErrCodeServerControlFailed, "failed to query server status", outputErr(out, err))
	default:
		metrics.SetJackServerRunning(false)
		return ServerStatus{Running: false, Output: text}, nil
	}
}

// Start configures the driver and starts the server.
func (s *Server) Start(ctx context.Context, cfg ServerConfig) error {
	def := DefaultServerConfig()
	if cfg.Driver == "" {
		cfg.Driver = def.Driver
	}
	if cfg.Rate <= 0 {
		cfg.Rate = def.Rate
	}
	if cfg.Period <= 0 {
		cfg.Period = def.Period
	}

	steps := [][]string{
		{"ds", cfg.Driver},
		{"dps", "rate", strconv.Itoa(cfg.Rate)},
		{"dps", "period", strconv.Itoa(cfg.Period)},
		{"start"},
	}
	for _, args := range steps {
		if err := s.control(ctx, args...); err != nil {
			return err
		}
	}

	metrics.SetJackServerRunning(true)
	s.logger.Info("JACK server started", "driver", cfg.Driver, "rate", cfg.Rate, "period", cfg.Period)
	return nil
}

// Stop stops the server; jackdbus itself keeps running.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.control(ctx, "stop"); err != nil {
		return err
	}
	metrics.SetJackServerRunning(false)
	s.logger.Info("JACK server stopped")
	return nil
}

// Exit stops the server and terminates jackdbus.
func (s *Server) Exit(ctx context.Context) error {
	if err := s.Stop(ctx); err != nil {
		s.logger.Warn("Stop before exit failed", "error", err)
	}
	return s.control(ctx, "exit")
}

func (s *Server) control(ctx context.Context, args ...string) error {
	out, err := s.runner.CombinedOutput(ctx, "jack_control", args...)
	if err != nil {
		return NewError(ErrCodeServerControlFailed,
			fmt.Sprintf("jack_control %s failed", strings.Join(args, " ")), outputErr(out, err))
	}
	return nil
}

// outputErr attaches the tool's own message to a command error.
func outputErr(out []byte, err error) error {
	msg := strings.TrimSpace(string(out))
	if msg == "" {
		return err
	}
	return fmt.Errorf("%s: %w", msg, err)
}
