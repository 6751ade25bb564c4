// Package systemd controls the unit that runs the JACK server over D-Bus.
package systemd

import (
	"context"
	"fmt"
	"strings"

	"github.com/coreos/go-systemd/v22/dbus"
	"github.com/smazurov/jackbridge/internal/logging"
)

// Bus selects which systemd instance to talk to.
type Bus string

const (
	// UserBus is the per-user manager, where jackdbus usually runs.
	UserBus Bus = "user"
	// SystemBus is the system manager.
	SystemBus Bus = "system"
)

// Manager handles systemd unit lifecycle operations.
type Manager struct {
	conn   *dbus.Conn
	logger logging.Logger
}

// NewManager connects to the given bus.
func NewManager(ctx context.Context, bus Bus) (*Manager, error) {
	var (
		conn *dbus.Conn
		err  error
	)
	switch bus {
	case SystemBus:
		conn, err = dbus.NewSystemConnectionContext(ctx)
	case UserBus, "":
		conn, err = dbus.NewUserConnectionContext(ctx)
	default:
		return nil, fmt.Errorf("unknown systemd bus %q", bus)
	}
	if err != nil {
		return nil, fmt.Errorf("connect to %s systemd bus: %w", bus, err)
	}
	return &Manager{conn: conn, logger: logging.GetLogger("systemd")}, nil
}

// GetServiceStatus returns the unit's ActiveState, e.g. "active" or "failed".
func (m *Manager) GetServiceStatus(ctx context.Context, unit string) (string, error) {
	prop, err := m.conn.GetUnitPropertyContext(ctx, unit, "ActiveState")
	if err != nil {
		return "", err
	}
	// Variant strings are quoted.
	return strings.Trim(prop.Value.String(), `"`), nil
}

// StartService queues a start job in replace mode.
func (m *Manager) StartService(ctx context.Context, unit string) error {
	return m.job(ctx, "start", unit, m.conn.StartUnitContext)
}

// StopService queues a stop job in replace mode.
func (m *Manager) StopService(ctx context.Context, unit string) error {
	return m.job(ctx, "stop", unit, m.conn.StopUnitContext)
}

// RestartService queues a restart job in replace mode.
func (m *Manager) RestartService(ctx context.Context, unit string) error {
	return m.job(ctx, "restart", unit, m.conn.RestartUnitContext)
}

type jobFunc func(ctx context.Context, name, mode string, ch chan<- string) (int, error)

func (m *Manager) job(ctx context.Context, action, unit string, fn jobFunc) error {
	id, err := fn(ctx, unit, "replace", nil)
	if err != nil {
		return fmt.Errorf("%s %s: %w", action, unit, err)
	}
	m.logger.Info("Queued systemd job", "action", action, "unit", unit, "job", id)
	return nil
}

// Close releases the D-Bus connection.
func (m *Manager) Close() {
	if m.conn != nil {
		m.conn.Close()
	}
}
