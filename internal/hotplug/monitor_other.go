//go:build !linux

package hotplug

import (
	"context"
	"errors"
)

// Monitor is unavailable outside Linux.
type Monitor struct{}

// Open always fails: uevents are Linux-only.
func Open() (*Monitor, error) {
	return nil, errors.ErrUnsupported
}

// Run implements Source.
func (m *Monitor) Run(_ context.Context, out chan<- UEvent) error {
	close(out)
	return errors.ErrUnsupported
}

// Close implements io.Closer.
func (m *Monitor) Close() error {
	return nil
}
