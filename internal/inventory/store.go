// Package inventory holds the most recent device discovery result.
package inventory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/smazurov/jackbridge/internal/alsa"
	"github.com/smazurov/jackbridge/internal/events"
	"github.com/smazurov/jackbridge/internal/logging"
)

// Lister enumerates devices.
type Lister interface {
	ListDevices(ctx context.Context) ([]alsa.Device, error)
}

// EventPublisher interface for publishing events.
type EventPublisher interface {
	Publish(ev events.Event)
}

// Store caches the device list between explicit refreshes. The list is
// replaced wholesale on each refresh and never edited in place.
type Store struct {
	lister   Lister
	eventBus EventPublisher
	logger   logging.Logger

	// refreshMu serializes discovery runs so probes never overlap.
	refreshMu sync.Mutex

	mu          sync.RWMutex
	devices     []alsa.Device
	refreshedAt time.Time
}

// New creates an empty store. eventBus may be nil.
func New(lister Lister, eventBus EventPublisher) *Store {
	return &Store{
		lister:   lister,
		eventBus: eventBus,
		logger:   logging.GetLogger("inventory"),
	}
}

// Devices returns a copy of the cached list and when it was taken.
// The zero time means Refresh has never succeeded.
func (s *Store) Devices() ([]alsa.Device, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.devices), s.refreshedAt
}

// Refresh runs discovery and replaces the cached list. On error the
// previous list is kept.
func (s *Store) Refresh(ctx context.Context) ([]alsa.Device, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	devices, err := s.lister.ListDevices(ctx)
	if err != nil {
		s.logger.Warn("Device refresh failed", "error", err)
		return nil, err
	}

	now := time.Now()
	s.mu.Lock()
	s.devices = devices
	s.refreshedAt = now
	s.mu.Unlock()

	names := make([]string, len(devices))
	for i, d := range devices {
		names[i] = d.CardName
	}
	s.logger.Info("Devices refreshed", "count", len(devices))

	if s.eventBus != nil {
		s.eventBus.Publish(events.DevicesRefreshedEvent{
			Count:     len(devices),
			Devices:   names,
			Timestamp: now.Format(time.RFC3339),
		})
	}

	return slices.Clone(devices), nil
}

// Find returns the device for a card name. A card with several PCM
// devices resolves to the one with the most directions, then the first
// listed, since bridges address the whole card.
func (s *Store) Find(cardName string) (alsa.Device, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		best  alsa.Device
		score = -1
	)
	for _, d := range s.devices {
		if d.CardName != cardName {
			continue
		}
		if sc := directions(d); sc > score {
			best, score = d, sc
		}
	}
	return best, score >= 0
}

func directions(d alsa.Device) int {
	n := 0
	if d.HasCapture() {
		n++
	}
	if d.HasPlayback() {
		n++
	}
	return n
}
