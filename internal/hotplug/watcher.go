package hotplug

import (
	"context"
	"errors"
	"time"

	"github.com/smazurov/jackbridge/internal/alsa"
	"github.com/smazurov/jackbridge/internal/logging"
	"github.com/smazurov/jackbridge/internal/metrics"
)

// DefaultSettle is how long the watcher waits after the last card event
// before refreshing. Plugging in a USB interface produces a burst of events.
const DefaultSettle = 1500 * time.Millisecond

// Source produces uevents until ctx is done, then closes out.
type Source interface {
	Run(ctx context.Context, out chan<- UEvent) error
}

// Refresher rebuilds the device inventory.
type Refresher interface {
	Refresh(ctx context.Context) ([]alsa.Device, error)
}

// Watcher refreshes the inventory after sound cards come or go.
type Watcher struct {
	source    Source
	refresher Refresher
	settle    time.Duration
	logger    logging.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewWatcher creates a watcher. A non-positive settle means DefaultSettle.
func NewWatcher(source Source, refresher Refresher, settle time.Duration) *Watcher {
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &Watcher{
		source:    source,
		refresher: refresher,
		settle:    settle,
		logger:    logging.GetLogger("hotplug"),
	}
}

// Start begins watching until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	go w.run(ctx)
}

// Stop stops watching and waits for the source to shut down.
func (w *Watcher) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	events := make(chan UEvent, 16)
	go func() {
		if err := w.source.Run(ctx, events); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Warn("Uevent monitor stopped", "error", err)
		}
	}()

	var (
		timer  *time.Timer
		settle <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			card, isCard := ev.Card()
			if !isCard || (ev.Action != ActionAdd && ev.Action != ActionRemove) {
				continue
			}

			metrics.IncALSAHotplug(ev.Action)
			w.logger.Info("Sound card event", "action", ev.Action, "card", card)

			if timer == nil {
				timer = time.NewTimer(w.settle)
			} else {
				timer.Reset(w.settle)
			}
			settle = timer.C

		case <-settle:
			settle = nil
			if _, err := w.refresher.Refresh(ctx); err != nil {
				w.logger.Warn("Refresh after hotplug failed", "error", err)
			}

		case <-ctx.Done():
			// The source closes events once it has seen the cancellation.
			for range events {
			}
			return
		}
	}
}
