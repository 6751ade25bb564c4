// Package collectors samples host state into the metrics registry.
package collectors

import (
	"bufio"
	"context"
	"io"
	"os"
	"regexp"
	"time"

	"github.com/smazurov/jackbridge/internal/logging"
	"github.com/smazurov/jackbridge/internal/metrics"
)

// DefaultCardsPath is where the kernel lists registered sound cards.
const DefaultCardsPath = "/proc/asound/cards"

// CardCollector publishes the kernel's sound card list as card_info series.
type CardCollector struct {
	logger   logging.Logger
	path     string
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewCardCollector creates a collector reading DefaultCardsPath.
func NewCardCollector(interval time.Duration) *CardCollector {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &CardCollector{
		logger:   logging.GetLogger("alsa"),
		path:     DefaultCardsPath,
		interval: interval,
	}
}

// Start begins sampling until ctx is done or Stop is called.
func (c *CardCollector) Start(ctx context.Context) error {
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})
	go c.run()
	return nil
}

// Stop ends sampling and waits for the loop to exit.
func (c *CardCollector) Stop() error {
	if c.cancel == nil {
		return nil
	}
	c.cancel()
	<-c.done
	return nil
}

func (c *CardCollector) run() {
	defer close(c.done)
	c.logger.Debug("Starting sound card collection", "path", c.path, "interval", c.interval)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.Collect()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.Collect()
		}
	}
}

// Collect samples the card list once. A missing file means no cards.
func (c *CardCollector) Collect() {
	file, err := os.Open(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Warn("Failed to open sound card list", "path", c.path, "error", err)
		}
		metrics.SetALSACards(nil)
		return
	}
	defer file.Close()

	cards, err := parseCards(file)
	if err != nil {
		c.logger.Warn("Failed to parse sound card list", "error", err)
		return
	}
	metrics.SetALSACards(cards)
}

// " 1 [Device         ]: USB-Audio - USB Audio Device"
var cardLineRe = regexp.MustCompile(`^\s*(\d+)\s+\[\s*(\S+)\s*\]:\s+(\S+)\s+-\s`)

// parseCards reads the header line of each card; continuation lines are skipped.
func parseCards(r io.Reader) ([]metrics.ALSACard, error) {
	var cards []metrics.ALSACard
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		m := cardLineRe.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		cards = append(cards, metrics.ALSACard{Index: m[1], ID: m[2], Driver: m[3]})
	}
	return cards, scanner.Err()
}
