// Package metrics provides Prometheus metrics for ALSA discovery and the JACK graph.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	alsaProbes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jackbridge",
		Subsystem: "alsa",
		Name:      "probes_total",
		Help:      "Hardware parameter probes by direction and outcome",
	}, []string{"direction", "status"})

	alsaDevicesDiscovered = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "jackbridge",
		Subsystem: "alsa",
		Name:      "devices_discovered",
		Help:      "Devices found by the last discovery run",
	})

	alsaDiscoveryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "jackbridge",
		Subsystem: "alsa",
		Name:      "discovery_duration_seconds",
		Help:      "Time spent listing and probing devices",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	alsaCardsPresent = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "jackbridge",
		Subsystem: "alsa",
		Name:      "cards_present",
		Help:      "Sound cards registered with the kernel",
	})

	alsaCardInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "jackbridge",
		Subsystem: "alsa",
		Name:      "card_info",
		Help:      "Constant 1 per sound card, labelled with its identity",
	}, []string{"card", "id", "driver"})

	alsaHotplugEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jackbridge",
		Subsystem: "alsa",
		Name:      "hotplug_events_total",
		Help:      "Sound card uevents seen, by action",
	}, []string{"action"})
)

// IncALSAProbe counts one probe outcome.
func IncALSAProbe(direction, status string) {
	alsaProbes.WithLabelValues(direction, status).Inc()
}

// SetALSADevicesDiscovered records the device count of the last discovery.
func SetALSADevicesDiscovered(count int) {
	alsaDevicesDiscovered.Set(float64(count))
}

// ObserveALSADiscovery records how long a discovery run took.
func ObserveALSADiscovery(d time.Duration) {
	alsaDiscoveryDuration.Observe(d.Seconds())
}

// SetALSACards replaces the card info series with the given cards.
func SetALSACards(cards []ALSACard) {
	alsaCardInfo.Reset()
	for _, c := range cards {
		alsaCardInfo.WithLabelValues(c.Index, c.ID, c.Driver).Set(1)
	}
	alsaCardsPresent.Set(float64(len(cards)))
}

// IncALSAHotplug counts one sound card uevent.
func IncALSAHotplug(action string) {
	alsaHotplugEvents.WithLabelValues(action).Inc()
}

// ALSACard identifies a sound card for the card_info series.
type ALSACard struct {
	Index  string
	ID     string
	Driver string
}
