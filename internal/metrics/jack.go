package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jackBridgedDevices = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "jackbridge",
		Subsystem: "jack",
		Name:      "bridged_devices",
		Help:      "Devices currently visible as bridges in the JACK graph",
	})

	jackDeviceEdges = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "jackbridge",
		Subsystem: "jack",
		Name:      "device_connections",
		Help:      "Port connections from a bridged device",
	}, []string{"device"})

	jackGraphQueryFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "jackbridge",
		Subsystem: "jack",
		Name:      "graph_query_failures_total",
		Help:      "Failed connection graph queries",
	})

	jackBridgeLaunches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jackbridge",
		Subsystem: "jack",
		Name:      "bridge_launches_total",
		Help:      "Bridge launch requests by direction and result",
	}, []string{"direction", "result"})

	jackBridgeTeardowns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jackbridge",
		Subsystem: "jack",
		Name:      "bridge_teardowns_total",
		Help:      "Bridge teardown requests by result",
	}, []string{"result"})

	jackServerRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "jackbridge",
		Subsystem: "jack",
		Name:      "server_running",
		Help:      "1 when jack_control reports the server started",
	})

	// Local cache for SSE exporter access.
	bridgeCache   = make(map[string]*BridgeMetrics)
	bridgeCacheMu sync.RWMutex
)

// BridgeMetrics holds current metric values for a bridged device.
type BridgeMetrics struct {
	Connections int
}

// SetJackBridgedDevices sets the number of bridged devices.
func SetJackBridgedDevices(count int) {
	jackBridgedDevices.Set(float64(count))
}

// SetJackDeviceConnections sets the connection count for a bridged device.
func SetJackDeviceConnections(device string, count int) {
	jackDeviceEdges.WithLabelValues(device).Set(float64(count))

	bridgeCacheMu.Lock()
	defer bridgeCacheMu.Unlock()
	m, ok := bridgeCache[device]
	if !ok {
		m = &BridgeMetrics{}
		bridgeCache[device] = m
	}
	m.Connections = count
}

// DeleteJackDeviceMetrics removes all metrics for a device that left the graph.
func DeleteJackDeviceMetrics(device string) {
	jackDeviceEdges.DeleteLabelValues(device)

	bridgeCacheMu.Lock()
	delete(bridgeCache, device)
	bridgeCacheMu.Unlock()
}

// GetAllBridgeMetrics returns metrics for all bridged devices.
func GetAllBridgeMetrics() map[string]*BridgeMetrics {
	bridgeCacheMu.RLock()
	defer bridgeCacheMu.RUnlock()
	result := make(map[string]*BridgeMetrics, len(bridgeCache))
	for name, m := range bridgeCache {
		dup := *m
		result[name] = &dup
	}
	return result
}

// IncJackGraphQueryFailure counts a failed graph query.
func IncJackGraphQueryFailure() {
	jackGraphQueryFailures.Inc()
}

// IncJackBridgeLaunch counts a bridge launch request.
func IncJackBridgeLaunch(direction, result string) {
	jackBridgeLaunches.WithLabelValues(direction, result).Inc()
}

// IncJackBridgeTeardown counts a bridge teardown request.
func IncJackBridgeTeardown(result string) {
	jackBridgeTeardowns.WithLabelValues(result).Inc()
}

// SetJackServerRunning records whether the JACK server is up.
func SetJackServerRunning(running bool) {
	if running {
		jackServerRunning.Set(1)
		return
	}
	jackServerRunning.Set(0)
}
