package events

// Event type constants for kelindar/event.
const (
	TypeDevicesRefreshed uint32 = iota + 1
	TypeBridgeRequested
	TypeBridgeRemoved
	TypeBridgeStateChanged
	TypeGraphUpdated
	TypeJackServerState
	TypeBridgeMetrics
)

// Bridge states reported by BridgeStateChangedEvent.
const (
	StateBridged      = "bridged"
	StateDisconnected = "disconnected"
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// DevicesRefreshedEvent is published after the device inventory is rebuilt.
type DevicesRefreshedEvent struct {
	Count     int      `json:"count" example:"2" doc:"Number of devices found"`
	Devices   []string `json:"devices" doc:"Card names in listing order"`
	Timestamp string   `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Refresh timestamp"`
}

// Type returns the event type identifier for DevicesRefreshedEvent.
func (e DevicesRefreshedEvent) Type() uint32 { return TypeDevicesRefreshed }

// BridgeRequestedEvent is published when bridge launches were requested for a device.
// The bridge is not confirmed until a BridgeStateChangedEvent follows.
type BridgeRequestedEvent struct {
	Device    string   `json:"device" example:"USB" doc:"Card name"`
	Clients   []string `json:"clients" doc:"JACK client names requested"`
	Rate      int      `json:"rate" example:"48000" doc:"Sample rate"`
	Periods   int      `json:"periods" example:"128" doc:"Frames per period"`
	NPeriods  int      `json:"nperiods" example:"2" doc:"Periods per buffer"`
	Timestamp string   `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Request timestamp"`
}

// Type returns the event type identifier for BridgeRequestedEvent.
func (e BridgeRequestedEvent) Type() uint32 { return TypeBridgeRequested }

// BridgeRemovedEvent is published after a device's bridges were unloaded.
type BridgeRemovedEvent struct {
	Device    string `json:"device" example:"USB" doc:"Card name"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Removal timestamp"`
}

// Type returns the event type identifier for BridgeRemovedEvent.
func (e BridgeRemovedEvent) Type() uint32 { return TypeBridgeRemoved }

// BridgeStateChangedEvent is published when a device appears in or leaves the JACK graph.
type BridgeStateChangedEvent struct {
	Device    string `json:"device" example:"USB" doc:"Card name"`
	State     string `json:"state" example:"bridged" doc:"bridged or disconnected"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Observation timestamp"`
}

// Type returns the event type identifier for BridgeStateChangedEvent.
func (e BridgeStateChangedEvent) Type() uint32 { return TypeBridgeStateChanged }

// GraphUpdatedEvent is published when the polled graph differs from the previous poll.
type GraphUpdatedEvent struct {
	BridgedDevices []string `json:"bridged_devices" doc:"Bridged card names"`
	Connections    int      `json:"connections" example:"4" doc:"Total bridge connections"`
	Timestamp      string   `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Observation timestamp"`
}

// Type returns the event type identifier for GraphUpdatedEvent.
func (e GraphUpdatedEvent) Type() uint32 { return TypeGraphUpdated }

// JackServerStateEvent is published when the JACK server is started or stopped through the API.
type JackServerStateEvent struct {
	Running   bool   `json:"running" example:"true" doc:"Whether the server is started"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for JackServerStateEvent.
func (e JackServerStateEvent) Type() uint32 { return TypeJackServerState }

// BridgeMetricsEvent carries periodic per-device connection metrics.
type BridgeMetricsEvent struct {
	EventType   string `json:"type"`
	Device      string `json:"device"`
	Connections string `json:"connections"`
}

// Type returns the event type identifier for BridgeMetricsEvent.
func (e BridgeMetricsEvent) Type() uint32 { return TypeBridgeMetrics }
