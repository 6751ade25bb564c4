package models

import (
	"time"

	"github.com/smazurov/jackbridge/internal/jack"
)

// Connect models
type ConnectRequestData struct {
	CardName string `json:"cardName" minLength:"1" example:"USB" doc:"Card short name from the device list"`
	Rate     int    `json:"rate,omitempty" minimum:"0" example:"48000" doc:"Sample rate; defaults to the device rate"`
	Periods  int    `json:"periods,omitempty" minimum:"0" example:"128" doc:"Frames per period"`
	NPeriods int    `json:"nperiods,omitempty" minimum:"0" example:"2" doc:"Periods per buffer"`
}

type ConnectRequest struct {
	Body ConnectRequestData
}

type ConnectData struct {
	Device   string   `json:"device" example:"USB" doc:"Card name"`
	Clients  []string `json:"clients" doc:"JACK clients requested"`
	Rate     int      `json:"rate" example:"48000" doc:"Sample rate used"`
	Periods  int      `json:"periods" example:"128" doc:"Frames per period used"`
	NPeriods int      `json:"nperiods" example:"2" doc:"Periods per buffer used"`
	Message  string   `json:"message" doc:"Human-readable result"`
}

type ConnectResponse struct {
	Body ConnectData
}

// Disconnect models
type DisconnectRequestData struct {
	DeviceName string `json:"deviceName" minLength:"1" example:"USB" doc:"Card name whose bridges to unload"`
}

type DisconnectRequest struct {
	Body DisconnectRequestData
}

type DisconnectResponse struct {
	Body MessageData
}

// Connection graph models
type ConnectionData struct {
	Src  string `json:"src" example:"USB" doc:"Bridged card name"`
	Dest string `json:"dest" example:"system:playback_1" doc:"Port the bridge is connected to"`
}

type ConnectionsData struct {
	AlsaDevices []string         `json:"alsaDevices" doc:"Bridged card names"`
	Connections []ConnectionData `json:"connections" doc:"Connections of the bridged devices"`
}

type ConnectionsResponse struct {
	Body ConnectionsData
}

// ConnectionsFromGraph converts a non-nil graph to its API shape.
func ConnectionsFromGraph(g *jack.Graph) ConnectionsData {
	data := ConnectionsData{
		AlsaDevices: append([]string{}, g.BridgedDevices...),
		Connections: make([]ConnectionData, 0, len(g.Edges)),
	}
	for _, e := range g.Edges {
		data.Connections = append(data.Connections, ConnectionData{Src: e.Device, Dest: e.Port})
	}
	return data
}

// Graph monitor models
type MonitorData struct {
	ConnectionsData
	LastPoll *time.Time `json:"lastPoll,omitempty" doc:"When the graph was last polled; absent before the first poll"`
	Error    string     `json:"error,omitempty" doc:"Why the last poll failed; the graph is then the last good one"`
}

type MonitorResponse struct {
	Body MonitorData
}

// MonitorFromSnapshot converts the monitor's last poll to its API shape.
// A nil graph gives empty lists.
func MonitorFromSnapshot(g *jack.Graph, polledAt time.Time, pollErr error) MonitorData {
	data := MonitorData{
		ConnectionsData: ConnectionsData{AlsaDevices: []string{}, Connections: []ConnectionData{}},
	}
	if g != nil {
		data.ConnectionsData = ConnectionsFromGraph(g)
	}
	if !polledAt.IsZero() {
		data.LastPoll = &polledAt
	}
	if pollErr != nil {
		data.Error = pollErr.Error()
	}
	return data
}

// JACK server models
type ServerStatusData struct {
	Running bool   `json:"running" example:"true" doc:"Whether the JACK server is started"`
	Output  string `json:"output,omitempty" doc:"Raw jack_control status output"`
}

type ServerStatusResponse struct {
	Body ServerStatusData
}

type ServerStartRequestData struct {
	Driver string `json:"driver,omitempty" example:"alsa" doc:"JACK backend driver; defaults to the configured one"`
	Rate   int    `json:"rate,omitempty" minimum:"0" example:"48000" doc:"Server sample rate"`
	Period int    `json:"period,omitempty" minimum:"0" example:"128" doc:"Server period size"`
}

type ServerStartRequest struct {
	Body ServerStartRequestData `required:"false"`
}

// Patch models
type PatchRequestData struct {
	Source      string `json:"source" minLength:"1" example:"alsa_USB_src:capture_1" doc:"Output port"`
	Destination string `json:"destination" minLength:"1" example:"system:playback_1" doc:"Input port"`
}

type PatchRequest struct {
	Body PatchRequestData
}

type PatchResponse struct {
	Body MessageData
}

// Port listing models
type PortData struct {
	Name      string `json:"name" example:"system:playback_1" doc:"Full port name"`
	Client    string `json:"client" example:"system" doc:"Owning JACK client"`
	Direction string `json:"direction,omitempty" enum:"input,output" doc:"Port direction"`
	Physical  bool   `json:"physical" doc:"Whether the port is a hardware port"`
}

type PortsData struct {
	Ports []PortData `json:"ports" doc:"Ports known to the JACK server"`
	Count int        `json:"count" doc:"Number of ports"`
}

type PortsResponse struct {
	Body PortsData
}

// PortsFromDomain converts listed ports to their API shape.
func PortsFromDomain(ports []jack.Port) PortsData {
	data := PortsData{Ports: make([]PortData, len(ports)), Count: len(ports)}
	for i, p := range ports {
		data.Ports[i] = PortData(p)
	}
	return data
}
