package models

import (
	"time"

	"github.com/smazurov/jackbridge/internal/alsa"
)

// DeviceData is one ALSA card/device with its probed parameters. Parameter
// values are a number, a {"min","max"} object, or a string.
type DeviceData struct {
	Card           string         `json:"card" example:"1" doc:"ALSA card index"`
	CardName       string         `json:"cardName" example:"USB" doc:"Card short name, used in bridge names"`
	CardLongName   string         `json:"cardLongName" example:"USB Audio Device" doc:"Card long name"`
	Device         string         `json:"device" example:"0" doc:"Device index on the card"`
	Description    string         `json:"description" example:"USB Audio" doc:"Device description"`
	PlaybackParams map[string]any `json:"playbackParams,omitempty" doc:"Playback hw params; absent when the device cannot play"`
	CaptureParams  map[string]any `json:"captureParams,omitempty" doc:"Capture hw params; absent when the device cannot record"`
	PlaybackProbe  string         `json:"playbackProbe" example:"ok" enum:"ok,failed,timeout,empty" doc:"Outcome of the playback probe"`
	CaptureProbe   string         `json:"captureProbe" example:"ok" enum:"ok,failed,timeout,empty" doc:"Outcome of the capture probe"`
}

type DeviceListData struct {
	Devices     []DeviceData `json:"devices" doc:"Devices in listing order"`
	Count       int          `json:"count" example:"2" doc:"Number of devices"`
	RefreshedAt time.Time    `json:"refreshedAt" doc:"When the inventory was last rebuilt"`
}

type DeviceListResponse struct {
	Body DeviceListData
}

// DeviceFromDomain converts a discovered device to its API shape.
func DeviceFromDomain(d alsa.Device) DeviceData {
	return DeviceData{
		Card:           d.Card,
		CardName:       d.CardName,
		CardLongName:   d.CardLongName,
		Device:         d.Device,
		Description:    d.Description,
		PlaybackParams: paramsToAny(d.PlaybackParams),
		CaptureParams:  paramsToAny(d.CaptureParams),
		PlaybackProbe:  d.PlaybackProbe,
		CaptureProbe:   d.CaptureProbe,
	}
}

func paramsToAny(p alsa.DeviceParams) map[string]any {
	if p == nil {
		return nil
	}
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = v.Any()
	}
	return out
}
