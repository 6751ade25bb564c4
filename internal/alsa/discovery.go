// Package alsa enumerates ALSA sound devices and probes their hardware parameters.
package alsa

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/smazurov/jackbridge/internal/logging"
	"github.com/smazurov/jackbridge/internal/metrics"
	"github.com/smazurov/jackbridge/internal/process"
)

// DefaultProbeTimeout bounds each hw-params probe.
const DefaultProbeTimeout = time.Second

// Probe outcomes recorded on a Device per direction.
const (
	ProbeOK      = "ok"
	ProbeFailed  = "failed"
	ProbeTimeout = "timeout"
	ProbeEmpty   = "empty"
)

// Probe directions.
const (
	DirectionPlayback = "playback"
	DirectionCapture  = "capture"
)

// Device is one ALSA card/device pair with its probed capabilities.
// A nil params map means that direction is not available.
type Device struct {
	Card           string       `json:"card"`
	CardName       string       `json:"cardName"`
	CardLongName   string       `json:"cardLongName"`
	Device         string       `json:"device"`
	Description    string       `json:"description"`
	PlaybackParams DeviceParams `json:"playbackParams,omitempty"`
	CaptureParams  DeviceParams `json:"captureParams,omitempty"`
	PlaybackProbe  string       `json:"playbackProbe"`
	CaptureProbe   string       `json:"captureProbe"`
}

// HasPlayback reports whether the device can play audio.
func (d Device) HasPlayback() bool {
	return d.PlaybackParams != nil
}

// HasCapture reports whether the device can record audio.
func (d Device) HasCapture() bool {
	return d.CaptureParams != nil
}

// Options configures a Discoverer.
type Options struct {
	// ProbeTimeout bounds each probe; zero means DefaultProbeTimeout.
	ProbeTimeout time.Duration
}

// Discoverer lists devices through the aplay/arecord tools.
type Discoverer struct {
	runner       process.Runner
	probeTimeout time.Duration
	logger       logging.Logger
}

// NewDiscoverer creates a Discoverer that runs commands through runner.
func NewDiscoverer(runner process.Runner, opts Options) *Discoverer {
	timeout := opts.ProbeTimeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &Discoverer{
		runner:       runner,
		probeTimeout: timeout,
		logger:       logging.GetLogger("alsa"),
	}
}

// ListDevices lists every playback card/device and probes both directions.
// Only a listing failure is returned as an error; probe failures leave the
// corresponding params nil and are recorded in the probe status.
func (d *Discoverer) ListDevices(ctx context.Context) ([]Device, error) {
	start := time.Now()

	out, err := d.runner.CombinedOutput(ctx, "aplay", "-l")
	if err != nil {
		if process.IsExit(err) && noCardsFound(out) {
			d.logger.Info("No sound cards found")
			metrics.SetALSADevicesDiscovered(0)
			return []Device{}, nil
		}
		return nil, NewError(ErrCodeListFailed, "failed to list sound cards", listErr(err, out))
	}

	entries, err := ParseListing(bytes.NewReader(out))
	if err != nil {
		return nil, NewError(ErrCodeListFailed, "failed to read card listing", err)
	}

	devices := make([]Device, 0, len(entries))
	for _, entry := range entries {
		// Probes stay sequential: the hw node only allows one opener at a time.
		playback, playbackStatus := d.probe(ctx, entry, DirectionPlayback)
		capture, captureStatus := d.probe(ctx, entry, DirectionCapture)

		devices = append(devices, Device{
			Card:           entry.Card,
			CardName:       entry.CardName,
			CardLongName:   entry.CardLongName,
			Device:         entry.Device,
			Description:    entry.Description,
			PlaybackParams: playback,
			CaptureParams:  capture,
			PlaybackProbe:  playbackStatus,
			CaptureProbe:   captureStatus,
		})
	}

	metrics.SetALSADevicesDiscovered(len(devices))
	metrics.ObserveALSADiscovery(time.Since(start))
	d.logger.Debug("Discovery finished", "devices", len(devices), "duration", time.Since(start))

	return devices, nil
}

// probe dumps hw params for one direction of a device. Whatever output was
// captured is searched for a dump block, even when the tool exited nonzero
// or was killed by the deadline.
func (d *Discoverer) probe(ctx context.Context, entry ListingEntry, direction string) (DeviceParams, string) {
	probeCtx, cancel := context.WithTimeout(ctx, d.probeTimeout)
	defer cancel()

	name, args := probeCommand(entry.HWAddress(), direction)
	out, err := d.runner.CombinedOutput(probeCtx, name, args...)

	params, ok := ParseDump(string(out))
	status := probeStatus(ok, out, err, probeCtx.Err())
	metrics.IncALSAProbe(direction, status)

	if status != ProbeOK {
		d.logger.Debug("Probe yielded no parameters",
			"device", entry.HWAddress(),
			"direction", direction,
			"status", status,
			"error", NewError(ErrCodeProbeFailed, direction+" probe on "+entry.HWAddress(), err))
	}

	return params, status
}

func probeCommand(hw, direction string) (string, []string) {
	if direction == DirectionCapture {
		return "arecord", []string{"--dump-hw-params", "-D", hw, "/dev/null"}
	}
	return "aplay", []string{"--dump-hw-params", "-D", hw, "/dev/zero"}
}

func probeStatus(parsed bool, out []byte, runErr, ctxErr error) string {
	switch {
	case parsed:
		return ProbeOK
	case errors.Is(ctxErr, context.DeadlineExceeded):
		return ProbeTimeout
	case runErr != nil:
		return ProbeFailed
	case len(bytes.TrimSpace(out)) == 0:
		return ProbeEmpty
	default:
		return ProbeFailed
	}
}

// noCardsFound matches aplay's exit message on machines without sound hardware.
func noCardsFound(out []byte) bool {
	return strings.Contains(strings.ToLower(string(out)), "no soundcards found")
}

func listErr(err error, out []byte) error {
	msg := strings.TrimSpace(string(out))
	if msg == "" {
		return err
	}
	return errors.Join(err, errors.New(msg))
}
