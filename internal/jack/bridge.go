// Package jack launches ALSA bridges into a JACK server and reads back its port graph.
package jack

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/smazurov/jackbridge/internal/alsa"
	"github.com/smazurov/jackbridge/internal/logging"
	"github.com/smazurov/jackbridge/internal/metrics"
	"github.com/smazurov/jackbridge/internal/process"
)

// Bridge defaults.
const (
	DefaultPrefix   = "alsa"
	DefaultRate     = alsa.DefaultRate
	DefaultPeriods  = 128
	DefaultNPeriods = 2
)

// Port group suffixes of a bridge client.
const (
	SuffixSource = "src"
	SuffixSink   = "sink"
)

// BridgeConfig holds the defaults applied to every connect request.
type BridgeConfig struct {
	Prefix   string
	Rate     int
	Periods  int
	NPeriods int
}

// DefaultBridgeConfig returns the built-in bridge defaults.
func DefaultBridgeConfig() BridgeConfig {
	return BridgeConfig{
		Prefix:   DefaultPrefix,
		Rate:     DefaultRate,
		Periods:  DefaultPeriods,
		NPeriods: DefaultNPeriods,
	}
}

func (c BridgeConfig) withDefaults() BridgeConfig {
	d := DefaultBridgeConfig()
	if c.Prefix == "" {
		c.Prefix = d.Prefix
	}
	if c.Rate <= 0 {
		c.Rate = d.Rate
	}
	if c.Periods <= 0 {
		c.Periods = d.Periods
	}
	if c.NPeriods <= 0 {
		c.NPeriods = d.NPeriods
	}
	return c
}

// ConnectOptions overrides the configured defaults for one connect call.
// Zero fields fall back to the device's rate or the BridgeConfig.
type ConnectOptions struct {
	Rate     int
	Periods  int
	NPeriods int
}

// LaunchResult names the bridge clients a connect call asked JACK to load.
// A launch only means the request was accepted; read the graph to confirm.
type LaunchResult struct {
	Device   string
	Clients  []string
	Rate     int
	Periods  int
	NPeriods int
}

// BridgeManager loads and unloads alsa_in/alsa_out clients.
// It keeps no record of what it launched.
type BridgeManager struct {
	runner process.Runner
	logger logging.Logger

	mu  sync.RWMutex
	cfg BridgeConfig
}

// NewBridgeManager creates a manager that launches bridges through runner.
func NewBridgeManager(runner process.Runner, cfg BridgeConfig) *BridgeManager {
	return &BridgeManager{
		runner: runner,
		logger: logging.GetLogger("jack"),
		cfg:    cfg.withDefaults(),
	}
}

// Defaults returns the current bridge defaults.
func (m *BridgeManager) Defaults() BridgeConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// SetDefaults replaces the bridge defaults, e.g. after a config reload.
func (m *BridgeManager) SetDefaults(cfg BridgeConfig) {
	cfg = cfg.withDefaults()

	m.mu.Lock()
	m.cfg = cfg
	m.mu.Unlock()

	m.logger.Info("Bridge defaults updated",
		"prefix", cfg.Prefix,
		"rate", cfg.Rate,
		"periods", cfg.Periods,
		"nperiods", cfg.NPeriods)
}

// ClientName returns the JACK client name of a device's bridge for one port group.
func (m *BridgeManager) ClientName(device, suffix string) string {
	return clientName(m.Defaults().Prefix, device, suffix)
}

func clientName(prefix, device, suffix string) string {
	return prefix + "_" + device + "_" + suffix
}

// Connect requests a capture bridge when the device can record and a
// playback bridge when it can play. It returns as soon as the launches were
// requested.
func (m *BridgeManager) Connect(ctx context.Context, device alsa.Device, opts ConnectOptions) (LaunchResult, error) {
	if err := validateName(device.CardName); err != nil {
		return LaunchResult{}, err
	}
	if !device.HasCapture() && !device.HasPlayback() {
		return LaunchResult{}, NewError(ErrCodeNoCapability,
			fmt.Sprintf("device %s has neither capture nor playback parameters", device.CardName), nil)
	}
	if err := ctx.Err(); err != nil {
		return LaunchResult{}, NewError(ErrCodeLaunchFailed, "connect cancelled", err)
	}

	cfg := m.Defaults()
	result := LaunchResult{
		Device:   device.CardName,
		Rate:     bridgeRate(device, opts, cfg),
		Periods:  firstPositive(opts.Periods, cfg.Periods),
		NPeriods: firstPositive(opts.NPeriods, cfg.NPeriods),
	}

	hw := "hw:" + device.Card
	driverArgs := fmt.Sprintf("-d %s -r %d -p %d -n %d", hw, result.Rate, result.Periods, result.NPeriods)

	type launch struct {
		direction string
		suffix    string
		client    string
	}
	var launches []launch
	if device.HasCapture() {
		launches = append(launches, launch{alsa.DirectionCapture, SuffixSource, "alsa_in"})
	}
	if device.HasPlayback() {
		launches = append(launches, launch{alsa.DirectionPlayback, SuffixSink, "alsa_out"})
	}

	var errs []error
	for _, l := range launches {
		name := clientName(cfg.Prefix, device.CardName, l.suffix)
		if err := m.runner.Start("jack_load", name, l.client, "-i", driverArgs); err != nil {
			metrics.IncJackBridgeLaunch(l.direction, "error")
			m.logger.Error("Failed to launch bridge", "client", name, "hw", hw, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		metrics.IncJackBridgeLaunch(l.direction, "ok")
		result.Clients = append(result.Clients, name)
	}

	if len(errs) > 0 {
		return result, NewError(ErrCodeLaunchFailed,
			fmt.Sprintf("failed to launch bridge for %s", device.CardName), errors.Join(errs...))
	}

	m.logger.Info("Bridge launch requested",
		"device", device.CardName,
		"hw", hw,
		"clients", result.Clients,
		"rate", result.Rate,
		"periods", result.Periods,
		"nperiods", result.NPeriods)

	return result, nil
}

// Disconnect unloads both bridge clients of a device. Clients that are not
// loaded count as unloaded, so disconnecting twice is not an error. Both
// unloads are attempted even if the first fails.
func (m *BridgeManager) Disconnect(ctx context.Context, device string) error {
	if err := validateName(device); err != nil {
		return err
	}

	prefix := m.Defaults().Prefix

	var errs []error
	for _, suffix := range []string{SuffixSource, SuffixSink} {
		name := clientName(prefix, device, suffix)
		if err := m.unload(ctx, name); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		metrics.IncJackBridgeTeardown("error")
		return NewError(ErrCodeTeardownFailed,
			fmt.Sprintf("failed to unload bridge for %s", device), errors.Join(errs...))
	}

	metrics.IncJackBridgeTeardown("ok")
	m.logger.Info("Bridge unloaded", "device", device)
	return nil
}

func (m *BridgeManager) unload(ctx context.Context, name string) error {
	out, err := m.runner.CombinedOutput(ctx, "jack_unload", name)
	if err == nil {
		return nil
	}
	if process.IsNotFound(err) {
		return fmt.Errorf("%s: %w", name, err)
	}
	if clientMissing(out) {
		m.logger.Debug("Bridge client not loaded", "client", name)
		return nil
	}

	msg := strings.TrimSpace(string(out))
	if msg == "" {
		return fmt.Errorf("%s: %w", name, err)
	}
	return fmt.Errorf("%s: %s: %w", name, msg, err)
}

var missingClientMarkers = []string{"not found", "no such", "unknown client"}

// clientMissing reports whether jack_unload failed only because the client is not loaded.
func clientMissing(out []byte) bool {
	text := strings.ToLower(string(out))
	for _, marker := range missingClientMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// bridgeRate picks the per-call rate, then the device's playback rate, then the default.
func bridgeRate(device alsa.Device, opts ConnectOptions, cfg BridgeConfig) int {
	if opts.Rate > 0 {
		return opts.Rate
	}
	if device.PlaybackParams != nil {
		if rate, ok := device.PlaybackParams.Rate(); ok && rate > 0 {
			return rate
		}
	}
	return cfg.Rate
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

// validateName rejects names that cannot form a JACK client name.
func validateName(name string) error {
	if name == "" {
		return NewError(ErrCodeInvalidName, "device name is required", nil)
	}
	if strings.ContainsAny(name, " \t\n:") {
		return NewError(ErrCodeInvalidName, "device name must not contain whitespace or ':': "+strconv.Quote(name), nil)
	}
	return nil
}
