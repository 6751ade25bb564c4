package main

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/jackbridge/cmd"
	"github.com/smazurov/jackbridge/internal/alsa"
	"github.com/smazurov/jackbridge/internal/api"
	"github.com/smazurov/jackbridge/internal/config"
	"github.com/smazurov/jackbridge/internal/events"
	"github.com/smazurov/jackbridge/internal/hotplug"
	"github.com/smazurov/jackbridge/internal/inventory"
	"github.com/smazurov/jackbridge/internal/jack"
	"github.com/smazurov/jackbridge/internal/logging"
	"github.com/smazurov/jackbridge/internal/metrics/collectors"
	"github.com/smazurov/jackbridge/internal/metrics/exporters"
	"github.com/smazurov/jackbridge/internal/monitoring"
	"github.com/smazurov/jackbridge/internal/process"
	"github.com/smazurov/jackbridge/internal/systemd"
	"github.com/smazurov/jackbridge/internal/version"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port           string `help:"Port to listen on" short:"p" default:":8095" toml:"server.port" env:"SERVER_PORT"`
	ApiCorsOrigins string `help:"Comma-separated allowed CORS origins (* for any)" default:"*" toml:"server.cors_origins" env:"SERVER_CORS_ORIGINS"`

	// ALSA settings
	AlsaProbeTimeout  string `help:"Time limit for each hw params probe" default:"1s" toml:"alsa.probe_timeout" env:"ALSA_PROBE_TIMEOUT"`
	AlsaCardsInterval string `help:"Sound card metrics refresh interval" default:"10s" toml:"alsa.cards_interval" env:"ALSA_CARDS_INTERVAL"`
	AlsaHotplug       bool   `help:"Refresh devices when sound cards are plugged or unplugged" default:"true" toml:"alsa.hotplug" env:"ALSA_HOTPLUG"`

	// Bridge settings
	BridgePrefix   string `help:"JACK client name prefix for bridges" default:"alsa" toml:"bridge.prefix" env:"BRIDGE_PREFIX"`
	BridgeRate     int    `help:"Default bridge sample rate" default:"48000" toml:"bridge.rate" env:"BRIDGE_RATE"`
	BridgePeriods  int    `help:"Default frames per period" default:"128" toml:"bridge.periods" env:"BRIDGE_PERIODS"`
	BridgeNperiods int    `help:"Default periods per buffer" default:"2" toml:"bridge.nperiods" env:"BRIDGE_NPERIODS"`

	// JACK server settings
	JackdDriver      string `help:"JACK driver used when starting the server" default:"dummy" toml:"jackd.driver" env:"JACKD_DRIVER"`
	JackdRate        int    `help:"JACK server sample rate" default:"96000" toml:"jackd.rate" env:"JACKD_RATE"`
	JackdPeriod      int    `help:"JACK server period size" default:"128" toml:"jackd.period" env:"JACKD_PERIOD"`
	JackdAutostart   bool   `help:"Start the JACK server at startup if it is stopped" default:"true" toml:"jackd.autostart" env:"JACKD_AUTOSTART"`
	JackdStopOnExit  bool   `help:"Stop the JACK server and jackdbus on shutdown" default:"false" toml:"jackd.stop_on_exit" env:"JACKD_STOP_ON_EXIT"`
	JackdServiceName string `help:"systemd unit running jackdbus (empty disables unit control)" default:"" toml:"jackd.service_name" env:"JACKD_SERVICE_NAME"`
	JackdSystemdBus  string `help:"systemd bus of the unit (user, system)" default:"user" toml:"jackd.systemd_bus" env:"JACKD_SYSTEMD_BUS"`

	// Monitoring settings
	MonitorInterval string `help:"Connection graph poll interval" default:"2s" toml:"monitor.interval" env:"MONITOR_INTERVAL"`

	// Metrics settings
	MetricsPrometheusEnabled bool `help:"Serve Prometheus metrics on /metrics" default:"true" toml:"metrics.prometheus_enabled" env:"METRICS_PROMETHEUS_ENABLED"`
	MetricsSSEEnabled        bool `help:"Publish bridge metrics on the event stream" default:"true" toml:"metrics.sse_enabled" env:"METRICS_SSE_ENABLED"`

	// Logging settings
	LoggingLevel      string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat     string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingAlsa       string `help:"ALSA discovery logging level" default:"info" toml:"logging.alsa" env:"LOGGING_ALSA"`
	LoggingJack       string `help:"Bridge and graph logging level" default:"info" toml:"logging.jack" env:"LOGGING_JACK"`
	LoggingJackd      string `help:"JACK server control logging level" default:"info" toml:"logging.jackd" env:"LOGGING_JACKD"`
	LoggingHotplug    string `help:"Sound card hotplug logging level" default:"info" toml:"logging.hotplug" env:"LOGGING_HOTPLUG"`
	LoggingInventory  string `help:"Device inventory logging level" default:"info" toml:"logging.inventory" env:"LOGGING_INVENTORY"`
	LoggingMonitoring string `help:"Graph monitor logging level" default:"info" toml:"logging.monitoring" env:"LOGGING_MONITORING"`
	LoggingProcess    string `help:"Child process logging level" default:"info" toml:"logging.process" env:"LOGGING_PROCESS"`
	LoggingAPI        string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingHTTP       string `help:"HTTP request logging level" default:"info" toml:"logging.http" env:"LOGGING_HTTP"`
}

func (o *Options) loggingConfig() logging.Config {
	return logging.Config{
		Level:  o.LoggingLevel,
		Format: o.LoggingFormat,
		Modules: map[string]string{
			"alsa":       o.LoggingAlsa,
			"jack":       o.LoggingJack,
			"jackd":      o.LoggingJackd,
			"hotplug":    o.LoggingHotplug,
			"inventory":  o.LoggingInventory,
			"monitoring": o.LoggingMonitoring,
			"process":    o.LoggingProcess,
			"api":        o.LoggingAPI,
			"http":       o.LoggingHTTP,
		},
	}
}

func (o *Options) corsOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(o.ApiCorsOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func main() {
	var cli humacli.CLI

	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Flag defaults and CLI values, before the file and env are applied
		baseline := *opts

		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(opts.loggingConfig())
		logger := logging.GetLogger("main")
		logger.Info("Starting jackbridge", "version", version.String())

		ctx, cancel := context.WithCancel(context.Background())

		eventBus := events.New()
		runner := process.NewExec(logging.GetLogger("process"))

		discoverer := alsa.NewDiscoverer(runner, alsa.Options{
			ProbeTimeout: parseDuration(opts.AlsaProbeTimeout, alsa.DefaultProbeTimeout),
		})
		store := inventory.New(discoverer, eventBus)

		bridges := jack.NewBridgeManager(runner, jack.BridgeConfig{
			Prefix:   opts.BridgePrefix,
			Rate:     opts.BridgeRate,
			Periods:  opts.BridgePeriods,
			NPeriods: opts.BridgeNperiods,
		})
		graphReader := jack.NewGraphReader(runner, opts.BridgePrefix)
		jackd := jack.NewServer(runner)
		jackdDefaults := jack.ServerConfig{
			Driver: opts.JackdDriver,
			Rate:   opts.JackdRate,
			Period: opts.JackdPeriod,
		}

		monitor := monitoring.NewGraphMonitor(graphReader, eventBus,
			parseDuration(opts.MonitorInterval, monitoring.DefaultInterval))
		cardCollector := collectors.NewCardCollector(parseDuration(opts.AlsaCardsInterval, 10*time.Second))

		var (
			ueventMonitor *hotplug.Monitor
			cardWatcher   *hotplug.Watcher
		)

		var sseExporter *exporters.SSEExporter
		if opts.MetricsSSEEnabled {
			sseExporter = exporters.NewSSEExporter(eventBus)
		}

		// Optional systemd control of the unit running jackdbus
		var systemdManager *systemd.Manager
		if opts.JackdServiceName != "" {
			m, err := systemd.NewManager(ctx, systemd.Bus(opts.JackdSystemdBus))
			if err != nil {
				logger.Warn("systemd unit control disabled", "error", err)
			} else {
				systemdManager = m
			}
		}

		apiOpts := &api.Options{
			CORSOrigins:        opts.corsOrigins(),
			Devices:            store,
			Bridges:            bridges,
			Graph:              graphReader,
			Monitor:            monitor,
			JackServer:         jackd,
			JackServerDefaults: jackdDefaults,
			Patchbay:           jack.NewPatchbay(runner),
			EventBus:           eventBus,
		}
		if systemdManager != nil {
			apiOpts.Systemd = systemdManager
			apiOpts.JackServiceName = opts.JackdServiceName
		}
		if opts.MetricsPrometheusEnabled {
			apiOpts.PrometheusHandler = exporters.HTTPHandler()
		}

		server := api.NewServer(apiOpts)

		// Bridge defaults and log levels follow edits to the config file
		watcher := config.NewConfigWatcher(opts.Config, config.Reloader(baseline, cli.Root()), logging.GetLogger("config"),
			config.WithErrorHandler[Options](func(err error) {
				logger.Warn("Config reload failed, keeping current settings", "error", err)
			}))
		watcher.OnReload(func(next Options) {
			bridges.SetDefaults(jack.BridgeConfig{
				Prefix:   opts.BridgePrefix,
				Rate:     next.BridgeRate,
				Periods:  next.BridgePeriods,
				NPeriods: next.BridgeNperiods,
			})
			levels := next.loggingConfig()
			logging.SetLevels(levels.Level, levels.Modules)
		})

		hooks.OnStart(func() {
			if opts.JackdAutostart {
				startJackServer(ctx, jackd, jackdDefaults, logger)
			}

			if _, err := store.Refresh(ctx); err != nil {
				logger.Warn("Initial device discovery failed", "error", err)
			}

			monitor.Start(ctx)

			// Sound cards coming and going trigger a device refresh
			if opts.AlsaHotplug {
				m, err := hotplug.Open()
				if err != nil {
					logger.Warn("Sound card hotplug disabled", "error", err)
				} else {
					ueventMonitor = m
					cardWatcher = hotplug.NewWatcher(ueventMonitor, store, hotplug.DefaultSettle)
					cardWatcher.Start(ctx)
				}
			}

			if err := cardCollector.Start(ctx); err != nil {
				logger.Warn("Failed to start sound card collector", "error", err)
			}
			if sseExporter != nil {
				sseExporter.Start(ctx)
			}

			if _, err := os.Stat(opts.Config); err == nil {
				if err := watcher.Start(); err != nil {
					logger.Warn("Config hot reload disabled", "error", err)
				}
			}

			if err := server.Start(opts.Port); err != nil {
				logger.Error("Failed to start HTTP server", "error", err)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down server")
			if err := server.Stop(context.Background()); err != nil {
				logger.Error("Error stopping HTTP server", "error", err)
			}

			if err := watcher.Stop(); err != nil {
				logger.Warn("Error stopping config watcher", "error", err)
			}
			if sseExporter != nil {
				sseExporter.Stop()
			}
			if err := cardCollector.Stop(); err != nil {
				logger.Warn("Error stopping sound card collector", "error", err)
			}
			monitor.Stop()
			if cardWatcher != nil {
				cardWatcher.Stop()
				if err := ueventMonitor.Close(); err != nil {
					logger.Warn("Error closing uevent socket", "error", err)
				}
			}

			// Bridges belong to the JACK server and outlive this process unless
			// the server goes down with it.
			if opts.JackdStopOnExit {
				stopJackServer(jackd, logger)
			}
			cancel()

			if systemdManager != nil {
				systemdManager.Close()
			}
		})
	})

	cli.Root().Use = "jackbridge"
	cli.Root().Short = "Bridge ALSA sound devices into a JACK server"
	cli.Root().Version = version.String()

	cli.Root().AddCommand(cmd.CreateDevicesCmd())
	cli.Root().AddCommand(cmd.CreateGraphCmd())

	// Run the CLI
	cli.Run()
}

func startJackServer(ctx context.Context, jackd *jack.Server, cfg jack.ServerConfig, logger *slog.Logger) {
	status, err := jackd.Status(ctx)
	if err != nil {
		logger.Warn("Cannot query JACK server, skipping autostart", "error", err)
		return
	}
	if status.Running {
		logger.Info("JACK server already running")
		return
	}
	if err := jackd.Start(ctx, cfg); err != nil {
		logger.Error("Failed to start JACK server", "error", err)
	}
}

func stopJackServer(jackd *jack.Server, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := jackd.Exit(ctx); err != nil {
		logger.Error("Failed to stop JACK server", "error", err)
		return
	}
	logger.Info("JACK server stopped on exit")
}
