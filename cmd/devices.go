package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/smazurov/jackbridge/internal/alsa"
	"github.com/smazurov/jackbridge/internal/logging"
	"github.com/smazurov/jackbridge/internal/process"
	"github.com/spf13/cobra"
)

// CreateDevicesCmd creates the devices command.
func CreateDevicesCmd() *cobra.Command {
	var probeTimeout time.Duration
	var verbose bool

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List ALSA devices and their hw params",
		Long: `Runs the same discovery as the server: lists playback and capture devices, ` +
			`probes each one for its hardware parameters and prints the result as JSON.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			initCommandLogging(verbose)

			discoverer := alsa.NewDiscoverer(process.NewExec(logging.GetLogger("process")), alsa.Options{
				ProbeTimeout: probeTimeout,
			})

			devices, err := discoverer.ListDevices(cmd.Context())
			if err != nil {
				return fmt.Errorf("discover devices: %w", err)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(devices)
		},
	}

	cmd.Flags().DurationVar(&probeTimeout, "probe-timeout", alsa.DefaultProbeTimeout, "Time limit for each hw params probe")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log probe commands to stderr")
	return cmd
}

// initCommandLogging keeps one-shot commands quiet unless asked.
func initCommandLogging(verbose bool) {
	level := "warn"
	if verbose {
		level = "debug"
	}
	logging.Initialize(logging.Config{Level: level, Format: "text"})
}

func commandContext(cmd *cobra.Command, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, timeout)
}
