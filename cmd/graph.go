package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/smazurov/jackbridge/internal/jack"
	"github.com/smazurov/jackbridge/internal/logging"
	"github.com/smazurov/jackbridge/internal/process"
	"github.com/spf13/cobra"
)

// CreateGraphCmd creates the graph command.
func CreateGraphCmd() *cobra.Command {
	var prefix string
	var asJSON bool
	var verbose bool

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Show bridged devices and their JACK connections",
		Long: `Reads the running JACK server's port connections and prints every bridged ALSA device ` +
			`with the ports its bridge clients are connected to.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			initCommandLogging(verbose)

			ctx, cancel := commandContext(cmd, 5*time.Second)
			defer cancel()

			reader := jack.NewGraphReader(process.NewExec(logging.GetLogger("process")), prefix)
			graph, err := reader.ReadGraph(ctx)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if graph == nil {
					graph = &jack.Graph{}
				}
				return enc.Encode(graph)
			}

			if graph == nil {
				fmt.Println("No bridged ALSA devices")
				return nil
			}
			for _, device := range graph.BridgedDevices {
				fmt.Println(device)
				ports := graph.PortsOf(device)
				if len(ports) == 0 {
					fmt.Println("  (not connected)")
				}
				for _, port := range ports {
					fmt.Printf("  -> %s\n", port)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", jack.DefaultPrefix, "Bridge client name prefix")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the graph as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log jack_lsp output to stderr")
	return cmd
}
