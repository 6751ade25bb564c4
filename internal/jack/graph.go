package jack

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"regexp"
	"strings"

	"github.com/smazurov/jackbridge/internal/logging"
	"github.com/smazurov/jackbridge/internal/metrics"
	"github.com/smazurov/jackbridge/internal/process"
)

// Edge is one connection from a bridged device to a peer port.
type Edge struct {
	Device string `json:"device"`
	Port   string `json:"port"`
}

// Graph is a snapshot of bridged devices and their connections.
type Graph struct {
	// BridgedDevices holds each device name once, in first-seen order.
	BridgedDevices []string `json:"bridgedDevices"`
	Edges          []Edge   `json:"edges"`
}

// Has reports whether device is bridged.
func (g *Graph) Has(device string) bool {
	if g == nil {
		return false
	}
	for _, d := range g.BridgedDevices {
		if d == device {
			return true
		}
	}
	return false
}

// PortsOf returns the peer ports connected to device, in listing order.
func (g *Graph) PortsOf(device string) []string {
	if g == nil {
		return nil
	}
	var ports []string
	for _, e := range g.Edges {
		if e.Device == device {
			ports = append(ports, e.Port)
		}
	}
	return ports
}

func bridgePortPattern(prefix string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `_(.+)_(?:` + SuffixSource + `|` + SuffixSink + `):\S`)
}

// ParseGraph rebuilds the graph from `jack_lsp -c` output.
//
// An unindented bridge port line such as "alsa_USB_src:capture_1" makes USB
// the current device. Every other non-empty line after that is a peer of the
// current device. Lines before the first bridge port are ignored. A nil Graph
// means no bridge port was listed.
func ParseGraph(r io.Reader, prefix string) (*Graph, error) {
	portRe := bridgePortPattern(prefix)

	var (
		graph   Graph
		seen    = make(map[string]bool)
		current string
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if m := portRe.FindStringSubmatch(line); m != nil {
			current = m[1]
			if !seen[current] {
				seen[current] = true
				graph.BridgedDevices = append(graph.BridgedDevices, current)
			}
			continue
		}

		if current == "" {
			continue
		}
		graph.Edges = append(graph.Edges, Edge{Device: current, Port: strings.TrimSpace(line)})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(graph.BridgedDevices) == 0 {
		return nil, nil
	}
	return &graph, nil
}

// GraphReader queries the running JACK server for bridge connections.
type GraphReader struct {
	runner process.Runner
	prefix string
	logger logging.Logger
}

// NewGraphReader creates a reader for bridges named with prefix.
func NewGraphReader(runner process.Runner, prefix string) *GraphReader {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &GraphReader{
		runner: runner,
		prefix: prefix,
		logger: logging.GetLogger("jack"),
	}
}

// ReadGraph returns the current bridge graph, or nil when nothing is bridged.
// An error means the graph could not be queried at all.
func (r *GraphReader) ReadGraph(ctx context.Context) (*Graph, error) {
	out, err := r.runner.CombinedOutput(ctx, "jack_lsp", "-c", r.prefix+"_")
	if err != nil {
		if queryErr := graphQueryError(out, err); queryErr != nil {
			metrics.IncJackGraphQueryFailure()
			return nil, queryErr
		}
	} else if serverDown(out) {
		metrics.IncJackGraphQueryFailure()
		return nil, NewError(ErrCodeGraphQueryFailed, "JACK server is not running", errors.New(strings.TrimSpace(string(out))))
	}

	graph, parseErr := ParseGraph(bytes.NewReader(out), r.prefix)
	if parseErr != nil {
		metrics.IncJackGraphQueryFailure()
		return nil, NewError(ErrCodeGraphQueryFailed, "failed to read port listing", parseErr)
	}

	if graph != nil {
		r.logger.Debug("Graph read", "devices", len(graph.BridgedDevices), "edges", len(graph.Edges))
	}
	return graph, nil
}

// graphQueryError separates real failures from jack_lsp finding no ports.
func graphQueryError(out []byte, err error) error {
	switch {
	case process.IsNotFound(err):
		return NewError(ErrCodeGraphQueryFailed, "jack_lsp is not installed", err)
	case serverDown(out):
		return NewError(ErrCodeGraphQueryFailed, "JACK server is not running", err)
	case process.IsExit(err):
		return nil
	default:
		return NewError(ErrCodeGraphQueryFailed, "failed to query JACK ports", err)
	}
}

func serverDown(out []byte) bool {
	text := strings.ToLower(string(out))
	return strings.Contains(text, "not running") || strings.Contains(text, "cannot connect")
}
