package jack

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/smazurov/jackbridge/internal/logging"
	"github.com/smazurov/jackbridge/internal/process"
)

// Port directions as reported by jack_lsp -p.
const (
	DirectionInput  = "input"
	DirectionOutput = "output"
)

// Port is one JACK port a patch can use.
type Port struct {
	Name      string `json:"name"`
	Client    string `json:"client"`
	Direction string `json:"direction,omitempty"`
	Physical  bool   `json:"physical"`
}

// Patchbay lists, connects and disconnects JACK ports.
type Patchbay struct {
	runner process.Runner
	logger logging.Logger
}

// NewPatchbay creates a jack_lsp/jack_connect/jack_disconnect wrapper.
func NewPatchbay(runner process.Runner) *Patchbay {
	return &Patchbay{
		runner: runner,
		logger: logging.GetLogger("jack"),
	}
}

// Connect wires source to destination.
func (p *Patchbay) Connect(ctx context.Context, source, destination string) error {
	return p.patch(ctx, "jack_connect", source, destination)
}

// Disconnect removes the connection between source and destination.
func (p *Patchbay) Disconnect(ctx context.Context, source, destination string) error {
	return p.patch(ctx, "jack_disconnect", source, destination)
}

// Ports lists every port known to the running JACK server.
func (p *Patchbay) Ports(ctx context.Context) ([]Port, error) {
	out, err := p.runner.CombinedOutput(ctx, "jack_lsp", "-p")
	if err != nil {
		if queryErr := graphQueryError(out, err); queryErr != nil {
			return nil, queryErr
		}
	} else if serverDown(out) {
		return nil, NewError(ErrCodeGraphQueryFailed, "JACK server is not running", errors.New(strings.TrimSpace(string(out))))
	}

	ports, parseErr := ParsePorts(bytes.NewReader(out))
	if parseErr != nil {
		return nil, NewError(ErrCodeGraphQueryFailed, "failed to read port listing", parseErr)
	}
	p.logger.Debug("Ports listed", "count", len(ports))
	return ports, nil
}

// ParsePorts reads `jack_lsp -p` output: an unindented "client:port" line per
// port, optionally followed by an indented "properties: output,physical,..."
// line describing it.
func ParsePorts(r io.Reader) ([]Port, error) {
	ports := []Port{}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if line[0] == ' ' || line[0] == '\t' {
			props, ok := strings.CutPrefix(trimmed, "properties:")
			if !ok || len(ports) == 0 {
				continue
			}
			last := &ports[len(ports)-1]
			for _, prop := range strings.Split(props, ",") {
				switch strings.TrimSpace(prop) {
				case DirectionInput:
					last.Direction = DirectionInput
				case DirectionOutput:
					last.Direction = DirectionOutput
				case "physical":
					last.Physical = true
				}
			}
			continue
		}

		client, _, ok := strings.Cut(trimmed, ":")
		if !ok {
			continue
		}
		ports = append(ports, Port{Name: trimmed, Client: client})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ports, nil
}

func (p *Patchbay) patch(ctx context.Context, tool, source, destination string) error {
	if err := validatePort(source); err != nil {
		return err
	}
	if err := validatePort(destination); err != nil {
		return err
	}

	out, err := p.runner.CombinedOutput(ctx, tool, source, destination)
	if err != nil {
		return NewError(ErrCodePatchFailed,
			fmt.Sprintf("%s %s %s failed", tool, source, destination), outputErr(out, err))
	}

	p.logger.Info("Ports patched", "tool", tool, "source", source, "destination", destination)
	return nil
}

// validatePort requires the client:port form.
func validatePort(port string) error {
	client, name, ok := strings.Cut(port, ":")
	if !ok || client == "" || name == "" {
		return NewError(ErrCodeInvalidName, fmt.Sprintf("port %q must be client:port", port), nil)
	}
	return nil
}
