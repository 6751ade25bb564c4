package jack

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smazurov/jackbridge/internal/process"
)

func fixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	return string(data)
}

func TestParseGraphTwoEdges(t *testing.T) {
	input := "alsa_USB_src:capture_1\nsystem:playback_1\nsystem:playback_2\n"

	graph, err := ParseGraph(strings.NewReader(input), "alsa")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if graph == nil {
		t.Fatal("expected a graph")
	}
	if len(graph.BridgedDevices) != 1 || graph.BridgedDevices[0] != "USB" {
		t.Errorf("BridgedDevices = %v, want [USB]", graph.BridgedDevices)
	}
	want := []Edge{{"USB", "system:playback_1"}, {"USB", "system:playback_2"}}
	if len(graph.Edges) != len(want) {
		t.Fatalf("Edges = %v, want %v", graph.Edges, want)
	}
	for i := range want {
		if graph.Edges[i] != want[i] {
			t.Errorf("edge %d = %+v, want %+v", i, graph.Edges[i], want[i])
		}
	}
}

func TestParseGraphFixture(t *testing.T) {
	graph, err := ParseGraph(strings.NewReader(fixture(t, "jack_lsp_bridges.txt")), "alsa")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(graph.BridgedDevices) != 2 || graph.BridgedDevices[0] != "USB" || graph.BridgedDevices[1] != "PCH" {
		t.Errorf("BridgedDevices = %v, want [USB PCH]", graph.BridgedDevices)
	}

	usb := graph.PortsOf("USB")
	wantUSB := []string{"system:playback_1", "system:playback_2", "system:playback_2"}
	if strings.Join(usb, ",") != strings.Join(wantUSB, ",") {
		t.Errorf("USB ports = %v, want %v", usb, wantUSB)
	}

	// An indented bridge port is a peer, not a new context.
	pch := graph.PortsOf("PCH")
	if len(pch) != 1 || pch[0] != "alsa_USB_src:capture_1" {
		t.Errorf("PCH ports = %v", pch)
	}

	if !graph.Has("USB") || graph.Has("ghost") {
		t.Error("Has() mismatch")
	}
}

func TestParseGraphAbsent(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"blank lines", "\n\n  \n"},
		{"no bridge ports", "system:capture_1\n   system:playback_1\nfirefox:out_left\n"},
		{"other prefix", "hw_USB_src:capture_1\n   system:playback_1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			graph, err := ParseGraph(strings.NewReader(tt.input), "alsa")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if graph != nil {
				t.Errorf("expected nil graph, got %+v", graph)
			}
		})
	}
}

func TestParseGraphIgnoresLinesBeforeContext(t *testing.T) {
	input := "   system:playback_1\nalsa_PCH_sink:playback_1\n"

	graph, err := ParseGraph(strings.NewReader(input), "alsa")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(graph.Edges) != 0 {
		t.Errorf("expected no edges, got %v", graph.Edges)
	}
	if !graph.Has("PCH") {
		t.Errorf("expected PCH bridged: %v", graph.BridgedDevices)
	}
}

func TestParseGraphDeviceNameWithUnderscore(t *testing.T) {
	graph, err := ParseGraph(strings.NewReader("alsa_Audio_1_src:capture_1\n"), "alsa")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !graph.Has("Audio_1") {
		t.Errorf("BridgedDevices = %v, want [Audio_1]", graph.BridgedDevices)
	}
}

func TestNilGraphHelpers(t *testing.T) {
	var g *Graph
	if g.Has("USB") || g.PortsOf("USB") != nil {
		t.Error("nil graph should report nothing")
	}
}

func TestReadGraph(t *testing.T) {
	runner := process.NewFake().
		On("jack_lsp -c alsa_", process.Reply{Output: fixture(t, "jack_lsp_bridges.txt")})
	reader := NewGraphReader(runner, "")

	graph, err := reader.ReadGraph(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(graph.BridgedDevices) != 2 {
		t.Errorf("BridgedDevices = %v", graph.BridgedDevices)
	}
}

func TestReadGraphOutcomes(t *testing.T) {
	tests := []struct {
		name      string
		reply     *process.Reply
		wantNil   bool
		wantError bool
	}{
		{
			name:    "nothing bridged exits nonzero",
			reply:   &process.Reply{Err: &exec.ExitError{}},
			wantNil: true,
		},
		{
			name:    "nothing bridged exits zero",
			reply:   &process.Reply{},
			wantNil: true,
		},
		{
			name:      "server down",
			reply:     &process.Reply{Output: "Cannot connect to server socket err = No such file or directory\njack server is not running or cannot be started\n", Err: &exec.ExitError{}},
			wantError: true,
		},
		{
			name:      "server down with zero exit",
			reply:     &process.Reply{Output: "JACK server not running, aborting\n"},
			wantError: true,
		},
		{
			name:      "tool missing",
			reply:     nil,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := process.NewFake()
			if tt.reply != nil {
				runner.On("jack_lsp -c alsa_", *tt.reply)
			}
			reader := NewGraphReader(runner, "alsa")

			graph, err := reader.ReadGraph(context.Background())
			if tt.wantError {
				if !HasCode(err, ErrCodeGraphQueryFailed) {
					t.Errorf("expected GRAPH_QUERY_FAILED, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantNil && graph != nil {
				t.Errorf("expected nil graph, got %+v", graph)
			}
		})
	}
}
