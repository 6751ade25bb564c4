package alsa

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/smazurov/jackbridge/internal/process"
)

func scriptedMachine(t *testing.T) *process.Fake {
	t.Helper()
	busy := &exec.ExitError{}
	killed := errors.New("signal: killed")

	return process.NewFake().
		On("aplay -l", process.Reply{Output: fixture(t, "aplay_list.txt")}).
		// A successful probe keeps playing until the deadline kills it.
		On("aplay --dump-hw-params -D hw:0,0 /dev/zero", process.Reply{Output: fixture(t, "aplay_dump_pch.txt"), Err: killed}).
		On("arecord --dump-hw-params -D hw:0,0 /dev/null", process.Reply{Output: fixture(t, "aplay_busy.txt"), Err: busy}).
		On("aplay --dump-hw-params -D hw:0,3 /dev/zero", process.Reply{Output: fixture(t, "aplay_dump_pch.txt")}).
		On("arecord --dump-hw-params -D hw:0,3 /dev/null", process.Reply{}).
		On("aplay --dump-hw-params -D hw:1,0 /dev/zero", process.Reply{Output: fixture(t, "aplay_dump_pch.txt"), Delay: time.Minute}).
		On("arecord --dump-hw-params -D hw:1,0 /dev/null", process.Reply{Output: fixture(t, "arecord_dump_usb.txt")})
}

func TestListDevices(t *testing.T) {
	runner := scriptedMachine(t)
	d := NewDiscoverer(runner, Options{ProbeTimeout: 50 * time.Millisecond})

	devices, err := d.ListDevices(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(devices) != 3 {
		t.Fatalf("expected 3 devices in listing order, got %d", len(devices))
	}

	pch := devices[0]
	if pch.Card != "0" || pch.CardName != "PCH" || pch.Device != "0" || pch.Description != "ALC256 Analog" {
		t.Errorf("unexpected first device: %+v", pch)
	}
	if !pch.HasPlayback() || pch.PlaybackProbe != ProbeOK {
		t.Errorf("PCH playback should be probed, status %q", pch.PlaybackProbe)
	}
	if pch.PlaybackParams["rate"] != Range(44100, 192000) {
		t.Errorf("PCH rate = %+v", pch.PlaybackParams["rate"])
	}
	if pch.HasCapture() || pch.CaptureProbe != ProbeFailed {
		t.Errorf("busy capture should be absent with status failed, got %q", pch.CaptureProbe)
	}

	hdmi := devices[1]
	if hdmi.Device != "3" || hdmi.HasCapture() || hdmi.CaptureProbe != ProbeEmpty {
		t.Errorf("HDMI capture should be absent with status empty: %+v", hdmi)
	}

	usb := devices[2]
	if usb.CardName != "USB" {
		t.Errorf("unexpected third device: %+v", usb)
	}
	if usb.HasPlayback() || usb.PlaybackProbe != ProbeTimeout {
		t.Errorf("timed-out playback should be absent with status timeout, got %q", usb.PlaybackProbe)
	}
	if !usb.HasCapture() || usb.CaptureParams["rate"] != Scalar(48000) {
		t.Errorf("USB capture rate = %+v", usb.CaptureParams["rate"])
	}
}

func TestListDevicesProbesSequentially(t *testing.T) {
	runner := scriptedMachine(t)
	d := NewDiscoverer(runner, Options{ProbeTimeout: 50 * time.Millisecond})

	if _, err := d.ListDevices(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"aplay -l",
		"aplay --dump-hw-params -D hw:0,0 /dev/zero",
		"arecord --dump-hw-params -D hw:0,0 /dev/null",
		"aplay --dump-hw-params -D hw:0,3 /dev/zero",
		"arecord --dump-hw-params -D hw:0,3 /dev/null",
		"aplay --dump-hw-params -D hw:1,0 /dev/zero",
		"arecord --dump-hw-params -D hw:1,0 /dev/null",
	}
	calls := runner.Calls()
	if len(calls) != len(want) {
		t.Fatalf("got %d calls, want %d: %v", len(calls), len(want), calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, calls[i], want[i])
		}
	}
}

func TestListDevicesSingleLine(t *testing.T) {
	runner := process.NewFake().
		On("aplay -l", process.Reply{Output: "card 0: PCH [HDA Intel PCH], device 0: ALC256 Analog [ALC256 Analog]\n"})
	d := NewDiscoverer(runner, Options{})

	devices, err := d.ListDevices(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("expected 1 device, got %d", len(devices))
	}
	dev := devices[0]
	if dev.Card != "0" || dev.CardName != "PCH" || dev.Device != "0" || dev.Description != "ALC256 Analog" {
		t.Errorf("unexpected device: %+v", dev)
	}
	// Probe tools are unscripted, so both directions are absent.
	if dev.HasPlayback() || dev.HasCapture() {
		t.Errorf("expected no params when probe tools are missing: %+v", dev)
	}
}

func TestListDevicesListingFailure(t *testing.T) {
	d := NewDiscoverer(process.NewFake(), Options{})

	_, err := d.ListDevices(context.Background())
	var alsaErr *Error
	if !errors.As(err, &alsaErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if alsaErr.Code != ErrCodeListFailed {
		t.Errorf("Code = %q, want %q", alsaErr.Code, ErrCodeListFailed)
	}
	if !process.IsNotFound(err) {
		t.Errorf("expected missing aplay to be unwrappable, got %v", err)
	}
}

func TestListDevicesNoSoundcards(t *testing.T) {
	runner := process.NewFake().
		On("aplay -l", process.Reply{Output: "aplay: device_list:274: no soundcards found...\n", Err: &exec.ExitError{}})
	d := NewDiscoverer(runner, Options{})

	devices, err := d.ListDevices(context.Background())
	if err != nil {
		t.Fatalf("no soundcards is not an error: %v", err)
	}
	if devices == nil || len(devices) != 0 {
		t.Errorf("expected empty device list, got %v", devices)
	}
}

func TestProbeStatus(t *testing.T) {
	exitErr := &exec.ExitError{}
	tests := []struct {
		name   string
		parsed bool
		out    string
		runErr error
		ctxErr error
		want   string
	}{
		{"parsed despite kill", true, "x", errors.New("signal: killed"), context.DeadlineExceeded, ProbeOK},
		{"deadline", false, "", context.DeadlineExceeded, context.DeadlineExceeded, ProbeTimeout},
		{"nonzero exit", false, "busy", exitErr, nil, ProbeFailed},
		{"empty output", false, "  \n", nil, nil, ProbeEmpty},
		{"garbage", false, "no block here", nil, nil, ProbeFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := probeStatus(tt.parsed, []byte(tt.out), tt.runErr, tt.ctxErr); got != tt.want {
				t.Errorf("probeStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}
