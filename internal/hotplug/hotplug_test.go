package hotplug

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/jackbridge/internal/alsa"
)

func uevent(action, kobj string, env ...string) []byte {
	msg := action + "@" + kobj + "\x00"
	for _, kv := range env {
		msg += kv + "\x00"
	}
	return []byte(msg)
}

func TestParseUEvent(t *testing.T) {
	tests := []struct {
		name      string
		input     []byte
		wantOK    bool
		action    string
		subsystem string
		devName   string
	}{
		{name: "empty input", input: nil},
		{name: "no @ separator", input: []byte("invalid")},
		{name: "missing action", input: []byte("@/devices/foo")},
		{name: "libudev rebroadcast", input: []byte("libudev\x00\xfe\xed\xca\xfe")},
		{
			name:      "control device add",
			input:     uevent("add", "/devices/pci0000:00/usb1/1-2/1-2:1.0/sound/card1/controlC1", "ACTION=add", "SUBSYSTEM=sound", "DEVNAME=snd/controlC1", "MAJOR=116"),
			wantOK:    true,
			action:    "add",
			subsystem: "sound",
			devName:   "snd/controlC1",
		},
		{
			name:      "card remove without device node",
			input:     uevent("remove", "/devices/pci0000:00/usb1/1-2/1-2:1.0/sound/card1", "SUBSYSTEM=sound"),
			wantOK:    true,
			action:    "remove",
			subsystem: "sound",
		},
		{
			name:      "malformed pairs are skipped",
			input:     uevent("change", "/devices/sound/card0", "garbage", "=novalue", "SUBSYSTEM=sound"),
			wantOK:    true,
			action:    "change",
			subsystem: "sound",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := ParseUEvent(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if ev.Action != tt.action || ev.Subsystem != tt.subsystem || ev.DevName != tt.devName {
				t.Errorf("got %+v", ev)
			}
		})
	}
}

func TestParseUEventEnv(t *testing.T) {
	ev, ok := ParseUEvent(uevent("add", "/devices/x/sound/card2/controlC2", "SUBSYSTEM=sound", "DEVNAME=snd/controlC2", "SEQNUM=4242"))
	if !ok {
		t.Fatal("expected event")
	}
	if ev.Env["SEQNUM"] != "4242" {
		t.Errorf("SEQNUM = %q", ev.Env["SEQNUM"])
	}
	if ev.KObj != "/devices/x/sound/card2/controlC2" {
		t.Errorf("KObj = %q", ev.KObj)
	}
}

func TestUEventCard(t *testing.T) {
	tests := []struct {
		name  string
		event UEvent
		card  string
		ok    bool
	}{
		{"control device", UEvent{Subsystem: "sound", DevName: "snd/controlC3"}, "3", true},
		{"pcm device", UEvent{Subsystem: "sound", DevName: "snd/pcmC3D0p"}, "", false},
		{"card object", UEvent{Subsystem: "sound"}, "", false},
		{"other subsystem", UEvent{Subsystem: "usb", DevName: "snd/controlC3"}, "", false},
		{"bad index", UEvent{Subsystem: "sound", DevName: "snd/controlCx"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card, ok := tt.event.Card()
			if card != tt.card || ok != tt.ok {
				t.Errorf("Card() = %q, %v, want %q, %v", card, ok, tt.card, tt.ok)
			}
		})
	}
}

// scriptedSource emits its events, then blocks until cancelled.
type scriptedSource struct {
	events []UEvent
}

func (s *scriptedSource) Run(ctx context.Context, out chan<- UEvent) error {
	defer close(out)
	for _, ev := range s.events {
		select {
		case out <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

type countingRefresher struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (r *countingRefresher) Refresh(_ context.Context) ([]alsa.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return nil, r.err
}

func (r *countingRefresher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func control(action, card string) UEvent {
	return UEvent{Action: action, Subsystem: SubsystemSound, DevName: "snd/controlC" + card}
}

func waitForCalls(t *testing.T, r *countingRefresher, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if r.count() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("refresh calls = %d, want %d", r.count(), want)
}

func TestWatcherRefreshesOnceForBurst(t *testing.T) {
	source := &scriptedSource{events: []UEvent{
		{Action: ActionAdd, Subsystem: SubsystemSound, DevName: "snd/pcmC1D0c"},
		control(ActionAdd, "1"),
		control(ActionAdd, "2"),
	}}
	refresher := &countingRefresher{}

	w := NewWatcher(source, refresher, 20*time.Millisecond)
	w.Start(context.Background())
	defer w.Stop()

	waitForCalls(t, refresher, 1)
	time.Sleep(60 * time.Millisecond)
	if got := refresher.count(); got != 1 {
		t.Errorf("refresh calls = %d, want 1 for one burst", got)
	}
}

func TestWatcherIgnoresOtherEvents(t *testing.T) {
	source := &scriptedSource{events: []UEvent{
		{Action: ActionAdd, Subsystem: SubsystemSound, DevName: "snd/pcmC1D0p"},
		{Action: "change", Subsystem: SubsystemSound, DevName: "snd/controlC1"},
		{Action: ActionAdd, Subsystem: "usb"},
	}}
	refresher := &countingRefresher{}

	w := NewWatcher(source, refresher, 10*time.Millisecond)
	w.Start(context.Background())
	time.Sleep(80 * time.Millisecond)
	w.Stop()

	if got := refresher.count(); got != 0 {
		t.Errorf("refresh calls = %d, want 0", got)
	}
}

func TestWatcherKeepsRunningAfterRefreshError(t *testing.T) {
	events := make(chan UEvent)
	source := &channelSource{in: events}
	refresher := &countingRefresher{err: errors.New("aplay missing")}

	w := NewWatcher(source, refresher, 10*time.Millisecond)
	w.Start(context.Background())
	defer w.Stop()

	events <- control(ActionRemove, "1")
	waitForCalls(t, refresher, 1)
	events <- control(ActionAdd, "1")
	waitForCalls(t, refresher, 2)
}

func TestWatcherStopsWhenSourceEnds(t *testing.T) {
	w := NewWatcher(&endedSource{}, &countingRefresher{}, 0)
	if w.settle != DefaultSettle {
		t.Errorf("settle = %v, want %v", w.settle, DefaultSettle)
	}
	w.Start(context.Background())

	select {
	case <-w.done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not exit after source ended")
	}
	w.Stop()
}

func TestStopBeforeStart(_ *testing.T) {
	NewWatcher(&endedSource{}, &countingRefresher{}, 0).Stop()
}

// channelSource forwards events pushed by the test.
type channelSource struct {
	in chan UEvent
}

func (s *channelSource) Run(ctx context.Context, out chan<- UEvent) error {
	defer close(out)
	for {
		select {
		case ev := <-s.in:
			select {
			case out <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

type endedSource struct{}

func (endedSource) Run(_ context.Context, out chan<- UEvent) error {
	close(out)
	return errors.New("socket closed")
}
