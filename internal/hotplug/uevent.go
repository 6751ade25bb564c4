// Package hotplug watches kernel uevents for sound cards being added or
// removed and refreshes the device inventory when they are.
package hotplug

import (
	"bytes"
	"strconv"
	"strings"
)

// Uevent actions that change the set of sound cards.
const (
	ActionAdd    = "add"
	ActionRemove = "remove"
)

// SubsystemSound is the uevent subsystem of ALSA devices.
const SubsystemSound = "sound"

// UEvent is one kernel device event.
type UEvent struct {
	Action    string
	KObj      string // e.g. /devices/pci0000:00/0000:00:14.0/usb1/1-2/1-2:1.0/sound/card1/controlC1
	Subsystem string
	DevName   string // relative to /dev, e.g. snd/controlC1
	Env       map[string]string
}

// ParseUEvent decodes a kernel uevent datagram of the form
// "ACTION@KOBJ\0KEY=VALUE\0...". Messages rebroadcast by udev carry a
// binary "libudev" header and are not accepted.
func ParseUEvent(data []byte) (UEvent, bool) {
	if len(data) == 0 || bytes.HasPrefix(data, []byte("libudev")) {
		return UEvent{}, false
	}

	parts := bytes.Split(data, []byte{0})
	action, kobj, ok := strings.Cut(string(parts[0]), "@")
	if !ok || action == "" || kobj == "" {
		return UEvent{}, false
	}

	ev := UEvent{
		Action: action,
		KObj:   kobj,
		Env:    make(map[string]string),
	}
	for _, part := range parts[1:] {
		key, value, ok := strings.Cut(string(part), "=")
		if !ok || key == "" {
			continue
		}
		ev.Env[key] = value

		switch key {
		case "SUBSYSTEM":
			ev.Subsystem = value
		case "DEVNAME":
			ev.DevName = value
		}
	}
	return ev, true
}

// Card returns the card index when the event is for a card's control
// device. The kernel registers the control device once the card is
// complete and drops it first on removal, so it stands for the whole card.
func (e UEvent) Card() (string, bool) {
	if e.Subsystem != SubsystemSound {
		return "", false
	}
	index, ok := strings.CutPrefix(e.DevName, "snd/controlC")
	if !ok {
		return "", false
	}
	if _, err := strconv.Atoi(index); err != nil {
		return "", false
	}
	return index, true
}
