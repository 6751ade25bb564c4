// Package logging provides structured logging with per-module log levels.
//
// Records go to stdout when it is a terminal, pipe or file, and to the
// systemd journal when journald is reachable; both when both are.
//
// Initialize once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"alsa": "debug",
//		},
//	})
//
// and ask for a logger per module:
//
//	logger := logging.GetLogger("jack")
//	logger.Info("Bridge launch requested", "device", "USB")
//
// Levels can change at runtime with SetLevels; loggers already handed out
// follow the change.
//
// Journal entries carry the identifier "jackbridge" and one upper-case
// field per attribute:
//
//	journalctl -t jackbridge MODULE=alsa
package logging
