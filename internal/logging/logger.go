package logging

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Logger is satisfied by *slog.Logger. Packages hold this instead of the
// concrete type so tests can pass any slog logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config represents logging configuration.
type Config struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"`
	Modules map[string]string `toml:"modules"`
}

var (
	mu          sync.RWMutex
	config      Config
	initialized bool
	globalLevel = &slog.LevelVar{}
	loggers     = make(map[string]*slog.Logger)
	levels      = make(map[string]*slog.LevelVar)
)

// Initialize configures output and levels. Loggers handed out earlier keep
// their identity and pick up the new handler chain and level.
func Initialize(cfg Config) {
	mu.Lock()
	defer mu.Unlock()

	config = cfg
	initialized = true

	globalLevel.Set(levelFor(cfg, ""))
	for module, lv := range levels {
		lv.Set(levelFor(cfg, module))
		*loggers[module] = *slog.New(createHandler(cfg.Format, lv)).With("module", module)
	}

	slog.SetDefault(slog.New(createHandler(cfg.Format, globalLevel)))
}

// SetLevels applies new global and per-module levels without touching the
// handler chain. Used when the config file is edited at runtime.
func SetLevels(level string, modules map[string]string) {
	mu.Lock()
	defer mu.Unlock()

	config.Level = level
	config.Modules = modules

	globalLevel.Set(levelFor(config, ""))
	for module, lv := range levels {
		lv.Set(levelFor(config, module))
	}
}

// GetLogger returns the logger for module, creating it on first use.
func GetLogger(module string) *slog.Logger {
	mu.RLock()
	logger, ok := loggers[module]
	mu.RUnlock()
	if ok {
		return logger
	}

	mu.Lock()
	defer mu.Unlock()

	if logger, ok := loggers[module]; ok {
		return logger
	}

	lv := &slog.LevelVar{}
	format := "text"
	if initialized {
		lv.Set(levelFor(config, module))
		format = config.Format
	}

	logger = slog.New(createHandler(format, lv)).With("module", module)
	loggers[module] = logger
	levels[module] = lv
	return logger
}

// levelFor resolves a module's level: module override, then global, then info.
// An empty module resolves the global level.
func levelFor(cfg Config, module string) slog.Level {
	if module != "" {
		if l, ok := parseLevel(cfg.Modules[module]); ok {
			return l
		}
	}
	if l, ok := parseLevel(cfg.Level); ok {
		return l
	}
	return slog.LevelInfo
}

// createHandler writes to stdout and to the journal, whichever are present.
func createHandler(format string, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}

	var stdoutHandler slog.Handler
	if format == "json" {
		stdoutHandler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		stdoutHandler = slog.NewTextHandler(os.Stdout, opts)
	}

	var handlers []slog.Handler
	if isStdoutAvailable() {
		handlers = append(handlers, stdoutHandler)
	}
	if IsJournalAvailable() {
		handlers = append(handlers, NewJournalHandler(level))
	}

	switch len(handlers) {
	case 0:
		return stdoutHandler
	case 1:
		return handlers[0]
	default:
		return NewMultiHandler(handlers...)
	}
}

// isStdoutAvailable checks if stdout is connected to a terminal, pipe, socket, or file.
func isStdoutAvailable() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	mode := fi.Mode()
	// /dev/null is a device, so it is excluded here.
	return (mode&os.ModeCharDevice) != 0 || (mode&os.ModeNamedPipe) != 0 || (mode&os.ModeSocket) != 0 || mode.IsRegular()
}

func parseLevel(level string) (slog.Level, bool) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return 0, false
	}
}
