package logging

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Module names used across the codebase. GetLogger accepts arbitrary
// names, but these are the ones wired up by default.
var moduleNames = []string{
	"main",
	"capture",
	"v4l2",
	"devices",
	"sink",
	"api",
	"events",
	"config",
}

// Modules returns the default module names.
func Modules() []string {
	out := make([]string, len(moduleNames))
	copy(out, moduleNames)
	return out
}

var (
	mu      sync.Mutex
	loggers = make(map[string]*slog.Logger)
	levels  = make(map[string]*slog.LevelVar)

	defaultLevel   = slog.LevelInfo
	journalEnabled = true
)

// DisableJournal turns off journald output for loggers created after the
// call. Used by CLI subcommands where duplicated journal entries are
// just noise.
func DisableJournal() {
	mu.Lock()
	defer mu.Unlock()
	journalEnabled = false
}

// GetLogger returns the named module logger, creating it on first use.
// The returned logger carries a "module" attribute and writes to stdout
// plus, when available, the systemd journal.
func GetLogger(module string) *slog.Logger {
	mu.Lock()
	defer mu.Unlock()

	if logger, ok := loggers[module]; ok {
		return logger
	}

	level := &slog.LevelVar{}
	level.Set(defaultLevel)
	levels[module] = level

	logger := slog.New(createHandler(level)).With("module", module)
	loggers[module] = logger
	return logger
}

// SetLevel sets the level of every existing module logger and of all
// loggers created afterwards that do not have an explicit override.
func SetLevel(level slog.Level) {
	mu.Lock()
	defer mu.Unlock()

	defaultLevel = level
	for _, lv := range levels {
		lv.Set(level)
	}
}

// SetModuleLevel adjusts a single module's level. The logger is created
// if it does not exist yet.
func SetModuleLevel(module string, level slog.Level) {
	GetLogger(module)

	mu.Lock()
	defer mu.Unlock()
	levels[module].Set(level)
}

// ParseLevel converts a level name to a slog.Level, defaulting to Info
// for unknown input.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ApplyLevels applies a module-to-level map, typically loaded from the
// config file. The special key "default" sets the baseline for all
// modules before per-module overrides.
func ApplyLevels(spec map[string]string) {
	if def, ok := spec["default"]; ok {
		SetLevel(ParseLevel(def))
	}
	for module, name := range spec {
		if module == "default" {
			continue
		}
		SetModuleLevel(module, ParseLevel(name))
	}
}

func createHandler(level slog.Leveler) slog.Handler {
	stdout := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})

	if journalEnabled && IsJournalAvailable() {
		return NewMultiHandler(stdout, NewJournalHandler(level))
	}
	return stdout
}
