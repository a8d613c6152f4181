package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func startWatcher(t *testing.T, w *LevelWatcher) {
	t.Helper()
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := w.Stop(); err != nil {
			t.Errorf("watcher.Stop failed: %v", err)
		}
	})
	// Give the watch goroutine a moment to pick up the fd.
	time.Sleep(100 * time.Millisecond)
}

func TestLevelWatcherAppliesChangedLevels(t *testing.T) {
	path := writeConfigFile(t, "[logging]\nlevel = \"info\"\n")

	applied := make(chan map[string]string, 1)
	w := NewLevelWatcher(path, func(levels map[string]string) {
		applied <- levels
	}, newTestLogger(), WithDebounce(50*time.Millisecond))
	startWatcher(t, w)

	if err := os.WriteFile(path, []byte("[logging]\nlevel = \"debug\"\nv4l2 = \"debug\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case levels := <-applied:
		if levels["default"] != "debug" || levels["v4l2"] != "debug" {
			t.Errorf("got %+v, want default=debug, v4l2=debug", levels)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for level reload")
	}
}

func TestLevelWatcherLoadsFreshEachChange(t *testing.T) {
	path := writeConfigFile(t, "[logging]\nlevel = \"info\"\n")

	var loads atomic.Int32
	applied := make(chan map[string]string, 10)
	w := NewLevelWatcher(path, func(levels map[string]string) {
		applied <- levels
	}, newTestLogger(), WithDebounce(50*time.Millisecond))
	w.load = func(p string) (map[string]string, error) {
		loads.Add(1)
		return loadLoggingTable(p)
	}
	startWatcher(t, w)

	if err := os.WriteFile(path, []byte("[logging]\nlevel = \"warn\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	<-applied

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("[logging]\nlevel = \"error\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	levels := <-applied

	if levels["default"] != "error" {
		t.Errorf("latest default = %q, want error", levels["default"])
	}
	if got := loads.Load(); got < 2 {
		t.Errorf("expected at least 2 loads, got %d", got)
	}
}

func TestLevelWatcherErrorHandler(t *testing.T) {
	path := writeConfigFile(t, "[logging]\nlevel = \"info\"\n")

	errs := make(chan error, 1)
	var applies atomic.Int32
	w := NewLevelWatcher(path, func(map[string]string) {
		applies.Add(1)
	}, newTestLogger(),
		WithDebounce(50*time.Millisecond),
		WithErrorHandler(func(e error) { errs <- e }))
	startWatcher(t, w)

	// Broken TOML must reach the error handler and leave levels alone.
	if err := os.WriteFile(path, []byte("[logging\nlevel ="), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-errs:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for error handler")
	}
	if applies.Load() != 0 {
		t.Errorf("apply ran %d times on a broken file", applies.Load())
	}
}

func TestLevelWatcherIgnoresMissingLoggingTable(t *testing.T) {
	path := writeConfigFile(t, "[logging]\nlevel = \"info\"\n")

	var applies atomic.Int32
	w := NewLevelWatcher(path, func(map[string]string) {
		applies.Add(1)
	}, newTestLogger(), WithDebounce(50*time.Millisecond))
	startWatcher(t, w)

	if err := os.WriteFile(path, []byte("[server]\nport = \":9090\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(300 * time.Millisecond)
	if applies.Load() != 0 {
		t.Errorf("apply ran %d times without a logging table", applies.Load())
	}
}
