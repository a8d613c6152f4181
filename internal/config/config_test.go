package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

type testOptions struct {
	Config string `help:"Config file path"`

	Device    string   `toml:"capture.device" env:"DEVICE"`
	Encoding  string   `toml:"capture.encoding" env:"ENCODING"`
	CachingMs int      `toml:"capture.caching_ms" env:"CACHING_MS"`
	Debug     bool     `toml:"debug" env:"DEBUG"`
	Tags      []string `toml:"tags" env:"TAGS"`
}

func TestLoadConfigFromTOML(t *testing.T) {
	tomlContent := `
debug = true
tags = ["lab", "bench"]

[capture]
device = "/dev/video2"
encoding = "mjpg"
caching_ms = 250
`

	tmpFile, err := os.CreateTemp("", "framegrab_*.toml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, writeErr := tmpFile.WriteString(tomlContent); writeErr != nil {
		t.Fatalf("Failed to write to temp file: %v", writeErr)
	}
	tmpFile.Close()

	opts := &testOptions{Config: tmpFile.Name()}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if opts.Device != "/dev/video2" {
		t.Errorf("Device = %q, want /dev/video2", opts.Device)
	}
	if opts.Encoding != "mjpg" {
		t.Errorf("Encoding = %q, want mjpg", opts.Encoding)
	}
	if opts.CachingMs != 250 {
		t.Errorf("CachingMs = %d, want 250", opts.CachingMs)
	}
	if !opts.Debug {
		t.Error("Debug = false, want true")
	}
	wantTags := []string{"lab", "bench"}
	if !reflect.DeepEqual(opts.Tags, wantTags) {
		t.Errorf("Tags = %v, want %v", opts.Tags, wantTags)
	}
}

func TestLoadConfigFromEnvVars(t *testing.T) {
	t.Setenv("FRAMEGRAB_DEVICE", "/dev/video5")
	t.Setenv("FRAMEGRAB_CACHING_MS", "100")
	t.Setenv("FRAMEGRAB_DEBUG", "true")
	t.Setenv("FRAMEGRAB_TAGS", "a, b,c")

	opts := &testOptions{}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if opts.Device != "/dev/video5" {
		t.Errorf("Device = %q, want /dev/video5", opts.Device)
	}
	if opts.CachingMs != 100 {
		t.Errorf("CachingMs = %d, want 100", opts.CachingMs)
	}
	if !opts.Debug {
		t.Error("Debug = false, want true")
	}
	wantTags := []string{"a", "b", "c"}
	if !reflect.DeepEqual(opts.Tags, wantTags) {
		t.Errorf("Tags = %v, want %v", opts.Tags, wantTags)
	}
}

func TestEnvDoesNotOverrideMissing(t *testing.T) {
	opts := &testOptions{Device: "/dev/video0"}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if opts.Device != "/dev/video0" {
		t.Errorf("Device = %q, want /dev/video0", opts.Device)
	}
}

func TestFieldNameToFlag(t *testing.T) {
	tests := []struct {
		field string
		want  string
	}{
		{"Port", "port"},
		{"LoggingLevel", "logging-level"},
		{"CachingMs", "caching-ms"},
	}

	for _, tt := range tests {
		if got := fieldNameToFlag(tt.field); got != tt.want {
			t.Errorf("fieldNameToFlag(%q) = %q, want %q", tt.field, got, tt.want)
		}
	}
}

func TestLoadLoggingLevels(t *testing.T) {
	tomlContent := `
[logging]
level = "warn"
v4l2 = "debug"
capture = "info"
`

	tmpFile, err := os.CreateTemp("", "framegrab_logging_*.toml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpFile.Name())
	tmpFile.WriteString(tomlContent)
	tmpFile.Close()

	levels := LoadLoggingLevels(tmpFile.Name())
	want := map[string]string{
		"default": "warn",
		"v4l2":    "debug",
		"capture": "info",
	}
	if !reflect.DeepEqual(levels, want) {
		t.Errorf("LoadLoggingLevels = %v, want %v", levels, want)
	}
}

func TestLoadLoggingLevelsMissingFile(t *testing.T) {
	levels := LoadLoggingLevels("/nonexistent/framegrab.toml")
	if len(levels) != 0 {
		t.Errorf("expected empty map for missing file, got %v", levels)
	}
}

func TestCaptureStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "captures.toml")
	store := NewCaptureStore(path)

	if err := store.Load(); err != nil {
		t.Fatalf("Load on missing file failed: %v", err)
	}

	err := store.Add(CaptureConfig{
		ID:       "bench",
		Device:   "/dev/video0",
		Encoding: "yuyv",
		Enabled:  true,
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	// New store reading the same file should see the capture.
	reloaded := NewCaptureStore(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	got, ok := reloaded.Get("bench")
	if !ok {
		t.Fatal("capture bench not found after reload")
	}
	if got.Device != "/dev/video0" || got.Encoding != "yuyv" {
		t.Errorf("got %+v", got)
	}
	if got.Name != "bench" {
		t.Errorf("Name = %q, want defaulted ID", got.Name)
	}
}

func TestCaptureStoreValidation(t *testing.T) {
	store := NewCaptureStore(filepath.Join(t.TempDir(), "captures.toml"))

	if err := store.Add(CaptureConfig{Device: "/dev/video0"}); err == nil {
		t.Error("expected error for empty ID")
	}
	if err := store.Add(CaptureConfig{ID: "x"}); err == nil {
		t.Error("expected error for empty device")
	}
	if err := store.Remove("missing"); err == nil {
		t.Error("expected error removing unknown capture")
	}
}

func TestCaptureStoreEnabled(t *testing.T) {
	store := NewCaptureStore(filepath.Join(t.TempDir(), "captures.toml"))

	store.Add(CaptureConfig{ID: "on", Device: "/dev/video0", Enabled: true})
	store.Add(CaptureConfig{ID: "off", Device: "/dev/video1"})

	enabled := store.Enabled()
	if len(enabled) != 1 {
		t.Fatalf("Enabled() returned %d captures, want 1", len(enabled))
	}
	if _, ok := enabled["on"]; !ok {
		t.Error("expected capture 'on' in enabled set")
	}

	if err := store.SetEnabled("off", true); err != nil {
		t.Fatalf("SetEnabled failed: %v", err)
	}
	if len(store.Enabled()) != 2 {
		t.Error("expected 2 enabled captures after SetEnabled")
	}
}
