package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// CaptureConfig represents a single persisted capture definition.
type CaptureConfig struct {
	ID      string `toml:"id" json:"id"`
	Name    string `toml:"name" json:"name"`
	Device  string `toml:"device" json:"device"`
	Enabled bool   `toml:"enabled" json:"enabled"`

	// Capture settings
	Encoding  string `toml:"encoding,omitempty" json:"encoding,omitempty"`
	Aspect    string `toml:"aspect,omitempty" json:"aspect,omitempty"`
	Input     int    `toml:"input,omitempty" json:"input,omitempty"`
	FrameRate int    `toml:"frame_rate,omitempty" json:"frame_rate,omitempty"`
	CachingMs int    `toml:"caching_ms,omitempty" json:"caching_ms,omitempty"`

	// Metadata
	CreatedAt time.Time `toml:"created_at" json:"created_at"`
	UpdatedAt time.Time `toml:"updated_at" json:"updated_at"`
}

// CapturesConfig represents the complete captures configuration file.
type CapturesConfig struct {
	Version  int                      `toml:"version" json:"version"`
	Captures map[string]CaptureConfig `toml:"captures" json:"captures"`
}

// CaptureStore manages persisted capture configurations. Mutations write
// through to the file immediately; safe for concurrent use by the API.
type CaptureStore struct {
	configPath string

	mu     sync.RWMutex
	config *CapturesConfig
}

// NewCaptureStore creates a new capture store.
func NewCaptureStore(configPath string) *CaptureStore {
	if configPath == "" {
		configPath = "captures.toml"
	}

	return &CaptureStore{
		configPath: configPath,
		config: &CapturesConfig{
			Version:  1,
			Captures: make(map[string]CaptureConfig),
		},
	}
}

// Load loads the captures configuration from file. A missing file is an
// empty store, not an error.
func (cs *CaptureStore) Load() error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if _, err := os.Stat(cs.configPath); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(cs.configPath)
	if err != nil {
		return fmt.Errorf("failed to read captures config: %w", err)
	}

	if err := toml.Unmarshal(data, cs.config); err != nil {
		return fmt.Errorf("failed to parse captures config: %w", err)
	}

	if cs.config.Captures == nil {
		cs.config.Captures = make(map[string]CaptureConfig)
	}
	if cs.config.Version == 0 {
		cs.config.Version = 1
	}

	return nil
}

// Save saves the captures configuration to file.
func (cs *CaptureStore) Save() error {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.save()
}

// save writes the file; callers hold the lock.
func (cs *CaptureStore) save() error {
	dir := filepath.Dir(cs.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(cs.config)
	if err != nil {
		return fmt.Errorf("failed to marshal captures config: %w", err)
	}

	if err := os.WriteFile(cs.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write captures config: %w", err)
	}

	return nil
}

// Add adds a new capture to the configuration.
func (cs *CaptureStore) Add(capture CaptureConfig) error {
	if capture.ID == "" {
		return fmt.Errorf("capture ID cannot be empty")
	}
	if capture.Device == "" {
		return fmt.Errorf("device path cannot be empty")
	}
	if capture.Name == "" {
		capture.Name = capture.ID
	}

	now := time.Now()
	if capture.CreatedAt.IsZero() {
		capture.CreatedAt = now
	}
	capture.UpdatedAt = now

	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.config.Captures[capture.ID] = capture
	return cs.save()
}

// Update updates an existing capture configuration.
func (cs *CaptureStore) Update(id string, updates CaptureConfig) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	existing, exists := cs.config.Captures[id]
	if !exists {
		return fmt.Errorf("capture %s not found", id)
	}

	// Preserve creation time and ID
	updates.ID = existing.ID
	updates.CreatedAt = existing.CreatedAt
	updates.UpdatedAt = time.Now()

	if updates.Name == "" {
		updates.Name = existing.Name
	}
	if updates.Device == "" {
		updates.Device = existing.Device
	}

	cs.config.Captures[id] = updates
	return cs.save()
}

// Remove removes a capture from the configuration.
func (cs *CaptureStore) Remove(id string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if _, exists := cs.config.Captures[id]; !exists {
		return fmt.Errorf("capture %s not found", id)
	}

	delete(cs.config.Captures, id)
	return cs.save()
}

// Get retrieves a capture by ID.
func (cs *CaptureStore) Get(id string) (CaptureConfig, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	capture, exists := cs.config.Captures[id]
	return capture, exists
}

// All returns a copy of all captures.
func (cs *CaptureStore) All() map[string]CaptureConfig {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	all := make(map[string]CaptureConfig, len(cs.config.Captures))
	for id, capture := range cs.config.Captures {
		all[id] = capture
	}
	return all
}

// Enabled returns only enabled captures.
func (cs *CaptureStore) Enabled() map[string]CaptureConfig {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	enabled := make(map[string]CaptureConfig)
	for id, capture := range cs.config.Captures {
		if capture.Enabled {
			enabled[id] = capture
		}
	}
	return enabled
}

// SetEnabled enables or disables a capture.
func (cs *CaptureStore) SetEnabled(id string, enabled bool) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	capture, exists := cs.config.Captures[id]
	if !exists {
		return fmt.Errorf("capture %s not found", id)
	}

	capture.Enabled = enabled
	capture.UpdatedAt = time.Now()
	cs.config.Captures[id] = capture
	return cs.save()
}
