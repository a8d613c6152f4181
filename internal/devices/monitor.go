package devices

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/maxaltenhuber/framegrab/internal/events"
)

// Hotplug coalescing: the kernel creates several nodes per physical device
// in quick succession, so rescans are debounced.
const rescanDebounce = time.Second

// Monitor watches /dev for video node hotplug and publishes discovery
// events for added and removed devices.
type Monitor struct {
	scanner *Scanner
	bus     *events.Bus
	logger  *slog.Logger

	mu     sync.Mutex
	known  map[string]DeviceInfo
	cancel context.CancelFunc

	watchDir string
	watcher  *fsnotify.Watcher
}

// NewMonitor creates a hotplug monitor over the scanner's device set.
func NewMonitor(scanner *Scanner, bus *events.Bus, logger *slog.Logger) *Monitor {
	return &Monitor{
		scanner:  scanner,
		bus:      bus,
		logger:   logger,
		known:    make(map[string]DeviceInfo),
		watchDir: "/dev",
	}
}

// Start seeds the known device set, publishes an "added" event per present
// device, and begins watching for node changes.
func (m *Monitor) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	devs, err := m.scanner.Scan()
	if err != nil {
		m.logger.Warn("Initial device scan failed", "error", err)
	}
	m.mu.Lock()
	for _, dev := range devs {
		m.known[dev.Path] = dev
		m.publish(dev.Path, "added")
	}
	m.mu.Unlock()
	m.logger.Info("Device monitor initialized", "count", len(devs))

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		cancel()
		return err
	}
	if err := watcher.Add(m.watchDir); err != nil {
		watcher.Close()
		cancel()
		return err
	}
	m.watcher = watcher

	go m.watch(ctx)
	return nil
}

// Stop halts the monitor.
func (m *Monitor) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	if m.watcher != nil {
		m.watcher.Close()
	}
}

// Devices returns the current known device set.
func (m *Monitor) Devices() []DeviceInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]DeviceInfo, 0, len(m.known))
	for _, dev := range m.known {
		out = append(out, dev)
	}
	sort.Slice(out, func(i, j int) bool {
		return devicePathLess(out[i].Path, out[j].Path)
	})
	return out
}

func (m *Monitor) watch(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			m.logger.Debug("Device monitor stopped")
			return

		case ev, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if !isVideoNode(ev.Name) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Remove) != 0 {
				m.logger.Debug("Device node event", "op", ev.Op.String(), "path", ev.Name)
				if timer != nil {
					timer.Stop()
				}
				timer = time.NewTimer(rescanDebounce)
				timerC = timer.C
			}

		case <-timerC:
			m.rescan()
			timerC = nil

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.logger.Warn("Device watcher error", "error", err)
		}
	}
}

// rescan diffs the current device set against the known one and publishes
// the delta.
func (m *Monitor) rescan() {
	devs, err := m.scanner.Scan()
	if err != nil {
		m.logger.Error("Device rescan failed", "error", err)
		return
	}

	current := make(map[string]DeviceInfo, len(devs))
	for _, dev := range devs {
		current[dev.Path] = dev
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for path, old := range m.known {
		if _, exists := current[path]; !exists {
			delete(m.known, path)
			m.publish(path, "removed")
			m.logger.Info("Device removed", "path", path, "name", old.Name)
		}
	}
	for path, dev := range current {
		if _, exists := m.known[path]; !exists {
			m.known[path] = dev
			m.publish(path, "added")
			m.logger.Info("Device added", "path", path, "name", dev.Name)
		}
	}
}

func (m *Monitor) publish(path, action string) {
	if m.bus == nil {
		return
	}
	m.bus.Publish(events.DeviceDiscoveryEvent{
		DevicePath: path,
		Action:     action,
		Timestamp:  time.Now().Format(time.RFC3339),
	})
}

func isVideoNode(path string) bool {
	base := filepath.Base(path)
	if !strings.HasPrefix(base, "video") {
		return false
	}
	_, ok := nodeNumber(path)
	return ok
}
