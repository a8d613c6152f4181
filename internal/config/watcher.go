package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// LevelWatcher reapplies logging levels when the daemon's config file
// changes on disk. Only the [logging] table is live; every other key is
// read once at startup and needs a restart, so the watcher parses just
// that table and hands it to the apply callback.
type LevelWatcher struct {
	path     string
	debounce time.Duration
	load     func(path string) (map[string]string, error)
	apply    func(levels map[string]string)
	onError  func(error)
	logger   *slog.Logger
	fsw      *fsnotify.Watcher
	ctx      context.Context
	cancel   context.CancelFunc
}

// LevelWatcherOption configures a LevelWatcher.
type LevelWatcherOption func(*LevelWatcher)

// WithDebounce overrides the settle time between a file event and the
// reload. Editors often produce several events per save.
func WithDebounce(d time.Duration) LevelWatcherOption {
	return func(w *LevelWatcher) {
		w.debounce = d
	}
}

// WithErrorHandler sets a callback for files that fail to parse. Parse
// failures are logged either way; the running levels stay untouched.
func WithErrorHandler(handler func(error)) LevelWatcherOption {
	return func(w *LevelWatcher) {
		w.onError = handler
	}
}

// NewLevelWatcher creates a watcher on the config file at path. apply
// receives the freshly parsed module-to-level map after each change; the
// file is re-read on every event so apply never sees stale data.
func NewLevelWatcher(path string, apply func(map[string]string), logger *slog.Logger, opts ...LevelWatcherOption) *LevelWatcher {
	ctx, cancel := context.WithCancel(context.Background())
	w := &LevelWatcher{
		path:     path,
		debounce: 1500 * time.Millisecond,
		load:     loadLoggingTable,
		apply:    apply,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching the config file.
func (w *LevelWatcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(w.path); err != nil {
		fsw.Close()
		return err
	}
	w.fsw = fsw

	w.logger.Info("Watching config for log level changes", "path", w.path)
	go w.watch()
	return nil
}

// Stop ends the watch.
func (w *LevelWatcher) Stop() error {
	w.cancel()
	if w.fsw != nil {
		return w.fsw.Close()
	}
	return nil
}

func (w *LevelWatcher) watch() {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-w.ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			// Write for in-place saves, create for editors that replace
			// the file.
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			timerC = timer.C

		case <-timerC:
			timerC = nil
			w.reload()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Config watch error", "error", err)
		}
	}
}

func (w *LevelWatcher) reload() {
	levels, err := w.load(w.path)
	if err != nil {
		w.logger.Warn("Cannot reload logging levels", "path", w.path, "error", err)
		if w.onError != nil {
			w.onError(err)
		}
		return
	}
	if len(levels) == 0 {
		w.logger.Debug("Config changed without a logging table, keeping levels")
		return
	}
	w.logger.Info("Config changed, applying logging levels", "count", len(levels))
	w.apply(levels)
}
