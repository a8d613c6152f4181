package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"

	"github.com/maxaltenhuber/framegrab/cmd"
	"github.com/maxaltenhuber/framegrab/internal/api"
	"github.com/maxaltenhuber/framegrab/internal/capture"
	"github.com/maxaltenhuber/framegrab/internal/config"
	"github.com/maxaltenhuber/framegrab/internal/devices"
	"github.com/maxaltenhuber/framegrab/internal/events"
	"github.com/maxaltenhuber/framegrab/internal/logging"
	"github.com/maxaltenhuber/framegrab/internal/metrics"
	"github.com/maxaltenhuber/framegrab/internal/sink"
	"github.com/maxaltenhuber/framegrab/internal/systemd"
	"github.com/maxaltenhuber/framegrab/internal/version"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port string `help:"Address to listen on" short:"p" default:":8080" toml:"server.port" env:"SERVER_PORT"`

	// Captures settings
	CapturesConfigFile string `help:"Capture definitions file" default:"captures.toml" toml:"captures.config_file" env:"CAPTURES_CONFIG_FILE"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Capture defaults for sessions started without explicit values
	CaptureCachingMs int    `help:"Default scheduling delay in milliseconds" default:"300" toml:"capture.caching_ms" env:"CAPTURE_CACHING_MS"`
	CaptureAspect    string `help:"Default display aspect ratio" default:"4:3" toml:"capture.aspect" env:"CAPTURE_ASPECT"`

	// Logging settings
	LoggingLevel   string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingCapture string `help:"Capture logging level" default:"" toml:"logging.capture" env:"LOGGING_CAPTURE"`
	LoggingV4L2    string `help:"V4L2 logging level" default:"" toml:"logging.v4l2" env:"LOGGING_V4L2"`
	LoggingDevices string `help:"Devices logging level" default:"" toml:"logging.devices" env:"LOGGING_DEVICES"`
	LoggingAPI     string `help:"API logging level" default:"" toml:"logging.api" env:"LOGGING_API"`
}

// deviceService joins discovery and format enumeration for the API.
type deviceService struct {
	*devices.Monitor
	scanner *devices.Scanner
}

func (d deviceService) Formats(path string) ([]devices.FormatInfo, error) {
	return d.scanner.Formats(path)
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		applyLogging(opts)
		logger := logging.GetLogger("main")

		eventBus := events.New()
		captureMetrics := metrics.NewCapture()

		hub := sink.NewHub(logging.GetLogger("sink"))
		manager := capture.NewManager(hub, eventBus, captureMetrics, logging.GetLogger("capture"))

		scanner := devices.NewScanner(logging.GetLogger("devices"))
		monitor := devices.NewMonitor(scanner, eventBus, logging.GetLogger("devices"))

		// Captures persisted in the definitions file start with the server
		// and are edited through the API.
		store := config.NewCaptureStore(opts.CapturesConfigFile)

		server := api.NewServer(&api.Options{
			AuthUsername:      opts.AuthUsername,
			AuthPassword:      opts.AuthPassword,
			Sessions:          manager,
			Devices:           deviceService{Monitor: monitor, scanner: scanner},
			Captures:          store,
			PrometheusHandler: captureMetrics.Handler(),
		})

		// Live log level reload from the config file.
		levelWatcher := config.NewLevelWatcher(opts.Config, logging.ApplyLevels, logger)

		hooks.OnStart(func() {
			if err := monitor.Start(context.Background()); err != nil {
				logger.Warn("Device monitoring unavailable", "error", err)
			}

			if err := store.Load(); err != nil {
				logger.Warn("Cannot load capture definitions", "error", err, "path", opts.CapturesConfigFile)
			} else {
				startPersistedCaptures(store, manager, opts, logger)
			}

			if _, err := os.Stat(opts.Config); err == nil {
				if err := levelWatcher.Start(); err != nil {
					logger.Warn("Config watcher unavailable", "error", err)
				}
			}

			systemd.NotifyReady(logger)
			systemd.StartWatchdog(context.Background(), logger)

			logger.Info("Starting HTTP server", "addr", opts.Port, "version", version.String())
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			systemd.NotifyStopping(logger)
			logger.Info("Shutting down")
			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}

			manager.StopAll()
			monitor.Stop()
			if stopErr := levelWatcher.Stop(); stopErr != nil {
				logger.Warn("Error stopping config watcher", "error", stopErr)
			}
			hub.Stop()
		})
	})

	cli.Root().AddCommand(cmd.CreateFormatsCmd())
	cli.Root().AddCommand(cmd.CreateCaptureCmd())

	cli.Run()
}

func applyLogging(opts *Options) {
	logging.SetLevel(logging.ParseLevel(opts.LoggingLevel))

	modules := map[string]string{
		"capture": opts.LoggingCapture,
		"v4l2":    opts.LoggingV4L2,
		"devices": opts.LoggingDevices,
		"api":     opts.LoggingAPI,
	}
	for module, level := range modules {
		if level != "" {
			logging.SetModuleLevel(module, logging.ParseLevel(level))
		}
	}
}

// startPersistedCaptures opens every enabled capture from the definitions
// file. Failures are logged and skipped; one unplugged device should not
// keep the rest from starting.
func startPersistedCaptures(store *config.CaptureStore, manager *capture.Manager, opts *Options, logger *slog.Logger) {
	for id, cc := range store.Enabled() {
		path, err := devices.ResolveDevicePath(cc.Device)
		if err != nil {
			logger.Warn("Skipping capture, device unresolved", "capture", id, "device", cc.Device, "error", err)
			continue
		}

		cfg := capture.Config{
			DevicePath:     path,
			OutputEncoding: cc.Encoding,
			AspectRatio:    cc.Aspect,
			Input:          cc.Input,
			FrameRate:      cc.FrameRate,
			Caching:        time.Duration(cc.CachingMs) * time.Millisecond,
		}
		if cfg.AspectRatio == "" {
			cfg.AspectRatio = opts.CaptureAspect
		}
		if cc.CachingMs == 0 {
			cfg.Caching = time.Duration(opts.CaptureCachingMs) * time.Millisecond
		}

		sessionID, err := manager.Start(cfg)
		if err != nil {
			logger.Warn("Cannot start persisted capture", "capture", id, "device", path, "error", err)
			continue
		}
		logger.Info("Started persisted capture", "capture", id, "session_id", sessionID, "device", path)
	}
}
