// Package systemd integrates the service lifecycle with systemd's
// sd_notify protocol. All calls are no-ops outside a Type=notify unit.
package systemd

import (
	"context"
	"log/slog"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

// NotifyReady tells systemd the service finished startup.
func NotifyReady(logger *slog.Logger) {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		logger.Warn("sd_notify failed", "error", err)
		return
	}
	if sent {
		logger.Debug("Notified systemd: ready")
	}
}

// NotifyStopping tells systemd the service began shutting down.
func NotifyStopping(logger *slog.Logger) {
	if _, err := daemon.SdNotify(false, daemon.SdNotifyStopping); err != nil {
		logger.Warn("sd_notify failed", "error", err)
	}
}

// StartWatchdog pings the systemd watchdog at half the configured interval
// until ctx is cancelled. Returns immediately when no watchdog is set.
func StartWatchdog(ctx context.Context, logger *slog.Logger) {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval == 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval / 2)
		defer ticker.Stop()

		logger.Debug("Systemd watchdog enabled", "interval", interval)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := daemon.SdNotify(false, daemon.SdNotifyWatchdog); err != nil {
					logger.Warn("Watchdog ping failed", "error", err)
				}
			}
		}
	}()
}
