// Package logging provides structured logging for framegrab using Go's
// standard log/slog package.
//
// Each subsystem gets its own named logger with an independently
// adjustable level:
//
//	logger := logging.GetLogger("capture")
//	logger.Info("session started", "device", "/dev/video0")
//
// Output always goes to stdout in text form. When the process runs under
// systemd and the journal socket is available, records are additionally
// written to the journal as native entries with structured fields, so
// journalctl filtering on MODULE, DEVICE and similar keys works without
// parsing message text.
//
// Levels can be changed at runtime, either for every module at once or
// per module:
//
//	logging.SetLevel(slog.LevelDebug)
//	logging.SetModuleLevel("v4l2", slog.LevelDebug)
package logging
