// Package capture implements the video capture ingestion core: picture
// format negotiation against a ranked catalog, capability and geometry
// setup, the memory-mapped buffer pool, and the polling capture loop that
// streams timestamped frames into a sink at the device's native rate.
package capture

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/maxaltenhuber/framegrab/internal/metrics"
	"github.com/maxaltenhuber/framegrab/internal/sink"
	"github.com/maxaltenhuber/framegrab/internal/v4l2"
)

// Config is the construction-time configuration of a session. It is read
// once by Open; there is no live reconfiguration.
type Config struct {
	// DevicePath is the capture device node, e.g. /dev/video0.
	DevicePath string
	// OutputEncoding optionally forces an output encoding tag; negotiation
	// selects it whenever the device can produce it at all.
	OutputEncoding string
	// AspectRatio is the display aspect ratio as "W:H"; default 4:3.
	AspectRatio string
	// Input is the video input index to select.
	Input int
	// FrameRate optionally requests a frame rate in frames per second.
	// Zero leaves the driver's current rate untouched.
	FrameRate int
	// Caching is the scheduling delay reported to consumers.
	Caching time.Duration
}

// Session owns one capture device, its negotiated format, the buffer pool
// (memory-mapped strategy) or read block (read strategy), and the stream
// registered with the downstream sink.
type Session struct {
	cfg        Config
	devicePath string

	dev      Device
	strategy IOStrategy
	format   *NegotiatedFormat

	pool    *Pool
	pending *MappedBuffer // delivered last cycle, due for re-queueing
	readBuf []byte

	frameFlag sink.FrameFlags
	out       sink.Sink
	stream    sink.Stream
	controls  *Controls

	state   atomic.Int32
	closed  atomic.Bool
	logger  *slog.Logger
	metrics *metrics.Capture
}

// Open builds a session end to end: device open, capability and format
// setup, buffer pool (when streaming) and stream registration. On any
// failure everything already allocated is rolled back and a SetupError is
// returned; no partial session ever escapes.
func Open(cfg Config, out sink.Sink, m *metrics.Capture, logger *slog.Logger) (*Session, error) {
	dev, err := v4l2.Open(cfg.DevicePath)
	if err != nil {
		return nil, setupErr("open device", err)
	}
	s, err := openDevice(dev, cfg, out, m, logger)
	if err != nil {
		dev.Close()
		return nil, err
	}
	return s, nil
}

// openDevice finishes construction on an already opened device. The caller
// closes dev if an error comes back.
func openDevice(dev Device, cfg Config, out sink.Sink, m *metrics.Capture, logger *slog.Logger) (*Session, error) {
	strategy, nf, err := setup(dev, cfg, logger)
	if err != nil {
		return nil, err
	}

	s := &Session{
		cfg:        cfg,
		devicePath: cfg.DevicePath,
		dev:        dev,
		strategy:   strategy,
		format:     nf,
		frameFlag:  nf.Interlacing.FrameFlag(),
		out:        out,
		logger:     logger,
		metrics:    m,
	}

	stream, err := out.AddStream(nf.StreamInfo(cfg.AspectRatio))
	if err != nil {
		return nil, setupErr("add stream", err)
	}
	s.stream = stream

	switch strategy {
	case IORead:
		s.readBuf = make([]byte, nf.SizeImage)
	case IOMemoryMapped:
		pool, err := newPool(dev, logger)
		if err != nil {
			s.removeStream()
			return nil, err
		}
		s.pool = pool
	}

	s.controls = newControls(dev, logger)
	s.metrics.SessionOpened()
	return s, nil
}

// Format returns the immutable negotiated format.
func (s *Session) Format() NegotiatedFormat { return *s.format }

// Strategy returns the I/O strategy chosen at setup.
func (s *Session) Strategy() IOStrategy { return s.strategy }

// Stream returns the stream handle registered with the sink.
func (s *Session) Stream() sink.Stream { return s.stream }

// Controls exposes the device control passthrough handle.
func (s *Session) Controls() *Controls { return s.controls }

// Close tears the session down: pool retract/unmap, controls, device.
// Idempotent, and safe after a partially failed Open since every stage
// cleans up behind itself.
func (s *Session) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	if s.pool != nil {
		s.pool.Close()
	}
	if s.controls != nil {
		s.controls.Close()
	}
	s.removeStream()
	if err := s.dev.Close(); err != nil {
		s.logger.Warn("Cannot close device", "error", err)
	}
	s.metrics.SessionClosed()
}

func (s *Session) removeStream() {
	if s.stream == nil {
		return
	}
	if r, ok := s.out.(interface{ RemoveStream(sink.Stream) }); ok {
		r.RemoveStream(s.stream)
	}
	s.stream = nil
}

// Diagnostic queries. Live capture cannot pause, seek or pace.

// CanPause always reports false.
func (s *Session) CanPause() bool { return false }

// CanSeek always reports false.
func (s *Session) CanSeek() bool { return false }

// CanControlPace always reports false.
func (s *Session) CanControlPace() bool { return false }

// SchedulingDelay is the configured caching latency consumers should
// schedule around.
func (s *Session) SchedulingDelay() time.Duration { return s.cfg.Caching }

// Now reads the session clock frames are stamped with.
func (s *Session) Now() time.Time { return time.Now() }
