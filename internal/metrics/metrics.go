// Package metrics holds the prometheus instrumentation for the capture
// pipeline. A nil *Capture is a valid no-op receiver so callers never need
// to guard their observation calls.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Capture bundles the capture pipeline collectors on one registry.
type Capture struct {
	registry *prometheus.Registry

	frames          *prometheus.CounterVec
	frameBytes      *prometheus.CounterVec
	transientErrors *prometheus.CounterVec
	pollTimeouts    *prometheus.CounterVec
	sessionsActive  prometheus.Gauge
}

// NewCapture registers the capture collectors on a fresh registry.
func NewCapture() *Capture {
	reg := prometheus.NewRegistry()
	c := &Capture{
		registry: reg,
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "framegrab_frames_total",
			Help: "Frames delivered downstream.",
		}, []string{"device"}),
		frameBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "framegrab_frame_bytes_total",
			Help: "Total bytes of delivered frames.",
		}, []string{"device"}),
		transientErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "framegrab_transient_errors_total",
			Help: "Per-cycle I/O errors that produced no frame.",
		}, []string{"device"}),
		pollTimeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "framegrab_poll_timeouts_total",
			Help: "Capture cycles that ended with nothing ready.",
		}, []string{"device"}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "framegrab_sessions_active",
			Help: "Capture sessions currently open.",
		}),
	}
	reg.MustRegister(c.frames, c.frameBytes, c.transientErrors, c.pollTimeouts, c.sessionsActive)
	return c
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Capture) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Frame records one delivered frame of n bytes.
func (c *Capture) Frame(device string, n int) {
	if c == nil {
		return
	}
	c.frames.WithLabelValues(device).Inc()
	c.frameBytes.WithLabelValues(device).Add(float64(n))
}

// TransientError records a swallowed per-cycle I/O error.
func (c *Capture) TransientError(device string) {
	if c == nil {
		return
	}
	c.transientErrors.WithLabelValues(device).Inc()
}

// PollTimeout records an empty capture cycle.
func (c *Capture) PollTimeout(device string) {
	if c == nil {
		return
	}
	c.pollTimeouts.WithLabelValues(device).Inc()
}

// SessionOpened bumps the active session gauge.
func (c *Capture) SessionOpened() {
	if c == nil {
		return
	}
	c.sessionsActive.Inc()
}

// SessionClosed drops the active session gauge.
func (c *Capture) SessionClosed() {
	if c == nil {
		return
	}
	c.sessionsActive.Dec()
}
