package capture

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/maxaltenhuber/framegrab/internal/events"
	"github.com/maxaltenhuber/framegrab/internal/metrics"
	"github.com/maxaltenhuber/framegrab/internal/sink"
)

// Manager owns the running capture sessions and plays the scheduler role:
// each session gets one driver goroutine that steps its loop until a fatal
// error or a stop request.
type Manager struct {
	out     sink.Sink
	bus     *events.Bus
	metrics *metrics.Capture
	logger  *slog.Logger

	// open builds a session for a config; tests substitute fakes.
	open func(Config, sink.Sink, *metrics.Capture, *slog.Logger) (*Session, error)

	mu       sync.Mutex
	sessions map[string]*managed
}

type managed struct {
	id       string
	session  *Session
	cfg      Config
	streamID string
	stop     chan struct{}
	done     chan struct{}
	fatal    error
	started  time.Time
}

// SessionStatus is a point-in-time view of one managed session.
type SessionStatus struct {
	ID         string
	DevicePath string
	StreamID   string
	Codec      string
	Width      uint32
	Height     uint32
	Strategy   string
	State      string
	Started    time.Time
	Error      string
}

// NewManager creates an empty session manager.
func NewManager(out sink.Sink, bus *events.Bus, m *metrics.Capture, logger *slog.Logger) *Manager {
	return &Manager{
		out:      out,
		bus:      bus,
		metrics:  m,
		logger:   logger,
		open:     Open,
		sessions: make(map[string]*managed),
	}
}

// Start opens a session for cfg and begins driving its capture loop.
// Construction failures surface synchronously; the caller gets no session
// id unless the session fully opened.
func (m *Manager) Start(cfg Config) (string, error) {
	session, err := m.open(cfg, m.out, m.metrics, m.logger.With("device", cfg.DevicePath))
	if err != nil {
		return "", err
	}

	ms := &managed{
		id:       uuid.NewString(),
		session:  session,
		cfg:      cfg,
		streamID: session.Stream().ID(),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		started:  time.Now(),
	}

	m.mu.Lock()
	m.sessions[ms.id] = ms
	m.mu.Unlock()

	m.publish(events.SessionStartedEvent{
		SessionID:  ms.id,
		DevicePath: cfg.DevicePath,
		StreamID:   session.Stream().ID(),
		Codec:      session.Format().Desc.Output,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})

	go m.drive(ms)
	return ms.id, nil
}

// drive steps the session until stopped or dead. Teardown only happens
// here, between cycles, so the loop never races its own session.
func (m *Manager) drive(ms *managed) {
	defer close(ms.done)
	defer ms.session.Close()

	for {
		select {
		case <-ms.stop:
			return
		default:
		}

		if _, err := ms.session.Step(); err != nil {
			m.mu.Lock()
			ms.fatal = err
			m.mu.Unlock()
			m.logger.Error("Capture loop ended",
				"session_id", ms.id, "device", ms.cfg.DevicePath, "error", err)
			m.publish(events.SessionErrorEvent{
				SessionID:  ms.id,
				DevicePath: ms.cfg.DevicePath,
				Error:      err.Error(),
				Timestamp:  time.Now().UTC().Format(time.RFC3339),
			})
			return
		}
	}
}

// Stop tears one session down and waits for its driver to finish. The
// in-flight cycle bounds the wait by the poll timeout.
func (m *Manager) Stop(id string) error {
	m.mu.Lock()
	ms, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown session %q", id)
	}

	close(ms.stop)
	<-ms.done

	m.publish(events.SessionStoppedEvent{
		SessionID:  id,
		DevicePath: ms.cfg.DevicePath,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
	return nil
}

// StopAll tears down every session.
func (m *Manager) StopAll() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		if err := m.Stop(id); err != nil {
			m.logger.Warn("Cannot stop session", "session_id", id, "error", err)
		}
	}
}

// List reports every managed session, dead ones included until stopped.
func (m *Manager) List() []SessionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]SessionStatus, 0, len(m.sessions))
	for _, ms := range m.sessions {
		out = append(out, m.status(ms))
	}
	return out
}

// Get reports one session's status.
func (m *Manager) Get(id string) (SessionStatus, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms, ok := m.sessions[id]
	if !ok {
		return SessionStatus{}, false
	}
	return m.status(ms), true
}

// Controls returns the control surface of a live session. Dead sessions
// report no controls; their descriptor is already closed.
func (m *Manager) Controls(id string) (*Controls, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms, ok := m.sessions[id]
	if !ok || ms.fatal != nil {
		return nil, false
	}
	return ms.session.Controls(), true
}

func (m *Manager) status(ms *managed) SessionStatus {
	f := ms.session.Format()
	st := SessionStatus{
		ID:         ms.id,
		DevicePath: ms.cfg.DevicePath,
		Codec:      f.Desc.Output,
		Width:      f.Width,
		Height:     f.Height,
		StreamID:   ms.streamID,
		Strategy:   ms.session.Strategy().String(),
		State:      ms.session.State().String(),
		Started:    ms.started,
	}
	if ms.fatal != nil {
		st.Error = ms.fatal.Error()
	}
	return st
}

func (m *Manager) publish(ev events.Event) {
	if m.bus != nil {
		m.bus.Publish(ev)
	}
}
