package capture

import (
	"errors"
	"time"

	"golang.org/x/sys/unix"

	"github.com/maxaltenhuber/framegrab/internal/sink"
)

// pollTimeout bounds one readiness wait so the session's owner stays
// responsive; an empty cycle is not an error.
const pollTimeout = 500 * time.Millisecond

// LoopState is the capture loop's observable state after the last cycle.
type LoopState int32

const (
	StateIdle LoopState = iota
	StateWaitingForData
	StateFrameReady
	StateError
)

func (s LoopState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWaitingForData:
		return "waiting"
	case StateFrameReady:
		return "frame-ready"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Step runs one capture cycle: re-queue the previously delivered mmap
// buffer, wait for readiness, pull at most one frame and deliver it.
// Returns whether a frame went out. A nil error with no frame means an
// empty cycle; a FatalError means the loop must not be stepped again.
func (s *Session) Step() (bool, error) {
	// The consumer had until now to use the previous cycle's mapped region.
	if s.pending != nil {
		if err := s.pool.Requeue(s.pending); err != nil {
			s.setState(StateError)
			return false, fatalErr(err)
		}
		s.pending = nil
	}

	s.setState(StateWaitingForData)
	ready, err := s.dev.Poll(pollTimeout)
	for err != nil {
		if !errors.Is(err, unix.EINTR) {
			s.logger.Error("Poll error", "error", err)
			s.setState(StateError)
			return false, fatalErr(err)
		}
		// Interrupted by a signal; not an error.
		ready, err = s.dev.Poll(pollTimeout)
	}
	if !ready {
		s.metrics.PollTimeout(s.devicePath)
		s.setState(StateIdle)
		return false, nil
	}

	var data []byte
	if s.strategy == IORead {
		data = s.readFrame()
	} else {
		data = s.grabFrame()
	}
	if data == nil {
		s.setState(StateIdle)
		return false, nil
	}

	now := time.Now()
	frame := sink.Frame{
		Data:  data,
		PTS:   now,
		DTS:   now,
		Flags: s.frameFlag,
	}
	s.out.SetReferenceClock(now)
	s.out.PublishFrame(s.stream, frame)
	s.metrics.Frame(s.devicePath, len(data))
	s.setState(StateFrameReady)
	return true, nil
}

// readFrame pulls one block of the device's maximum frame size directly.
// Nothing here is fatal: a would-block or I/O hiccup simply yields no frame
// this cycle, the device may recover.
func (s *Session) readFrame() []byte {
	n, err := s.dev.Read(s.readBuf)
	if err != nil {
		if !errors.Is(err, unix.EAGAIN) {
			s.logger.Error("Cannot read frame", "error", err)
		}
		s.metrics.TransientError(s.devicePath)
		return nil
	}
	if n <= 0 {
		return nil
	}
	return s.readBuf[:n]
}

// grabFrame retracts one buffer from the pool. Poll already signaled
// readiness, so the blocking retract is expected to return promptly. The
// buffer is handed out zero-copy and marked for re-queueing next cycle.
func (s *Session) grabFrame() []byte {
	buf, err := s.pool.Dequeue()
	if err != nil {
		s.logger.Error("Cannot dequeue buffer", "error", err)
		s.metrics.TransientError(s.devicePath)
		return nil
	}
	s.pending = buf
	return buf.Data
}

func (s *Session) setState(st LoopState) {
	s.state.Store(int32(st))
}

// State reports the loop state after the most recent cycle.
func (s *Session) State() LoopState {
	return LoopState(s.state.Load())
}
