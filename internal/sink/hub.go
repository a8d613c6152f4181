package sink

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Hub is the in-process Sink implementation: it fans frames out to any
// number of subscribers per stream. Delivery is non-blocking; a subscriber
// that cannot keep up loses frames rather than stalling the capture loop.
type Hub struct {
	mu      sync.RWMutex
	streams map[string]*hubStream
	nextID  atomic.Uint64
	clock   atomic.Int64 // unix nanos of the last reference clock update
	logger  *slog.Logger
}

type hubStream struct {
	id   string
	info StreamInfo

	mu      sync.RWMutex
	subs    map[int]chan Frame
	nextSub int
	dropped atomic.Uint64
}

func (s *hubStream) ID() string       { return s.id }
func (s *hubStream) Info() StreamInfo { return s.info }

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		streams: make(map[string]*hubStream),
		logger:  logger,
	}
}

// AddStream registers a stream and returns its handle.
func (h *Hub) AddStream(info StreamInfo) (Stream, error) {
	s := &hubStream{
		id:   fmt.Sprintf("stream-%d", h.nextID.Add(1)),
		info: info,
		subs: make(map[int]chan Frame),
	}

	h.mu.Lock()
	h.streams[s.id] = s
	h.mu.Unlock()

	h.logger.Info("Stream added",
		"stream_id", s.id, "codec", info.Codec,
		"width", info.Width, "height", info.Height,
		"rate", fmt.Sprintf("%d/%d", info.RateNum, info.RateDen))
	return s, nil
}

// RemoveStream unregisters a stream and closes its subscriber channels.
func (h *Hub) RemoveStream(s Stream) {
	h.mu.Lock()
	hs, ok := h.streams[s.ID()]
	delete(h.streams, s.ID())
	h.mu.Unlock()
	if !ok {
		return
	}

	hs.mu.Lock()
	for id, ch := range hs.subs {
		close(ch)
		delete(hs.subs, id)
	}
	hs.mu.Unlock()
	h.logger.Info("Stream removed", "stream_id", s.ID())
}

// PublishFrame fans one frame out to every subscriber of the stream.
func (h *Hub) PublishFrame(s Stream, f Frame) {
	hs, ok := s.(*hubStream)
	if !ok {
		return
	}

	hs.mu.RLock()
	for _, ch := range hs.subs {
		select {
		case ch <- f:
		default:
			hs.dropped.Add(1)
		}
	}
	hs.mu.RUnlock()
}

// SetReferenceClock records the consumer-side reference clock.
func (h *Hub) SetReferenceClock(t time.Time) {
	h.clock.Store(t.UnixNano())
}

// ReferenceClock returns the last reference clock value, zero if none yet.
func (h *Hub) ReferenceClock() time.Time {
	n := h.clock.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// Subscribe attaches a buffered frame channel to a stream. The returned
// cancel function detaches it; the channel is closed on cancel or stream
// removal.
func (h *Hub) Subscribe(streamID string, buffer int) (<-chan Frame, func(), error) {
	h.mu.RLock()
	hs, ok := h.streams[streamID]
	h.mu.RUnlock()
	if !ok {
		return nil, nil, fmt.Errorf("unknown stream %q", streamID)
	}

	ch := make(chan Frame, buffer)
	hs.mu.Lock()
	id := hs.nextSub
	hs.nextSub++
	hs.subs[id] = ch
	hs.mu.Unlock()

	cancel := func() {
		hs.mu.Lock()
		if c, ok := hs.subs[id]; ok {
			delete(hs.subs, id)
			close(c)
		}
		hs.mu.Unlock()
	}
	return ch, cancel, nil
}

// Dropped returns how many frames a stream's subscribers have missed.
func (h *Hub) Dropped(streamID string) uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if hs, ok := h.streams[streamID]; ok {
		return hs.dropped.Load()
	}
	return 0
}

// ListStreams returns the active stream IDs.
func (h *Hub) ListStreams() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.streams))
	for id := range h.streams {
		ids = append(ids, id)
	}
	return ids
}

// Stop removes every stream.
func (h *Hub) Stop() {
	h.mu.Lock()
	streams := make([]*hubStream, 0, len(h.streams))
	for id, hs := range h.streams {
		streams = append(streams, hs)
		delete(h.streams, id)
	}
	h.mu.Unlock()

	for _, hs := range streams {
		hs.mu.Lock()
		for id, ch := range hs.subs {
			close(ch)
			delete(hs.subs, id)
		}
		hs.mu.Unlock()
	}
	h.logger.Info("Hub stopped")
}
