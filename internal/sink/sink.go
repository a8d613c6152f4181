// Package sink defines the boundary between the capture core and whatever
// consumes its frames. The core publishes one stream descriptor during setup
// and then delivers timestamped frames against it; everything past this
// interface (rendering, decoding, transport) is out of capture's hands.
package sink

import "time"

// FrameFlags carry per-frame field-order information.
type FrameFlags uint8

const (
	// FlagTopFieldFirst marks an interleaved frame whose top field is older.
	FlagTopFieldFirst FrameFlags = 1 << iota
	// FlagBottomFieldFirst marks an interleaved frame whose bottom field is older.
	FlagBottomFieldFirst
)

// StreamInfo describes the single video stream a capture session produces.
type StreamInfo struct {
	// Codec is the output encoding as a four-character tag.
	Codec string
	// Color channel masks; zero for non-RGB encodings.
	RMask, GMask, BMask uint32

	Width  uint32
	Height uint32

	// Frame rate in frames per second as RateNum/RateDen.
	RateNum uint32
	RateDen uint32

	// Sample (pixel) aspect ratio.
	SARNum uint32
	SARDen uint32
}

// Frame is one captured picture. For memory-mapped sessions Data aliases a
// kernel-shared region that is only valid until the next capture cycle;
// consumers needing the bytes longer must copy.
type Frame struct {
	Data  []byte
	PTS   time.Time
	DTS   time.Time
	Flags FrameFlags
}

// Stream is the handle returned when a stream is registered with a Sink.
type Stream interface {
	ID() string
	Info() StreamInfo
}

// Sink receives the capture core's output.
type Sink interface {
	// AddStream registers a stream and returns its handle.
	AddStream(info StreamInfo) (Stream, error)
	// PublishFrame delivers one frame on a previously added stream.
	PublishFrame(s Stream, f Frame)
	// SetReferenceClock advances the consumer's reference clock to the
	// capture timestamp of the frame about to be delivered.
	SetReferenceClock(t time.Time)
}
