package capture

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/maxaltenhuber/framegrab/internal/sink"
	"github.com/maxaltenhuber/framegrab/internal/v4l2"
)

// IOStrategy selects how frames are pulled from the device.
type IOStrategy int

const (
	// IORead pulls frames with direct read calls.
	IORead IOStrategy = iota + 1
	// IOMemoryMapped streams through kernel-allocated mmap buffers.
	IOMemoryMapped
)

func (s IOStrategy) String() string {
	switch s {
	case IORead:
		return "read"
	case IOMemoryMapped:
		return "mmap"
	default:
		return "unknown"
	}
}

// Interlacing is the field delivery mode the device settled on.
type Interlacing int

const (
	InterlaceUnknown Interlacing = iota
	Progressive
	TopFieldOnly
	BottomFieldOnly
	Interleaved
	InterleavedTopFirst
	InterleavedBottomFirst
	SeqTopBottom
	SeqBottomTop
	Alternating
)

var interlacingNames = map[Interlacing]string{
	InterlaceUnknown:       "unknown",
	Progressive:            "progressive",
	TopFieldOnly:           "top field only",
	BottomFieldOnly:        "bottom field only",
	Interleaved:            "interleaved",
	InterleavedTopFirst:    "interleaved top bottom",
	InterleavedBottomFirst: "interleaved bottom top",
	SeqTopBottom:           "sequential top bottom",
	SeqBottomTop:           "sequential bottom top",
	Alternating:            "alternate fields",
}

func (i Interlacing) String() string {
	if s, ok := interlacingNames[i]; ok {
		return s
	}
	return "unknown"
}

// interlacingFromField maps a v4l2 field order to the Interlacing enum.
// Unrecognized values fold into InterlaceUnknown.
func interlacingFromField(field uint32) Interlacing {
	switch field {
	case v4l2.FieldNone, v4l2.FieldAny:
		return Progressive
	case v4l2.FieldTop:
		return TopFieldOnly
	case v4l2.FieldBottom:
		return BottomFieldOnly
	case v4l2.FieldInterlaced:
		return Interleaved
	case v4l2.FieldInterlacedTB:
		return InterleavedTopFirst
	case v4l2.FieldInterlacedBT:
		return InterleavedBottomFirst
	case v4l2.FieldSeqTB:
		return SeqTopBottom
	case v4l2.FieldSeqBT:
		return SeqBottomTop
	case v4l2.FieldAlternate:
		return Alternating
	default:
		return InterlaceUnknown
	}
}

// FrameFlag is the total mapping from field mode to per-frame flag.
// Sequential and alternating delivery have no flag representation yet, so
// they deliberately map to none, as does everything unrecognized.
func (i Interlacing) FrameFlag() sink.FrameFlags {
	switch i {
	case Interleaved, InterleavedTopFirst:
		return sink.FlagTopFieldFirst
	case InterleavedBottomFirst:
		return sink.FlagBottomFieldFirst
	default:
		return 0
	}
}

// NegotiatedFormat is the outcome of setup. Immutable once built; owned by
// the capture session.
type NegotiatedFormat struct {
	Desc        FormatDescriptor
	Width       uint32
	Height      uint32
	Interlacing Interlacing
	// Achieved frame interval, seconds per frame.
	IntervalNum uint32
	IntervalDen uint32
	// Maximum byte size of one complete frame.
	SizeImage uint32
}

// StreamInfo derives the published stream descriptor. aspect is the display
// aspect ratio string "W:H"; empty or malformed means the 4:3 default.
func (nf *NegotiatedFormat) StreamInfo(aspect string) sink.StreamInfo {
	sarNum, sarDen := sampleAspect(aspect, nf.Width, nf.Height)
	return sink.StreamInfo{
		Codec:   nf.Desc.Output,
		RMask:   nf.Desc.RMask,
		GMask:   nf.Desc.GMask,
		BMask:   nf.Desc.BMask,
		Width:   nf.Width,
		Height:  nf.Height,
		RateNum: nf.IntervalDen,
		RateDen: nf.IntervalNum,
		SARNum:  sarNum,
		SARDen:  sarDen,
	}
}

// setup validates the device, picks the I/O strategy and finalizes the frame
// geometry, field order and frame interval. The values the driver returns
// are authoritative; requested ones are only hints.
func setup(dev Device, cfg Config, logger *slog.Logger) (IOStrategy, *NegotiatedFormat, error) {
	devcap, err := dev.Capability()
	if err != nil {
		return 0, nil, setupErr("query capabilities", err)
	}
	logger.Debug("Device opened",
		"card", devcap.Card, "driver", devcap.Driver,
		"version", devcap.Version, "bus", devcap.BusInfo,
		"caps", fmt.Sprintf("%#08x", devcap.Caps()))

	caps := devcap.Caps()
	if caps&v4l2.CapVideoCapture == 0 {
		return 0, nil, setupErr("capabilities", ErrNotCaptureDevice)
	}

	var strategy IOStrategy
	switch {
	case caps&v4l2.CapStreaming != 0:
		strategy = IOMemoryMapped
	case caps&v4l2.CapReadWrite != 0:
		strategy = IORead
	default:
		return 0, nil, setupErr("capabilities", ErrNoIOMethod)
	}

	if err := dev.SetInput(cfg.Input); err != nil {
		return 0, nil, setupErr("select input", err)
	}

	selected, err := negotiate(dev, cfg.OutputEncoding, logger)
	if err != nil {
		return 0, nil, err
	}

	cur, err := dev.GetFormat()
	if err != nil {
		return 0, nil, setupErr("get format", err)
	}
	cur.PixelFormat = selected.Native
	actual, err := dev.SetFormat(cur)
	if err != nil {
		return 0, nil, setupErr("set format", err)
	}
	logger.Debug("Maximum bytes for complete image", "size", actual.SizeImage)

	interval, err := dev.GetParm()
	if err != nil {
		logger.Debug("Device does not report frame interval", "error", err)
	}
	if cfg.FrameRate > 0 {
		// The driver answers with the interval it actually applied, which
		// may differ from the request.
		got, err := dev.SetParm(v4l2.Fract{Numerator: 1, Denominator: uint32(cfg.FrameRate)})
		if err != nil {
			logger.Warn("Device refused frame rate request", "fps", cfg.FrameRate, "error", err)
		} else {
			interval = got
		}
	}

	il := interlacingFromField(actual.Field)
	if il == InterlaceUnknown {
		logger.Warn("Interlacing setting: unknown type", "field", actual.Field)
	} else {
		logger.Debug("Interlacing setting", "mode", il.String())
	}
	if il == Alternating {
		// Each delivered buffer holds two temporally offset fields stacked.
		actual.Height *= 2
	}

	nf := &NegotiatedFormat{
		Desc:        *selected,
		Width:       actual.Width,
		Height:      actual.Height,
		Interlacing: il,
		IntervalNum: interval.Numerator,
		IntervalDen: interval.Denominator,
		SizeImage:   actual.SizeImage,
	}
	logger.Info("Video format negotiated",
		"output", nf.Desc.Output,
		"pixel_format", v4l2.FourCCString(nf.Desc.Native),
		"width", nf.Width, "height", nf.Height,
		"rate", fmt.Sprintf("%d/%d", nf.IntervalDen, nf.IntervalNum),
		"io", strategy.String())
	return strategy, nf, nil
}

// parseAspect parses a display aspect ratio "W:H". The 4:3 default applies
// to empty or malformed input.
func parseAspect(s string) (num, den uint32) {
	num, den = 4, 3
	w, h, ok := strings.Cut(s, ":")
	if !ok {
		return num, den
	}
	wn, err1 := strconv.ParseUint(strings.TrimSpace(w), 10, 32)
	hn, err2 := strconv.ParseUint(strings.TrimSpace(h), 10, 32)
	if err1 != nil || err2 != nil || wn == 0 || hn == 0 {
		return num, den
	}
	return uint32(wn), uint32(hn)
}

// sampleAspect derives the pixel sample aspect ratio from the display
// aspect ratio normalized against the frame dimensions.
func sampleAspect(aspect string, width, height uint32) (num, den uint32) {
	dispN, dispD := parseAspect(aspect)
	if width == 0 || height == 0 {
		return 1, 1
	}
	num = dispN * height
	den = dispD * width
	if g := gcd(num, den); g > 1 {
		num /= g
		den /= g
	}
	return num, den
}

func gcd(a, b uint32) uint32 {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}
