package capture

import (
	"errors"
	"testing"

	"github.com/maxaltenhuber/framegrab/internal/sink"
	"github.com/maxaltenhuber/framegrab/internal/v4l2"
)

func TestSetupRejectsNonCaptureDevice(t *testing.T) {
	dev := newFakeDevice()
	dev.caps.Capabilities = v4l2.CapStreaming
	_, _, err := setup(dev, Config{}, discardLogger())
	if !errors.Is(err, ErrNotCaptureDevice) {
		t.Fatalf("err = %v, want ErrNotCaptureDevice", err)
	}
}

func TestSetupPicksIOStrategy(t *testing.T) {
	tests := []struct {
		name    string
		caps    uint32
		want    IOStrategy
		wantErr error
	}{
		{"streaming preferred", v4l2.CapVideoCapture | v4l2.CapStreaming | v4l2.CapReadWrite, IOMemoryMapped, nil},
		{"read fallback", v4l2.CapVideoCapture | v4l2.CapReadWrite, IORead, nil},
		{"no io method", v4l2.CapVideoCapture, 0, ErrNoIOMethod},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newFakeDevice()
			dev.caps.Capabilities = tt.caps
			strategy, _, err := setup(dev, Config{}, discardLogger())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("setup: %v", err)
			}
			if strategy != tt.want {
				t.Fatalf("strategy = %v, want %v", strategy, tt.want)
			}
		})
	}
}

func TestSetupHonorsDeviceCaps(t *testing.T) {
	dev := newFakeDevice()
	// The node-specific capability set wins over the driver-wide one.
	dev.caps.Capabilities = v4l2.CapVideoCapture | v4l2.CapStreaming | v4l2.CapDeviceCaps
	dev.caps.DeviceCaps = v4l2.CapVideoCapture | v4l2.CapReadWrite
	strategy, _, err := setup(dev, Config{}, discardLogger())
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if strategy != IORead {
		t.Fatalf("strategy = %v, want IORead", strategy)
	}
}

func TestSetupDriverValuesAreAuthoritative(t *testing.T) {
	dev := newFakeDevice()
	dev.setFmtFn = func(p v4l2.PixFormat) (v4l2.PixFormat, error) {
		// The driver shrinks the frame and reports its own buffer size.
		p.Width, p.Height = 320, 240
		p.SizeImage = 153600
		return p, nil
	}
	_, nf, err := setup(dev, Config{}, discardLogger())
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if nf.Width != 320 || nf.Height != 240 || nf.SizeImage != 153600 {
		t.Fatalf("format = %dx%d size %d, want 320x240 size 153600", nf.Width, nf.Height, nf.SizeImage)
	}
	dev.mu.Lock()
	requested := dev.setFmtReq.PixelFormat
	dev.mu.Unlock()
	if requested != v4l2.PixFmtYUYV {
		t.Fatalf("requested pixel format %s, want YUYV", v4l2.FourCCString(requested))
	}
}

func TestSetupDoublesHeightForAlternatingFields(t *testing.T) {
	dev := newFakeDevice()
	dev.setFmtFn = func(p v4l2.PixFormat) (v4l2.PixFormat, error) {
		p.Height = 240
		p.Field = v4l2.FieldAlternate
		p.SizeImage = p.Width * 240 * 2
		return p, nil
	}
	_, nf, err := setup(dev, Config{}, discardLogger())
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if nf.Height != 480 {
		t.Fatalf("height = %d, want 480", nf.Height)
	}
	if nf.Interlacing != Alternating {
		t.Fatalf("interlacing = %v, want alternating", nf.Interlacing)
	}
}

func TestSetupToleratesMissingFrameInterval(t *testing.T) {
	dev := newFakeDevice()
	dev.parmErr = errors.New("not supported")
	_, nf, err := setup(dev, Config{}, discardLogger())
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if nf.IntervalNum != 0 || nf.IntervalDen != 0 {
		t.Fatalf("interval = %d/%d, want 0/0", nf.IntervalNum, nf.IntervalDen)
	}
}

func TestSetupRequestsFrameRate(t *testing.T) {
	dev := newFakeDevice()
	// The driver grants 25 fps against the 30 fps request; the grant wins.
	dev.setParmFn = func(v4l2.Fract) (v4l2.Fract, error) {
		return v4l2.Fract{Numerator: 1, Denominator: 25}, nil
	}
	_, nf, err := setup(dev, Config{FrameRate: 30}, discardLogger())
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if dev.setParmReq != (v4l2.Fract{Numerator: 1, Denominator: 30}) {
		t.Fatalf("requested interval = %d/%d, want 1/30", dev.setParmReq.Numerator, dev.setParmReq.Denominator)
	}
	if nf.IntervalNum != 1 || nf.IntervalDen != 25 {
		t.Fatalf("interval = %d/%d, want 1/25", nf.IntervalNum, nf.IntervalDen)
	}
}

func TestSetupKeepsDriverRateWhenRequestRefused(t *testing.T) {
	dev := newFakeDevice()
	dev.setParmFn = func(v4l2.Fract) (v4l2.Fract, error) {
		return v4l2.Fract{}, errors.New("fixed rate sensor")
	}
	_, nf, err := setup(dev, Config{FrameRate: 60}, discardLogger())
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if nf.IntervalNum != 1 || nf.IntervalDen != 30 {
		t.Fatalf("interval = %d/%d, want the reported 1/30", nf.IntervalNum, nf.IntervalDen)
	}
}

func TestSetupLeavesRateAloneWithoutRequest(t *testing.T) {
	dev := newFakeDevice()
	if _, _, err := setup(dev, Config{}, discardLogger()); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if dev.setParmReq != (v4l2.Fract{}) {
		t.Fatalf("interval requested %d/%d, want none", dev.setParmReq.Numerator, dev.setParmReq.Denominator)
	}
}

func TestSetupSelectsInput(t *testing.T) {
	dev := newFakeDevice()
	if _, _, err := setup(dev, Config{Input: 2}, discardLogger()); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if dev.input != 2 {
		t.Fatalf("input = %d, want 2", dev.input)
	}

	dev = newFakeDevice()
	dev.inputErr = errors.New("no such input")
	_, _, err := setup(dev, Config{Input: 9}, discardLogger())
	var se *SetupError
	if !errors.As(err, &se) || se.Stage != "select input" {
		t.Fatalf("err = %v, want SetupError at select input stage", err)
	}
}

func TestInterlacingFromField(t *testing.T) {
	tests := []struct {
		field uint32
		want  Interlacing
	}{
		{v4l2.FieldNone, Progressive},
		{v4l2.FieldAny, Progressive},
		{v4l2.FieldTop, TopFieldOnly},
		{v4l2.FieldBottom, BottomFieldOnly},
		{v4l2.FieldInterlaced, Interleaved},
		{v4l2.FieldInterlacedTB, InterleavedTopFirst},
		{v4l2.FieldInterlacedBT, InterleavedBottomFirst},
		{v4l2.FieldSeqTB, SeqTopBottom},
		{v4l2.FieldSeqBT, SeqBottomTop},
		{v4l2.FieldAlternate, Alternating},
		{99, InterlaceUnknown},
	}
	for _, tt := range tests {
		if got := interlacingFromField(tt.field); got != tt.want {
			t.Errorf("interlacingFromField(%d) = %v, want %v", tt.field, got, tt.want)
		}
	}
}

func TestInterlacingFrameFlag(t *testing.T) {
	tests := []struct {
		il   Interlacing
		want sink.FrameFlags
	}{
		{Interleaved, sink.FlagTopFieldFirst},
		{InterleavedTopFirst, sink.FlagTopFieldFirst},
		{InterleavedBottomFirst, sink.FlagBottomFieldFirst},
		{Progressive, 0},
		{SeqTopBottom, 0},
		{Alternating, 0},
		{InterlaceUnknown, 0},
	}
	for _, tt := range tests {
		if got := tt.il.FrameFlag(); got != tt.want {
			t.Errorf("%v.FrameFlag() = %v, want %v", tt.il, got, tt.want)
		}
	}
}

func TestParseAspect(t *testing.T) {
	tests := []struct {
		in       string
		num, den uint32
	}{
		{"", 4, 3},
		{"16:9", 16, 9},
		{" 16 : 9 ", 16, 9},
		{"0:9", 4, 3},
		{"16:0", 4, 3},
		{"16", 4, 3},
		{"a:b", 4, 3},
	}
	for _, tt := range tests {
		num, den := parseAspect(tt.in)
		if num != tt.num || den != tt.den {
			t.Errorf("parseAspect(%q) = %d:%d, want %d:%d", tt.in, num, den, tt.num, tt.den)
		}
	}
}

func TestSampleAspect(t *testing.T) {
	tests := []struct {
		aspect   string
		w, h     uint32
		num, den uint32
	}{
		{"4:3", 640, 480, 1, 1},
		{"16:9", 720, 480, 32, 27},
		{"", 640, 480, 1, 1},
		{"16:9", 0, 480, 1, 1},
	}
	for _, tt := range tests {
		num, den := sampleAspect(tt.aspect, tt.w, tt.h)
		if num != tt.num || den != tt.den {
			t.Errorf("sampleAspect(%q, %d, %d) = %d:%d, want %d:%d",
				tt.aspect, tt.w, tt.h, num, den, tt.num, tt.den)
		}
	}
}

func TestStreamInfoDerivation(t *testing.T) {
	nf := &NegotiatedFormat{
		Desc:        *Lookup(v4l2.PixFmtRGB565),
		Width:       720,
		Height:      480,
		IntervalNum: 1,
		IntervalDen: 30,
	}
	info := nf.StreamInfo("16:9")
	if info.Codec != OutRGB16 {
		t.Fatalf("codec = %q, want %q", info.Codec, OutRGB16)
	}
	if info.RMask != 0x001F || info.GMask != 0x07E0 || info.BMask != 0xF800 {
		t.Fatalf("masks = %#x %#x %#x", info.RMask, info.GMask, info.BMask)
	}
	// Frame rate is the inverted frame interval.
	if info.RateNum != 30 || info.RateDen != 1 {
		t.Fatalf("rate = %d/%d, want 30/1", info.RateNum, info.RateDen)
	}
	if info.SARNum != 32 || info.SARDen != 27 {
		t.Fatalf("sar = %d:%d, want 32:27", info.SARNum, info.SARDen)
	}
}
