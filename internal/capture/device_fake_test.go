package capture

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/maxaltenhuber/framegrab/internal/sink"
	"github.com/maxaltenhuber/framegrab/internal/v4l2"
)

type pollResult struct {
	ready bool
	err   error
}

type readResult struct {
	n   int
	err error
}

type dequeueResult struct {
	index uint32
	used  uint32
	err   error
}

// fakeDevice scripts the kernel boundary. Result slices are consumed one
// call at a time; every field mutation is mutex-guarded so the capture loop
// can drive one fake from another goroutine.
type fakeDevice struct {
	mu sync.Mutex

	caps    v4l2.Capability
	capErr  error
	formats []v4l2.FormatDesc
	enumErr error

	current   v4l2.PixFormat
	getFmtErr error
	setFmtFn  func(v4l2.PixFormat) (v4l2.PixFormat, error)
	setFmtReq v4l2.PixFormat

	parm       v4l2.Fract
	parmErr    error
	setParmFn  func(v4l2.Fract) (v4l2.Fract, error)
	setParmReq v4l2.Fract

	inputErr error
	input    int

	bufCount    uint32
	bufLen      uint32
	reqErr      error
	queryErr    map[uint32]error
	queueErr    map[uint32]error
	mmapFailAt  int
	mmapCalls   int
	streamOnErr error

	queued    []uint32
	dequeues  []dequeueResult
	polls     []pollResult
	reads     []readResult
	streamOn  int
	streamOff int
	unmapped  int
	closes    int
}

// newFakeDevice returns a streaming-capable capture device with one native
// YUYV format at 640x480, 30 fps and a four buffer pool.
func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		caps: v4l2.Capability{
			Driver:       "fake",
			Card:         "Fake Capture",
			Capabilities: v4l2.CapVideoCapture | v4l2.CapStreaming,
		},
		formats: []v4l2.FormatDesc{
			{Index: 0, PixelFormat: v4l2.PixFmtYUYV, Description: "YUYV 4:2:2"},
		},
		current:    v4l2.PixFormat{Width: 640, Height: 480, Field: v4l2.FieldNone},
		parm:       v4l2.Fract{Numerator: 1, Denominator: 30},
		bufCount:   4,
		bufLen:     4096,
		mmapFailAt: -1,
	}
}

func (d *fakeDevice) Path() string { return "/dev/fake0" }

func (d *fakeDevice) Capability() (v4l2.Capability, error) {
	return d.caps, d.capErr
}

func (d *fakeDevice) EnumFormats() ([]v4l2.FormatDesc, error) {
	if d.enumErr != nil {
		return nil, d.enumErr
	}
	return d.formats, nil
}

func (d *fakeDevice) SetInput(index int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inputErr != nil {
		return d.inputErr
	}
	d.input = index
	return nil
}

func (d *fakeDevice) GetFormat() (v4l2.PixFormat, error) {
	return d.current, d.getFmtErr
}

func (d *fakeDevice) SetFormat(p v4l2.PixFormat) (v4l2.PixFormat, error) {
	d.mu.Lock()
	d.setFmtReq = p
	d.mu.Unlock()
	if d.setFmtFn != nil {
		return d.setFmtFn(p)
	}
	if p.SizeImage == 0 {
		p.SizeImage = p.Width * p.Height * 2
	}
	return p, nil
}

func (d *fakeDevice) GetParm() (v4l2.Fract, error) {
	return d.parm, d.parmErr
}

func (d *fakeDevice) SetParm(tf v4l2.Fract) (v4l2.Fract, error) {
	d.mu.Lock()
	d.setParmReq = tf
	d.mu.Unlock()
	if d.setParmFn != nil {
		return d.setParmFn(tf)
	}
	return tf, nil
}

func (d *fakeDevice) GetInput() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inputErr != nil {
		return 0, d.inputErr
	}
	return d.input, nil
}

func (d *fakeDevice) RequestBuffers(count uint32) (uint32, error) {
	if d.reqErr != nil {
		return 0, d.reqErr
	}
	return d.bufCount, nil
}

func (d *fakeDevice) QueryBuffer(index uint32) (offset, length uint32, err error) {
	if e := d.queryErr[index]; e != nil {
		return 0, 0, e
	}
	return index * d.bufLen, d.bufLen, nil
}

func (d *fakeDevice) QueueBuffer(index uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if e := d.queueErr[index]; e != nil {
		return e
	}
	d.queued = append(d.queued, index)
	return nil
}

func (d *fakeDevice) DequeueBuffer() (index, bytesused uint32, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.dequeues) == 0 {
		return 0, 0, io.ErrUnexpectedEOF
	}
	r := d.dequeues[0]
	d.dequeues = d.dequeues[1:]
	return r.index, r.used, r.err
}

func (d *fakeDevice) StreamOn() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.streamOnErr != nil {
		return d.streamOnErr
	}
	d.streamOn++
	return nil
}

func (d *fakeDevice) StreamOff() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.streamOff++
	return nil
}

func (d *fakeDevice) Mmap(offset, length uint32) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.mmapCalls == d.mmapFailAt {
		return nil, errors.New("mmap refused")
	}
	d.mmapCalls++
	return make([]byte, length), nil
}

func (d *fakeDevice) Munmap(data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.unmapped++
	return nil
}

func (d *fakeDevice) Read(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.reads) == 0 {
		return 0, nil
	}
	r := d.reads[0]
	d.reads = d.reads[1:]
	return r.n, r.err
}

func (d *fakeDevice) Poll(timeout time.Duration) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.polls) == 0 {
		return false, nil
	}
	r := d.polls[0]
	d.polls = d.polls[1:]
	return r.ready, r.err
}

func (d *fakeDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closes++
	return nil
}

func (d *fakeDevice) queuedCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queued)
}

func (d *fakeDevice) counters() (on, off, unmapped, closes int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.streamOn, d.streamOff, d.unmapped, d.closes
}

// fakeControlDevice adds the control surface on top of fakeDevice.
type fakeControlDevice struct {
	*fakeDevice
	controls map[uint32]int32
	list     []v4l2.ControlInfo
}

func (d *fakeControlDevice) EnumControls() ([]v4l2.ControlInfo, error) {
	return d.list, nil
}

func (d *fakeControlDevice) GetControl(id uint32) (int32, error) {
	v, ok := d.controls[id]
	if !ok {
		return 0, errors.New("unknown control")
	}
	return v, nil
}

func (d *fakeControlDevice) SetControl(id uint32, value int32) error {
	if _, ok := d.controls[id]; !ok {
		return errors.New("unknown control")
	}
	d.controls[id] = value
	return nil
}

type testStream struct {
	id   string
	info sink.StreamInfo
}

func (s *testStream) ID() string            { return s.id }
func (s *testStream) Info() sink.StreamInfo { return s.info }

// testSink records everything the capture core hands it.
type testSink struct {
	mu      sync.Mutex
	addErr  error
	streams []sink.StreamInfo
	frames  []sink.Frame
	clock   time.Time
	removed int
}

func (ts *testSink) AddStream(info sink.StreamInfo) (sink.Stream, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.addErr != nil {
		return nil, ts.addErr
	}
	ts.streams = append(ts.streams, info)
	return &testStream{id: "test-stream", info: info}, nil
}

func (ts *testSink) PublishFrame(s sink.Stream, f sink.Frame) {
	ts.mu.Lock()
	ts.frames = append(ts.frames, f)
	ts.mu.Unlock()
}

func (ts *testSink) SetReferenceClock(t time.Time) {
	ts.mu.Lock()
	ts.clock = t
	ts.mu.Unlock()
}

func (ts *testSink) RemoveStream(s sink.Stream) {
	ts.mu.Lock()
	ts.removed++
	ts.mu.Unlock()
}

func (ts *testSink) frameCount() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.frames)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
