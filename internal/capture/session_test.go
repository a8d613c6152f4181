package capture

import (
	"errors"
	"testing"

	"github.com/maxaltenhuber/framegrab/internal/v4l2"
)

func TestOpenDeviceRollsBackStreamOnPoolFailure(t *testing.T) {
	dev := newFakeDevice()
	dev.reqErr = errors.New("no buffers")
	ts := &testSink{}
	_, err := openDevice(dev, Config{DevicePath: "/dev/fake0"}, ts, nil, discardLogger())
	var se *SetupError
	if !errors.As(err, &se) || se.Stage != "allocate buffers" {
		t.Fatalf("err = %v, want SetupError at allocate buffers stage", err)
	}
	if ts.removed != 1 {
		t.Fatalf("stream removed %d times, want 1", ts.removed)
	}
}

func TestOpenDeviceAddStreamFailure(t *testing.T) {
	dev := newFakeDevice()
	ts := &testSink{addErr: errors.New("sink full")}
	_, err := openDevice(dev, Config{DevicePath: "/dev/fake0"}, ts, nil, discardLogger())
	var se *SetupError
	if !errors.As(err, &se) || se.Stage != "add stream" {
		t.Fatalf("err = %v, want SetupError at add stream stage", err)
	}
}

func TestSessionCloseIsIdempotent(t *testing.T) {
	dev := newFakeDevice()
	ts := &testSink{}
	s, err := openDevice(dev, Config{DevicePath: "/dev/fake0"}, ts, nil, discardLogger())
	if err != nil {
		t.Fatalf("openDevice: %v", err)
	}

	s.Close()
	s.Close()

	_, off, _, closes := dev.counters()
	if closes != 1 {
		t.Fatalf("device closed %d times, want 1", closes)
	}
	if off != 1 {
		t.Fatalf("StreamOff called %d times, want 1", off)
	}
	if ts.removed != 1 {
		t.Fatalf("stream removed %d times, want 1", ts.removed)
	}
}

func TestSessionDiagnostics(t *testing.T) {
	dev := newFakeDevice()
	s := openTestSession(t, dev, &testSink{})
	if s.CanPause() || s.CanSeek() || s.CanControlPace() {
		t.Fatal("live capture must report no pause, seek or pace control")
	}
	if s.Now().IsZero() {
		t.Fatal("session clock must be live")
	}
}

func TestSessionControlsPassthrough(t *testing.T) {
	const brightness = 0x00980900
	dev := &fakeControlDevice{
		fakeDevice: newFakeDevice(),
		controls:   map[uint32]int32{brightness: 50},
		list: []v4l2.ControlInfo{
			{ID: brightness, Name: "Brightness", Min: 0, Max: 255, Default: 128},
		},
	}
	s := openTestSession(t, dev, &testSink{})

	c := s.Controls()
	if len(c.List()) != 1 {
		t.Fatalf("enumerated %d controls, want 1", len(c.List()))
	}
	v, err := c.Get(brightness)
	if err != nil || v != 50 {
		t.Fatalf("Get = %d, %v; want 50", v, err)
	}
	if err := c.Set(brightness, 200); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, _ := c.Get(brightness); v != 200 {
		t.Fatalf("value after Set = %d, want 200", v)
	}
}

func TestSessionWithoutControlSurface(t *testing.T) {
	dev := newFakeDevice()
	s := openTestSession(t, dev, &testSink{})
	c := s.Controls()
	if len(c.List()) != 0 {
		t.Fatal("plain device must enumerate no controls")
	}
	if _, err := c.Get(1); err == nil {
		t.Fatal("Get on a control-less device must fail")
	}
	if err := c.Set(1, 0); err == nil {
		t.Fatal("Set on a control-less device must fail")
	}
}
