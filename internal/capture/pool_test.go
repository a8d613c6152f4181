package capture

import (
	"errors"
	"testing"
)

func TestPoolLifecycle(t *testing.T) {
	dev := newFakeDevice()
	dev.bufCount = 3
	p, err := newPool(dev, discardLogger())
	if err != nil {
		t.Fatalf("newPool: %v", err)
	}
	if p.Len() != 3 {
		t.Fatalf("pool size = %d, want 3", p.Len())
	}
	if dev.queuedCount() != 3 {
		t.Fatalf("queued %d buffers, want 3", dev.queuedCount())
	}
	on, _, _, _ := dev.counters()
	if on != 1 {
		t.Fatalf("StreamOn called %d times, want 1", on)
	}

	// Teardown retracts every queued buffer before stopping the stream.
	dev.mu.Lock()
	dev.dequeues = []dequeueResult{{index: 0}, {index: 1}, {index: 2}}
	dev.mu.Unlock()
	p.Close()
	_, off, unmapped, _ := dev.counters()
	if off != 1 {
		t.Fatalf("StreamOff called %d times, want 1", off)
	}
	if unmapped != 3 {
		t.Fatalf("unmapped %d buffers, want 3", unmapped)
	}

	// A second close must not touch the device again.
	p.Close()
	_, off, unmapped, _ = dev.counters()
	if off != 1 || unmapped != 3 {
		t.Fatal("second Close touched the device")
	}
}

func TestPoolZeroBuffers(t *testing.T) {
	dev := newFakeDevice()
	dev.bufCount = 0
	if _, err := newPool(dev, discardLogger()); err == nil {
		t.Fatal("expected error for a zero-size pool")
	}
}

func TestPoolRollsBackOnMmapFailure(t *testing.T) {
	dev := newFakeDevice()
	dev.bufCount = 4
	dev.mmapFailAt = 2
	_, err := newPool(dev, discardLogger())
	var se *SetupError
	if !errors.As(err, &se) || se.Stage != "map buffer" {
		t.Fatalf("err = %v, want SetupError at map buffer stage", err)
	}
	_, _, unmapped, _ := dev.counters()
	if unmapped != 2 {
		t.Fatalf("unmapped %d buffers, want the 2 already mapped", unmapped)
	}
}

func TestPoolRollsBackOnQueueFailure(t *testing.T) {
	dev := newFakeDevice()
	dev.bufCount = 2
	dev.queueErr = map[uint32]error{1: errors.New("queue refused")}
	_, err := newPool(dev, discardLogger())
	var se *SetupError
	if !errors.As(err, &se) || se.Stage != "queue buffer" {
		t.Fatalf("err = %v, want SetupError at queue buffer stage", err)
	}
	_, _, unmapped, _ := dev.counters()
	if unmapped != 2 {
		t.Fatalf("unmapped %d buffers, want 2", unmapped)
	}
}

func TestPoolRollsBackOnStreamOnFailure(t *testing.T) {
	dev := newFakeDevice()
	dev.streamOnErr = errors.New("stream refused")
	_, err := newPool(dev, discardLogger())
	var se *SetupError
	if !errors.As(err, &se) || se.Stage != "start streaming" {
		t.Fatalf("err = %v, want SetupError at start streaming stage", err)
	}
	_, _, unmapped, _ := dev.counters()
	if unmapped != 4 {
		t.Fatalf("unmapped %d buffers, want 4", unmapped)
	}
}

func TestPoolDequeueRequeue(t *testing.T) {
	dev := newFakeDevice()
	dev.bufLen = 4096
	p, err := newPool(dev, discardLogger())
	if err != nil {
		t.Fatalf("newPool: %v", err)
	}

	dev.mu.Lock()
	dev.dequeues = []dequeueResult{{index: 1, used: 100}}
	dev.mu.Unlock()

	buf, err := p.Dequeue()
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if buf.Index != 1 {
		t.Fatalf("index = %d, want 1", buf.Index)
	}
	// The payload view is cut to the bytes the driver actually filled.
	if len(buf.Data) != 100 || cap(buf.Data) != 4096 {
		t.Fatalf("data len %d cap %d, want 100/4096", len(buf.Data), cap(buf.Data))
	}

	before := dev.queuedCount()
	if err := p.Requeue(buf); err != nil {
		t.Fatalf("Requeue: %v", err)
	}
	if len(buf.Data) != 4096 {
		t.Fatalf("requeued data len %d, want full 4096", len(buf.Data))
	}
	if dev.queuedCount() != before+1 {
		t.Fatal("Requeue did not hand the buffer back")
	}

	// Re-queueing an already queued buffer is a no-op.
	if err := p.Requeue(buf); err != nil {
		t.Fatalf("second Requeue: %v", err)
	}
	if dev.queuedCount() != before+1 {
		t.Fatal("second Requeue queued the buffer again")
	}
}

func TestPoolDequeueOutOfRangeIndex(t *testing.T) {
	dev := newFakeDevice()
	p, err := newPool(dev, discardLogger())
	if err != nil {
		t.Fatalf("newPool: %v", err)
	}
	dev.mu.Lock()
	dev.dequeues = []dequeueResult{{index: 42, used: 8}}
	dev.mu.Unlock()
	if _, err := p.Dequeue(); err == nil {
		t.Fatal("expected error for out-of-range buffer index")
	}
}
