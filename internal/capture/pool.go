package capture

import (
	"fmt"
	"log/slog"
)

// requestedBuffers is the hint passed to REQBUFS; the driver decides the
// actual pool size.
const requestedBuffers = 4

// MappedBuffer is one slot of the streaming pool: a process mapping of a
// kernel-owned allocation. While queued the kernel writes it; while held by
// the consumer it must not be re-queued until fully consumed.
type MappedBuffer struct {
	Index  uint32
	Data   []byte
	queued bool
}

// Pool owns the memory-mapped buffer set of one session. Exactly one pool
// exists per session; its size is fixed by the driver for the session's
// lifetime.
type Pool struct {
	dev       Device
	buffers   []MappedBuffer
	streaming bool
	logger    *slog.Logger
}

// newPool allocates, maps and queues the kernel buffer set, then enables
// streaming. On any failure every mapping already made is released before
// the error propagates.
func newPool(dev Device, logger *slog.Logger) (*Pool, error) {
	count, err := dev.RequestBuffers(requestedBuffers)
	if err != nil {
		return nil, setupErr("allocate buffers", err)
	}
	if count == 0 {
		return nil, setupErr("allocate buffers", fmt.Errorf("driver returned zero buffers"))
	}
	logger.Debug("Buffer pool allocated", "count", count)

	p := &Pool{dev: dev, logger: logger}
	p.buffers = make([]MappedBuffer, 0, count)

	for i := uint32(0); i < count; i++ {
		offset, length, err := dev.QueryBuffer(i)
		if err != nil {
			p.unmapAll()
			return nil, setupErr("query buffer", err)
		}
		data, err := dev.Mmap(offset, length)
		if err != nil {
			p.unmapAll()
			return nil, setupErr("map buffer", err)
		}
		p.buffers = append(p.buffers, MappedBuffer{Index: i, Data: data})
	}

	// Hand the whole pool to the kernel so capture can begin.
	for i := range p.buffers {
		if err := dev.QueueBuffer(p.buffers[i].Index); err != nil {
			p.unmapAll()
			return nil, setupErr("queue buffer", err)
		}
		p.buffers[i].queued = true
	}

	if err := dev.StreamOn(); err != nil {
		p.unmapAll()
		return nil, setupErr("start streaming", err)
	}
	p.streaming = true
	return p, nil
}

// Len returns the driver-determined pool size.
func (p *Pool) Len() int { return len(p.buffers) }

// Dequeue retracts one filled buffer from the kernel and returns it. The
// call blocks, so it should only run after poll signaled readiness. The
// returned buffer is owned by the caller until Requeue.
func (p *Pool) Dequeue() (*MappedBuffer, error) {
	index, used, err := p.dev.DequeueBuffer()
	if err != nil {
		return nil, err
	}
	if int(index) >= len(p.buffers) {
		return nil, fmt.Errorf("driver returned out-of-range buffer index %d", index)
	}
	buf := &p.buffers[index]
	buf.queued = false
	buf.Data = buf.Data[:0:cap(buf.Data)]
	buf.Data = buf.Data[:used]
	return buf, nil
}

// Requeue hands a dequeued buffer back to the kernel for writing.
func (p *Pool) Requeue(buf *MappedBuffer) error {
	if buf.queued {
		return nil
	}
	buf.Data = buf.Data[:cap(buf.Data)]
	if err := p.dev.QueueBuffer(buf.Index); err != nil {
		return err
	}
	buf.queued = true
	return nil
}

// Close tears the pool down: every still-queued buffer is retracted from
// the kernel before streaming is disabled (some drivers hang on STREAMOFF
// with buffers queued), then every mapping is released. Safe to call more
// than once and after partial queuing.
func (p *Pool) Close() {
	if p.streaming {
		for i := range p.buffers {
			if !p.buffers[i].queued {
				continue
			}
			if _, _, err := p.dev.DequeueBuffer(); err != nil {
				p.logger.Debug("Buffer retract during teardown failed", "error", err)
				break
			}
			p.buffers[i].queued = false
		}
		if err := p.dev.StreamOff(); err != nil {
			p.logger.Warn("Cannot stop streaming", "error", err)
		}
		p.streaming = false
	}
	p.unmapAll()
}

func (p *Pool) unmapAll() {
	for i := range p.buffers {
		if p.buffers[i].Data == nil {
			continue
		}
		if err := p.dev.Munmap(p.buffers[i].Data[:cap(p.buffers[i].Data)]); err != nil {
			p.logger.Warn("Cannot unmap buffer", "index", p.buffers[i].Index, "error", err)
		}
		p.buffers[i].Data = nil
		p.buffers[i].queued = false
	}
	p.buffers = p.buffers[:0]
}
