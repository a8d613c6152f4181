//go:build linux && (amd64 || arm64)

// Package v4l2 is a thin pure-Go boundary around the Video4Linux2 kernel
// interface: device capabilities, format enumeration and negotiation ioctls,
// streaming buffer management and readiness polling. It carries no policy;
// higher-level selection logic lives in internal/capture.
package v4l2

import (
	"errors"
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Device is an open V4L2 capture device node.
type Device struct {
	fd   int
	path string
}

// Capability describes the device as reported by VIDIOC_QUERYCAP.
type Capability struct {
	Driver       string
	Card         string
	BusInfo      string
	Version      string
	Capabilities uint32
	DeviceCaps   uint32
}

// Caps returns the capability flags that apply to this device node. Drivers
// exposing multiple functions set V4L2_CAP_DEVICE_CAPS and report the
// node-specific set separately.
func (c Capability) Caps() uint32 {
	if c.Capabilities&CapDeviceCaps != 0 {
		return c.DeviceCaps
	}
	return c.Capabilities
}

// FormatDesc is one entry of the device's format enumeration.
type FormatDesc struct {
	Index       uint32
	PixelFormat uint32
	Flags       uint32
	Description string
}

// Emulated reports whether the driver synthesizes this format by software
// conversion instead of producing it natively.
func (d FormatDesc) Emulated() bool { return d.Flags&FmtFlagEmulated != 0 }

// Compressed reports whether this is a compressed format.
func (d FormatDesc) Compressed() bool { return d.Flags&FmtFlagCompressed != 0 }

// PixFormat mirrors the negotiable fields of struct v4l2_pix_format.
type PixFormat struct {
	Width        uint32
	Height       uint32
	PixelFormat  uint32
	Field        uint32
	BytesPerLine uint32
	SizeImage    uint32
}

// Fract is a frame interval as numerator/denominator seconds per frame.
type Fract struct {
	Numerator   uint32
	Denominator uint32
}

// Open opens the device node at path for capture.
func Open(path string) (*Device, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Device{fd: fd, path: path}, nil
}

// Path returns the device node path this device was opened from.
func (d *Device) Path() string { return d.path }

// Fd returns the underlying descriptor.
func (d *Device) Fd() int { return d.fd }

// Close releases the descriptor.
func (d *Device) Close() error {
	return unix.Close(d.fd)
}

// Capability queries the device identity and capability flags.
func (d *Device) Capability() (Capability, error) {
	var c capability
	if err := d.ioctl(vidiocQuerycap, unsafe.Pointer(&c)); err != nil {
		return Capability{}, fmt.Errorf("querycap: %w", err)
	}
	return Capability{
		Driver:  cstr(c.driver[:]),
		Card:    cstr(c.card[:]),
		BusInfo: cstr(c.busInfo[:]),
		Version: fmt.Sprintf("%d.%d.%d",
			byte(c.version>>16), byte(c.version>>8), byte(c.version)),
		Capabilities: c.capabilities,
		DeviceCaps:   c.deviceCaps,
	}, nil
}

// EnumFormats enumerates every pixel format the device can produce, in the
// order the driver reports them.
func (d *Device) EnumFormats() ([]FormatDesc, error) {
	var out []FormatDesc
	for i := uint32(0); ; i++ {
		fd := fmtdesc{index: i, typ: BufTypeVideoCapture}
		if err := d.ioctl(vidiocEnumFmt, unsafe.Pointer(&fd)); err != nil {
			if errors.Is(err, unix.EINVAL) {
				break // end of enumeration
			}
			return nil, fmt.Errorf("enum_fmt: %w", err)
		}
		out = append(out, FormatDesc{
			Index:       fd.index,
			PixelFormat: fd.pixelformat,
			Flags:       fd.flags,
			Description: cstr(fd.description[:]),
		})
	}
	return out, nil
}

// GetFormat reads the current capture format.
func (d *Device) GetFormat() (PixFormat, error) {
	f := format{typ: BufTypeVideoCapture}
	if err := d.ioctl(vidiocGFmt, unsafe.Pointer(&f)); err != nil {
		return PixFormat{}, fmt.Errorf("g_fmt: %w", err)
	}
	return pixOut(f.pix), nil
}

// SetFormat requests a capture format. The driver is free to adjust every
// requested value; the returned format is what the device actually uses.
func (d *Device) SetFormat(p PixFormat) (PixFormat, error) {
	f := format{typ: BufTypeVideoCapture, pix: pixFormat{
		width:       p.Width,
		height:      p.Height,
		pixelformat: p.PixelFormat,
		field:       p.Field,
	}}
	if err := d.ioctl(vidiocSFmt, unsafe.Pointer(&f)); err != nil {
		return PixFormat{}, fmt.Errorf("s_fmt: %w", err)
	}
	return pixOut(f.pix), nil
}

// GetParm reads the current frame interval.
func (d *Device) GetParm() (Fract, error) {
	p := streamparm{typ: BufTypeVideoCapture}
	if err := d.ioctl(vidiocGParm, unsafe.Pointer(&p)); err != nil {
		return Fract{}, fmt.Errorf("g_parm: %w", err)
	}
	tf := p.capture.timeperframe
	return Fract{Numerator: tf.numerator, Denominator: tf.denominator}, nil
}

// SetParm requests a frame interval and returns the achieved one.
func (d *Device) SetParm(tf Fract) (Fract, error) {
	p := streamparm{typ: BufTypeVideoCapture}
	p.capture.timeperframe = fract{numerator: tf.Numerator, denominator: tf.Denominator}
	if err := d.ioctl(vidiocSParm, unsafe.Pointer(&p)); err != nil {
		return Fract{}, fmt.Errorf("s_parm: %w", err)
	}
	got := p.capture.timeperframe
	return Fract{Numerator: got.numerator, Denominator: got.denominator}, nil
}

// GetInput returns the currently selected video input.
func (d *Device) GetInput() (int, error) {
	var idx int32
	if err := d.ioctl(vidiocGInput, unsafe.Pointer(&idx)); err != nil {
		return 0, fmt.Errorf("g_input: %w", err)
	}
	return int(idx), nil
}

// SetInput selects a video input. Devices with a single input reject or
// ignore this; EINVAL is not reported as an error.
func (d *Device) SetInput(index int) error {
	idx := int32(index)
	if err := d.ioctl(vidiocSInput, unsafe.Pointer(&idx)); err != nil {
		if errors.Is(err, unix.EINVAL) {
			return nil
		}
		return fmt.Errorf("s_input: %w", err)
	}
	return nil
}

// RequestBuffers asks the driver to allocate a set of mmap-able capture
// buffers. The returned count is driver-determined and may differ from the
// request. A count of zero releases a previously allocated set.
func (d *Device) RequestBuffers(count uint32) (uint32, error) {
	rb := requestbuffers{count: count, typ: BufTypeVideoCapture, memory: MemoryMmap}
	if err := d.ioctl(vidiocReqbufs, unsafe.Pointer(&rb)); err != nil {
		return 0, fmt.Errorf("reqbufs: %w", err)
	}
	return rb.count, nil
}

// QueryBuffer returns the mmap offset and length of the buffer at index.
func (d *Device) QueryBuffer(index uint32) (offset, length uint32, err error) {
	b := buffer{index: index, typ: BufTypeVideoCapture, memory: MemoryMmap}
	if err := d.ioctl(vidiocQuerybuf, unsafe.Pointer(&b)); err != nil {
		return 0, 0, fmt.Errorf("querybuf %d: %w", index, err)
	}
	return uint32(b.m), b.length, nil
}

// QueueBuffer hands the buffer at index back to the kernel for writing.
func (d *Device) QueueBuffer(index uint32) error {
	b := buffer{index: index, typ: BufTypeVideoCapture, memory: MemoryMmap}
	if err := d.ioctl(vidiocQbuf, unsafe.Pointer(&b)); err != nil {
		return fmt.Errorf("qbuf %d: %w", index, err)
	}
	return nil
}

// DequeueBuffer retracts one filled buffer from the kernel. Blocks until a
// buffer is available unless the descriptor is non-blocking.
func (d *Device) DequeueBuffer() (index, bytesused uint32, err error) {
	b := buffer{typ: BufTypeVideoCapture, memory: MemoryMmap}
	if err := d.ioctl(vidiocDqbuf, unsafe.Pointer(&b)); err != nil {
		return 0, 0, fmt.Errorf("dqbuf: %w", err)
	}
	return b.index, b.bytesused, nil
}

// StreamOn enables streaming capture.
func (d *Device) StreamOn() error {
	typ := uint32(BufTypeVideoCapture)
	if err := d.ioctl(vidiocStreamon, unsafe.Pointer(&typ)); err != nil {
		return fmt.Errorf("streamon: %w", err)
	}
	return nil
}

// StreamOff disables streaming capture.
func (d *Device) StreamOff() error {
	typ := uint32(BufTypeVideoCapture)
	if err := d.ioctl(vidiocStreamoff, unsafe.Pointer(&typ)); err != nil {
		return fmt.Errorf("streamoff: %w", err)
	}
	return nil
}

// Mmap maps the kernel buffer at offset into process memory.
func (d *Device) Mmap(offset, length uint32) ([]byte, error) {
	return unix.Mmap(d.fd, int64(offset), int(length),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
}

// Munmap releases a mapping obtained from Mmap.
func (d *Device) Munmap(data []byte) error {
	return unix.Munmap(data)
}

// Read pulls one block of frame data directly from the device.
func (d *Device) Read(p []byte) (int, error) {
	return unix.Read(d.fd, p)
}

// Poll waits up to timeout for the descriptor to become readable or to
// signal priority data. Returns false on timeout. Interrupted waits are
// surfaced as unix.EINTR; retry policy belongs to the caller.
func (d *Device) Poll(timeout time.Duration) (bool, error) {
	fds := []unix.PollFd{{Fd: int32(d.fd), Events: unix.POLLIN | unix.POLLPRI}}
	n, err := unix.Poll(fds, int(timeout.Milliseconds()))
	if err != nil {
		return false, err
	}
	return n > 0 && fds[0].Revents != 0, nil
}

func (d *Device) ioctl(req uint, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(d.fd), uintptr(req), uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

func pixOut(p pixFormat) PixFormat {
	return PixFormat{
		Width:        p.width,
		Height:       p.height,
		PixelFormat:  p.pixelformat,
		Field:        p.field,
		BytesPerLine: p.bytesperline,
		SizeImage:    p.sizeimage,
	}
}

func cstr(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
