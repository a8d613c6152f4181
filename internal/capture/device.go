package capture

import (
	"time"

	"github.com/maxaltenhuber/framegrab/internal/v4l2"
)

// Device is the kernel capture boundary the session drives. *v4l2.Device
// satisfies it; tests substitute fakes.
type Device interface {
	Path() string
	Capability() (v4l2.Capability, error)
	EnumFormats() ([]v4l2.FormatDesc, error)
	SetInput(index int) error
	GetFormat() (v4l2.PixFormat, error)
	SetFormat(p v4l2.PixFormat) (v4l2.PixFormat, error)
	GetParm() (v4l2.Fract, error)
	SetParm(tf v4l2.Fract) (v4l2.Fract, error)
	RequestBuffers(count uint32) (uint32, error)
	QueryBuffer(index uint32) (offset, length uint32, err error)
	QueueBuffer(index uint32) error
	DequeueBuffer() (index, bytesused uint32, err error)
	StreamOn() error
	StreamOff() error
	Mmap(offset, length uint32) ([]byte, error)
	Munmap(data []byte) error
	Read(p []byte) (int, error)
	Poll(timeout time.Duration) (bool, error)
	Close() error
}

// ControlDevice is the optional control surface of a Device.
type ControlDevice interface {
	EnumControls() ([]v4l2.ControlInfo, error)
	GetControl(id uint32) (int32, error)
	SetControl(id uint32, value int32) error
}
