//go:build linux && (amd64 || arm64)

package v4l2

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ControlInfo describes one user control (brightness, contrast, ...).
type ControlInfo struct {
	ID      uint32
	Name    string
	Type    uint32
	Min     int32
	Max     int32
	Step    int32
	Default int32
	Flags   uint32
}

// EnumControls lists the device's enabled user controls. Drivers supporting
// V4L2_CTRL_FLAG_NEXT_CTRL are walked with it; otherwise the base control
// range is probed one id at a time.
func (d *Device) EnumControls() ([]ControlInfo, error) {
	var out []ControlInfo

	q := queryctrl{id: CtrlFlagNextCtrl}
	if err := d.ioctl(vidiocQueryctrl, unsafe.Pointer(&q)); err == nil {
		for {
			if q.flags&CtrlFlagDisabled == 0 {
				out = append(out, ctrlOut(q))
			}
			q = queryctrl{id: q.id | CtrlFlagNextCtrl}
			if err := d.ioctl(vidiocQueryctrl, unsafe.Pointer(&q)); err != nil {
				if errors.Is(err, unix.EINVAL) {
					return out, nil
				}
				return out, fmt.Errorf("queryctrl: %w", err)
			}
		}
	}

	// Fallback: probe the classic user control id range.
	for id := uint32(cidBase); id < cidBase+64; id++ {
		q := queryctrl{id: id}
		if err := d.ioctl(vidiocQueryctrl, unsafe.Pointer(&q)); err != nil {
			continue
		}
		if q.flags&CtrlFlagDisabled == 0 {
			out = append(out, ctrlOut(q))
		}
	}
	return out, nil
}

// GetControl reads the current value of a control.
func (d *Device) GetControl(id uint32) (int32, error) {
	c := control{id: id}
	if err := d.ioctl(vidiocGCtrl, unsafe.Pointer(&c)); err != nil {
		return 0, fmt.Errorf("g_ctrl %#x: %w", id, err)
	}
	return c.value, nil
}

// SetControl writes a control value.
func (d *Device) SetControl(id uint32, value int32) error {
	c := control{id: id, value: value}
	if err := d.ioctl(vidiocSCtrl, unsafe.Pointer(&c)); err != nil {
		return fmt.Errorf("s_ctrl %#x: %w", id, err)
	}
	return nil
}

func ctrlOut(q queryctrl) ControlInfo {
	return ControlInfo{
		ID:      q.id,
		Name:    cstr(q.name[:]),
		Type:    q.typ,
		Min:     q.minimum,
		Max:     q.maximum,
		Step:    q.step,
		Default: q.defaultValue,
		Flags:   q.flags,
	}
}
