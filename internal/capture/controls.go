package capture

import (
	"fmt"
	"log/slog"

	"github.com/maxaltenhuber/framegrab/internal/v4l2"
)

// Controls is the session's handle on the device control subsystem
// (brightness, contrast, ...). The core only manages its lifecycle; values
// pass straight through to the device.
type Controls struct {
	dev  ControlDevice
	list []v4l2.ControlInfo
}

// newControls enumerates the device's controls. Devices without a control
// surface yield an empty handle rather than an error.
func newControls(dev Device, logger *slog.Logger) *Controls {
	cd, ok := dev.(ControlDevice)
	if !ok {
		return &Controls{}
	}
	list, err := cd.EnumControls()
	if err != nil {
		logger.Debug("Cannot enumerate device controls", "error", err)
	}
	logger.Debug("Device controls", "count", len(list))
	return &Controls{dev: cd, list: list}
}

// List returns the enumerated controls.
func (c *Controls) List() []v4l2.ControlInfo { return c.list }

// Get reads a control's current value.
func (c *Controls) Get(id uint32) (int32, error) {
	if c.dev == nil {
		return 0, fmt.Errorf("device has no controls")
	}
	return c.dev.GetControl(id)
}

// Set writes a control value.
func (c *Controls) Set(id uint32, value int32) error {
	if c.dev == nil {
		return fmt.Errorf("device has no controls")
	}
	return c.dev.SetControl(id, value)
}

// Close releases the handle. Nothing device-side to undo; values stay as
// the user set them.
func (c *Controls) Close() {
	c.dev = nil
	c.list = nil
}
