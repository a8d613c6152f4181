package capture

import (
	"log/slog"

	"github.com/maxaltenhuber/framegrab/internal/v4l2"
)

// ProbeResult reports what a device offers and what a session opened on it
// would negotiate.
type ProbeResult struct {
	Capability v4l2.Capability
	Formats    []v4l2.FormatDesc
	Selected   *FormatDescriptor
	// Input is the currently selected video input, -1 when the device does
	// not report one.
	Input int
}

// Probe inspects a device without starting capture. Selected is nil when no
// offered format is recognized.
func Probe(dev Device, requested string, logger *slog.Logger) (ProbeResult, error) {
	devcap, err := dev.Capability()
	if err != nil {
		return ProbeResult{}, err
	}

	formats, err := dev.EnumFormats()
	if err != nil {
		return ProbeResult{}, err
	}

	res := ProbeResult{Capability: devcap, Formats: formats, Input: -1}
	if in, ok := dev.(interface{ GetInput() (int, error) }); ok {
		if idx, err := in.GetInput(); err == nil {
			res.Input = idx
		}
	}
	if selected, err := negotiate(dev, requested, logger); err == nil {
		res.Selected = selected
	}
	return res, nil
}
