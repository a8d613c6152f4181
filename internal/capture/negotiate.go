package capture

import (
	"log/slog"

	"github.com/maxaltenhuber/framegrab/internal/v4l2"
)

// negotiate walks every encoding the device reports, in driver order, and
// selects one against the catalog:
//
//   - encodings absent from the catalog are skipped;
//   - an encoding whose output matches the explicitly requested one wins
//     immediately and stops the walk;
//   - once a native (non-emulated) encoding has been accepted, later
//     emulated ones are ignored;
//   - otherwise a candidate only displaces the current best when its
//     catalog rank is strictly better, so ties keep the first-seen entry.
//
// requested is an output encoding tag, empty for no preference. Returns
// ErrNoFormat when nothing the device produces is catalog-recognized.
func negotiate(dev Device, requested string, logger *slog.Logger) (*FormatDescriptor, error) {
	descs, err := dev.EnumFormats()
	if err != nil {
		return nil, setupErr("enumerate formats", err)
	}

	var selected *FormatDescriptor
	native := false

	for _, fd := range descs {
		dsc := Lookup(fd.PixelFormat)

		logger.Debug("Device format",
			"pixel_format", v4l2.FourCCString(fd.PixelFormat),
			"output", outputTag(dsc),
			"emulated", fd.Emulated(),
			"compressed", fd.Compressed(),
			"description", fd.Description)

		if dsc == nil {
			continue // output side cannot consume this encoding
		}

		if requested != "" && dsc.Output == requested {
			logger.Debug("Matches the requested format", "output", dsc.Output)
			selected = dsc
			break // an explicit request always wins
		}

		if fd.Emulated() {
			if native {
				continue // ignore emulated once a native format is in hand
			}
		} else {
			native = true
		}

		if rank(dsc) >= rank(selected) {
			continue
		}
		selected = dsc
	}

	if selected == nil {
		return nil, setupErr("negotiate", ErrNoFormat)
	}
	logger.Debug("Selected format",
		"pixel_format", v4l2.FourCCString(selected.Native), "output", selected.Output)
	return selected, nil
}

func outputTag(d *FormatDescriptor) string {
	if d == nil {
		return "n/a"
	}
	return d.Output
}
