// Package devices discovers V4L2 capture devices and watches for hotplug
// changes. Discovery probes /dev/video* nodes directly; hotplug detection
// watches the /dev directory and diffs the device set on changes.
package devices

import (
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/maxaltenhuber/framegrab/internal/v4l2"
)

// DeviceInfo describes one discovered capture device node.
type DeviceInfo struct {
	Path      string `json:"path"`
	Name      string `json:"name"`
	Driver    string `json:"driver"`
	Bus       string `json:"bus"`
	Capture   bool   `json:"capture"`
	Streaming bool   `json:"streaming"`
	ReadWrite bool   `json:"read_write"`
}

// FormatInfo describes one pixel format a device can produce.
type FormatInfo struct {
	PixelFormat uint32 `json:"pixel_format"`
	FourCC      string `json:"fourcc"`
	Description string `json:"description"`
	Emulated    bool   `json:"emulated"`
	Compressed  bool   `json:"compressed"`
}

// Scanner enumerates V4L2 device nodes.
type Scanner struct {
	glob   string
	probe  func(path string) (DeviceInfo, error)
	logger *slog.Logger
}

// NewScanner creates a scanner over the default /dev/video* nodes.
func NewScanner(logger *slog.Logger) *Scanner {
	return &Scanner{
		glob:   "/dev/video*",
		probe:  probeDevice,
		logger: logger,
	}
}

// Scan probes every matching device node and returns the ones that opened
// successfully, ordered by node number. Nodes that cannot be opened or
// queried are skipped; video nodes are frequently owned by other processes
// or expose non-capture functions.
func (s *Scanner) Scan() ([]DeviceInfo, error) {
	paths, err := filepath.Glob(s.glob)
	if err != nil {
		return nil, err
	}
	sortDevicePaths(paths)

	var out []DeviceInfo
	for _, path := range paths {
		info, err := s.probe(path)
		if err != nil {
			s.logger.Debug("Skipping device node", "path", path, "error", err)
			continue
		}
		out = append(out, info)
	}
	return out, nil
}

// Formats enumerates the pixel formats a device offers.
func (s *Scanner) Formats(path string) ([]FormatInfo, error) {
	dev, err := v4l2.Open(path)
	if err != nil {
		return nil, err
	}
	defer dev.Close()

	descs, err := dev.EnumFormats()
	if err != nil {
		return nil, err
	}

	formats := make([]FormatInfo, len(descs))
	for i, d := range descs {
		formats[i] = FormatInfo{
			PixelFormat: d.PixelFormat,
			FourCC:      v4l2.FourCCString(d.PixelFormat),
			Description: d.Description,
			Emulated:    d.Emulated(),
			Compressed:  d.Compressed(),
		}
	}
	return formats, nil
}

func probeDevice(path string) (DeviceInfo, error) {
	dev, err := v4l2.Open(path)
	if err != nil {
		return DeviceInfo{}, err
	}
	defer dev.Close()

	devcap, err := dev.Capability()
	if err != nil {
		return DeviceInfo{}, err
	}

	caps := devcap.Caps()
	return DeviceInfo{
		Path:      path,
		Name:      devcap.Card,
		Driver:    devcap.Driver,
		Bus:       devcap.BusInfo,
		Capture:   caps&v4l2.CapVideoCapture != 0,
		Streaming: caps&v4l2.CapStreaming != 0,
		ReadWrite: caps&v4l2.CapReadWrite != 0,
	}, nil
}

// sortDevicePaths orders /dev/videoN paths by node number so video10 sorts
// after video9 rather than after video1.
func sortDevicePaths(paths []string) {
	sort.Slice(paths, func(i, j int) bool {
		return devicePathLess(paths[i], paths[j])
	})
}

func devicePathLess(a, b string) bool {
	na, aok := nodeNumber(a)
	nb, bok := nodeNumber(b)
	if aok && bok {
		return na < nb
	}
	return a < b
}

func nodeNumber(path string) (int, bool) {
	base := filepath.Base(path)
	digits := strings.TrimPrefix(base, "video")
	if digits == base {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}
