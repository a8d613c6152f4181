package capture

import (
	"math"

	"github.com/maxaltenhuber/framegrab/internal/v4l2"
)

// FormatDescriptor maps one device-native pixel encoding to the output
// encoding a frame is exposed as, with the color channel masks for packed
// RGB layouts (zero otherwise). Identity is the native encoding id.
type FormatDescriptor struct {
	Native uint32 // device pixel format fourcc
	Output string // output encoding tag
	RMask  uint32
	GMask  uint32
	BMask  uint32
}

// Output encoding tags.
const (
	OutI420  = "i420"
	OutYV12  = "yv12"
	OutI422  = "i422"
	OutYUYV  = "yuyv"
	OutUYVY  = "uyvy"
	OutYVYU  = "yvyu"
	OutVYUY  = "vyuy"
	OutI411  = "i411"
	OutI410  = "i410"
	OutNV12  = "nv12"
	OutNV21  = "nv21"
	OutRGB32 = "rgb32"
	OutRGB24 = "rgb24"
	OutRGB16 = "rgb16"
	OutRGB15 = "rgb15"
	OutMJPEG = "mjpeg"
	OutH264  = "h264"
	OutMP4V  = "mp4v"
	OutH263  = "h263"
	OutMPGV  = "mpgv"
	OutVC1   = "vc1"
	OutGrey  = "grey"
)

// catalog is sorted in order of decreasing preference; rank() relies on
// table position. Append-only: entries absent here are encodings the output
// side cannot consume and negotiation skips them. Masks follow the
// little-endian layouts.
var catalog = []FormatDescriptor{
	// Planar YUV 4:2:0
	{v4l2.PixFmtYUV420, OutI420, 0, 0, 0},
	{v4l2.PixFmtYVU420, OutYV12, 0, 0, 0},
	{v4l2.PixFmtYUV422P, OutI422, 0, 0, 0},
	// Packed YUV 4:2:2
	{v4l2.PixFmtYUYV, OutYUYV, 0, 0, 0},
	{v4l2.PixFmtUYVY, OutUYVY, 0, 0, 0},
	{v4l2.PixFmtYVYU, OutYVYU, 0, 0, 0},
	{v4l2.PixFmtVYUY, OutVYUY, 0, 0, 0},

	{v4l2.PixFmtYUV411P, OutI411, 0, 0, 0},
	{v4l2.PixFmtYUV410, OutI410, 0, 0, 0},

	{v4l2.PixFmtNV12, OutNV12, 0, 0, 0},
	{v4l2.PixFmtNV21, OutNV21, 0, 0, 0},

	// Packed RGB
	{v4l2.PixFmtRGB32, OutRGB32, 0x0000FF, 0x00FF00, 0xFF0000},
	{v4l2.PixFmtBGR32, OutRGB32, 0xFF0000, 0x00FF00, 0x0000FF},
	{v4l2.PixFmtRGB24, OutRGB24, 0x0000FF, 0x00FF00, 0xFF0000},
	{v4l2.PixFmtBGR24, OutRGB24, 0xFF0000, 0x00FF00, 0x0000FF},
	{v4l2.PixFmtRGB565, OutRGB16, 0x001F, 0x07E0, 0xF800},
	{v4l2.PixFmtRGB555, OutRGB15, 0x001F, 0x03E0, 0x7C00},

	// Compressed
	{v4l2.PixFmtJPEG, OutMJPEG, 0, 0, 0},
	{v4l2.PixFmtH264, OutH264, 0, 0, 0},
	{v4l2.PixFmtMPEG4, OutMP4V, 0, 0, 0},
	{v4l2.PixFmtXVID, OutMP4V, 0, 0, 0},
	{v4l2.PixFmtH263, OutH263, 0, 0, 0},
	{v4l2.PixFmtMPEG2, OutMPGV, 0, 0, 0},
	{v4l2.PixFmtMPEG1, OutMPGV, 0, 0, 0},
	{v4l2.PixFmtVC1G, OutVC1, 0, 0, 0},
	{v4l2.PixFmtVC1L, OutVC1, 0, 0, 0},
	{v4l2.PixFmtMJPEG, OutMJPEG, 0, 0, 0},

	// Grey scale
	{v4l2.PixFmtGrey, OutGrey, 0, 0, 0},
}

// Lookup returns the catalog entry for a native pixel format, or nil when
// the output side cannot consume that encoding.
func Lookup(native uint32) *FormatDescriptor {
	for i := range catalog {
		if catalog[i].Native == native {
			return &catalog[i]
		}
	}
	return nil
}

// rank is a descriptor's position in the preference table: lower is better,
// nil ranks below everything.
func rank(d *FormatDescriptor) int {
	if d == nil {
		return math.MaxInt
	}
	for i := range catalog {
		if &catalog[i] == d {
			return i
		}
	}
	return math.MaxInt
}
