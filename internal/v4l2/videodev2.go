//go:build linux && (amd64 || arm64)

package v4l2

// Constants and struct layouts from include/uapi/linux/videodev2.h.
// Ioctl numbers are precomputed for 64-bit kernels (struct v4l2_buffer
// carries a 16-byte timeval there, so the encoded sizes differ from the
// 32-bit ABI).

const (
	vidiocQuerycap  = 0x80685600
	vidiocEnumFmt   = 0xc0405602
	vidiocGFmt      = 0xc0d05604
	vidiocSFmt      = 0xc0d05605
	vidiocReqbufs   = 0xc0145608
	vidiocQuerybuf  = 0xc0585609
	vidiocQbuf      = 0xc058560f
	vidiocDqbuf     = 0xc0585611
	vidiocStreamon  = 0x40045612
	vidiocStreamoff = 0x40045613
	vidiocGParm     = 0xc0cc5615
	vidiocSParm     = 0xc0cc5616
	vidiocGCtrl     = 0xc008561b
	vidiocSCtrl     = 0xc008561c
	vidiocQueryctrl = 0xc0445624
	vidiocGInput    = 0x80045626
	vidiocSInput    = 0xc0045627
)

// Buffer types and memory models.
const (
	BufTypeVideoCapture = 1
	MemoryMmap          = 1
)

// Device capability flags (v4l2_capability.capabilities / device_caps).
const (
	CapVideoCapture = 0x00000001
	CapReadWrite    = 0x01000000
	CapStreaming    = 0x04000000
	CapDeviceCaps   = 0x80000000
)

// Format description flags (v4l2_fmtdesc.flags).
const (
	FmtFlagCompressed = 0x0001
	FmtFlagEmulated   = 0x0002
)

// Field orders (v4l2_pix_format.field).
const (
	FieldAny          = 0
	FieldNone         = 1
	FieldTop          = 2
	FieldBottom       = 3
	FieldInterlaced   = 4
	FieldSeqTB        = 5
	FieldSeqBT        = 6
	FieldAlternate    = 7
	FieldInterlacedTB = 8
	FieldInterlacedBT = 9
)

// Control types and flags (v4l2_queryctrl).
const (
	CtrlTypeInteger = 1
	CtrlTypeBoolean = 2
	CtrlTypeMenu    = 3
	CtrlTypeButton  = 4

	CtrlFlagDisabled = 0x0001
	CtrlFlagNextCtrl = 0x80000000

	cidBase = 0x00980900
)

type capability struct {
	driver       [16]byte
	card         [32]byte
	busInfo      [32]byte
	version      uint32
	capabilities uint32
	deviceCaps   uint32
	_            [3]uint32
}

type fmtdesc struct {
	index       uint32
	typ         uint32
	flags       uint32
	description [32]byte
	pixelformat uint32
	mbusCode    uint32
	_           [3]uint32
}

type pixFormat struct {
	width        uint32
	height       uint32
	pixelformat  uint32
	field        uint32
	bytesperline uint32
	sizeimage    uint32
	colorspace   uint32
	priv         uint32
	flags        uint32
	ycbcrEnc     uint32
	quantization uint32
	xferFunc     uint32
}

// format is struct v4l2_format: a type tag plus a 200-byte union, 8-byte
// aligned on 64-bit.
type format struct {
	typ uint32
	_   uint32
	pix pixFormat
	_   [200 - 48]byte
}

type fract struct {
	numerator   uint32
	denominator uint32
}

type captureparm struct {
	capability   uint32
	capturemode  uint32
	timeperframe fract
	extendedmode uint32
	readbuffers  uint32
	_            [4]uint32
}

// streamparm is struct v4l2_streamparm: a type tag plus a 200-byte union.
type streamparm struct {
	typ     uint32
	capture captureparm
	_       [200 - 40]byte
}

type requestbuffers struct {
	count        uint32
	typ          uint32
	memory       uint32
	capabilities uint32
	flags        uint8
	_            [3]uint8
}

type timecode struct {
	typ      uint32
	flags    uint32
	frames   uint8
	seconds  uint8
	minutes  uint8
	hours    uint8
	userbits [4]uint8
}

// buffer is struct v4l2_buffer for the 64-bit ABI (88 bytes).
type buffer struct {
	index     uint32
	typ       uint32
	bytesused uint32
	flags     uint32
	field     uint32
	_         uint32
	tvSec     int64
	tvUsec    int64
	timecode  timecode
	sequence  uint32
	memory    uint32
	m         uint64 // union: mmap offset / userptr / planes
	length    uint32
	_         uint32
	_         uint32
	_         uint32
}

type queryctrl struct {
	id           uint32
	typ          uint32
	name         [32]byte
	minimum      int32
	maximum      int32
	step         int32
	defaultValue int32
	flags        uint32
	_            [2]uint32
}

type control struct {
	id    uint32
	value int32
}
