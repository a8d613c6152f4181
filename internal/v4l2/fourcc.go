package v4l2

// FourCC packs four characters into a little-endian pixel format code.
func FourCC(a, b, c, d byte) uint32 {
	return uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24
}

// FourCCString renders a pixel format code as its four-character tag.
// Non-printable bytes are replaced so codes are always safe to log.
func FourCCString(f uint32) string {
	b := [4]byte{byte(f), byte(f >> 8), byte(f >> 16), byte(f >> 24)}
	for i, c := range b {
		if c < 0x20 || c > 0x7e {
			b[i] = '?'
		}
	}
	return string(b[:])
}

// ParseFourCC converts a four-character tag back into a pixel format code.
// Returns 0 for strings that are not exactly four bytes.
func ParseFourCC(s string) uint32 {
	if len(s) != 4 {
		return 0
	}
	return FourCC(s[0], s[1], s[2], s[3])
}

// Capture pixel formats used by the catalog (videodev2.h fourcc macros).
var (
	PixFmtYUV420  = FourCC('Y', 'U', '1', '2')
	PixFmtYVU420  = FourCC('Y', 'V', '1', '2')
	PixFmtYUV422P = FourCC('4', '2', '2', 'P')
	PixFmtYUYV    = FourCC('Y', 'U', 'Y', 'V')
	PixFmtUYVY    = FourCC('U', 'Y', 'V', 'Y')
	PixFmtYVYU    = FourCC('Y', 'V', 'Y', 'U')
	PixFmtVYUY    = FourCC('V', 'Y', 'U', 'Y')
	PixFmtYUV411P = FourCC('4', '1', '1', 'P')
	PixFmtYUV410  = FourCC('Y', 'U', 'V', '9')
	PixFmtNV12    = FourCC('N', 'V', '1', '2')
	PixFmtNV21    = FourCC('N', 'V', '2', '1')
	PixFmtRGB32   = FourCC('R', 'G', 'B', '4')
	PixFmtBGR32   = FourCC('B', 'G', 'R', '4')
	PixFmtRGB24   = FourCC('R', 'G', 'B', '3')
	PixFmtBGR24   = FourCC('B', 'G', 'R', '3')
	PixFmtRGB565  = FourCC('R', 'G', 'B', 'P')
	PixFmtRGB555  = FourCC('R', 'G', 'B', 'O')
	PixFmtJPEG    = FourCC('J', 'P', 'E', 'G')
	PixFmtMJPEG   = FourCC('M', 'J', 'P', 'G')
	PixFmtH264    = FourCC('H', '2', '6', '4')
	PixFmtMPEG4   = FourCC('M', 'P', 'G', '4')
	PixFmtXVID    = FourCC('X', 'V', 'I', 'D')
	PixFmtH263    = FourCC('H', '2', '6', '3')
	PixFmtMPEG2   = FourCC('M', 'P', 'G', '2')
	PixFmtMPEG1   = FourCC('M', 'P', 'G', '1')
	PixFmtVC1G    = FourCC('V', 'C', '1', 'G')
	PixFmtVC1L    = FourCC('V', 'C', '1', 'L')
	PixFmtGrey    = FourCC('G', 'R', 'E', 'Y')
)
