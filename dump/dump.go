package dump

import (
	"fmt"
	"strings"
)

// DisplayMode selects which columns Lines renders.
type DisplayMode int

const (
	ModeHex DisplayMode = iota
	ModeASCII
	ModeAll
)

// CaptureWidth is the fixed render width used for capture-file dump lines,
// regardless of the width chosen for live tracing. Changing it breaks
// compatibility with existing capture files.
const CaptureWidth = 16

func ParseDisplayMode(s string) (DisplayMode, error) {
	switch strings.ToLower(s) {
	case "hex":
		return ModeHex, nil
	case "ascii":
		return ModeASCII, nil
	case "all":
		return ModeAll, nil
	}
	return ModeAll, fmt.Errorf("unknown display mode %q (want ascii|hex|all)", s)
}

func (m DisplayMode) String() string {
	switch m {
	case ModeHex:
		return "hex"
	case ModeASCII:
		return "ascii"
	default:
		return "all"
	}
}

// Lines renders data as annotated dump lines: a 4-hex-digit offset of the
// chunk's first byte, a colon, a hex column (two digits plus a space per
// byte, space-padded to a full width column) and/or an ASCII column
// delimited by '|' in which unprintable bytes render as '.'. Zero-length
// input yields zero lines. The same line shape is the on-disk payload
// encoding consumed by protocol.Decoder, so the two must never diverge.
func Lines(width int, mode DisplayMode, data []byte) []string {
	if width <= 0 {
		width = CaptureWidth
	}
	lines := make([]string, 0, (len(data)+width-1)/width)
	for off := 0; off < len(data); off += width {
		end := off + width
		if end > len(data) {
			end = len(data)
		}
		lines = append(lines, line(width, mode, off, data[off:end]))
	}
	return lines
}

func line(width int, mode DisplayMode, off int, chunk []byte) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%04x: ", off)
	if mode == ModeHex || mode == ModeAll {
		for _, c := range chunk {
			fmt.Fprintf(&b, "%02x ", c)
		}
		// pad the hex column so the ASCII column stays aligned
		b.WriteString(strings.Repeat("   ", width-len(chunk)))
	}
	if mode == ModeASCII || mode == ModeAll {
		b.WriteByte('|')
		for _, c := range chunk {
			if c >= 0x20 && c < 0x7f {
				b.WriteByte(c)
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('|')
	}
	if mode == ModeHex {
		return strings.TrimRight(b.String(), " ")
	}
	return b.String()
}
