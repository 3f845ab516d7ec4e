package imgend

const (
	gifHeaderSize = 13 // signature + logical screen descriptor

	gifImageSeparator      = 0x2C
	gifExtensionIntroducer = 0x21
	gifTrailer             = 0x3B

	gifImageDescriptorSkip = 9
)

// GIFEnd returns the offset one past the GIF trailer, or the nearest
// safe offset when the block structure is truncated or malformed.
func GIFEnd(buf []byte) int {
	return walkGIF(cursor(buf), nil)
}

// gifColorTableLen decodes the color table size from a packed-fields byte.
func gifColorTableLen(flags byte) int {
	if flags&0x80 == 0 {
		return 0
	}
	return 3 << ((flags & 0x07) + 1)
}

// gifSubBlocksEnd walks length-prefixed sub-blocks starting at off and
// returns one past the zero-length terminator, or len(c) when it is missing.
func gifSubBlocksEnd(c cursor, off int) int {
	i := off
	for i < c.len() {
		n := c[i]
		if n == 0 {
			return i + 1
		}
		i += int(n) + 1
	}
	return c.len()
}

func gifExtensionKind(label byte, ok bool) string {
	if !ok {
		return "extension"
	}
	switch label {
	case 0xF9:
		return "graphic control extension"
	case 0xFE:
		return "comment extension"
	case 0x01:
		return "plain text extension"
	case 0xFF:
		return "application extension"
	default:
		return "extension"
	}
}

func walkGIF(c cursor, visit visitor) int {
	n := c.len()
	if n <= 10 {
		return n
	}
	visit.emit(c, "header", 0, gifHeaderSize)

	ctl := gifColorTableLen(c[10])
	if ctl > 0 {
		visit.emit(c, "global color table", gifHeaderSize, ctl)
	}

	i := gifHeaderSize + ctl
	for i < n {
		start := i
		switch c[i] {
		case gifImageSeparator:
			i += gifImageDescriptorSkip
			if i >= n {
				visit.emit(c, "image", start, n-start)
				return n
			}
			// packed fields byte plus LZW minimum code size
			i += gifColorTableLen(c[i]) + 2
			i = gifSubBlocksEnd(c, i)
			visit.emit(c, "image", start, i-start)
		case gifExtensionIntroducer:
			label, ok := c.u8(i + 1)
			i = gifSubBlocksEnd(c, i+2)
			visit.emit(c, gifExtensionKind(label, ok), start, i-start)
		case gifTrailer:
			visit.emit(c, "trailer", i, 1)
			return i + 1
		default:
			return i
		}
	}
	return min(i, n)
}
