package imgend

import "encoding/binary"

// cursor is a read-only, bounds-checked view over a file buffer.
// Every accessor reports ok=false instead of reading past the end.
type cursor []byte

func (c cursor) len() int { return len(c) }

func (c cursor) u8(off int) (byte, bool) {
	if off < 0 || off >= len(c) {
		return 0, false
	}
	return c[off], true
}

func (c cursor) be16(off int) (uint16, bool) {
	if off < 0 || off > len(c)-2 {
		return 0, false
	}
	return binary.BigEndian.Uint16(c[off:]), true
}

func (c cursor) be32(off int) (uint32, bool) {
	if off < 0 || off > len(c)-4 {
		return 0, false
	}
	return binary.BigEndian.Uint32(c[off:]), true
}

// clamp pins off into [0, len].
func (c cursor) clamp(off int) int {
	switch {
	case off < 0:
		return 0
	case off > len(c):
		return len(c)
	default:
		return off
	}
}

// slice returns c[from:to] with both bounds clamped.
func (c cursor) slice(from, to int) []byte {
	from, to = c.clamp(from), c.clamp(to)
	if to < from {
		to = from
	}
	return c[from:to:to]
}

// span returns the clamped length of [off, off+n).
func (c cursor) span(off, n int) int {
	return c.clamp(off+n) - c.clamp(off)
}
