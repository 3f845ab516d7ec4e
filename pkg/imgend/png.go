package imgend

const (
	pngSignatureSize = 8
	// length + type + CRC around every chunk payload
	pngChunkOverhead = 12
	// "IEND" read as a big-endian uint32
	pngIEND = 0x49454E44
)

// PNGEnd returns the offset one past the IEND chunk's CRC, or the nearest
// safe offset when the chunk sequence is truncated.
//
// The declared length of IEND is ignored; the chunk always ends 12 bytes
// after its header starts.
func PNGEnd(buf []byte) int {
	return walkPNG(cursor(buf), nil)
}

func pngChunkKind(typ uint32) string {
	b := [4]byte{byte(typ >> 24), byte(typ >> 16), byte(typ >> 8), byte(typ)}
	for _, ch := range b {
		if ch < 0x20 || ch > 0x7E {
			return "chunk"
		}
	}
	return string(b[:])
}

func walkPNG(c cursor, visit visitor) int {
	n := c.len()
	visit.emit(c, "signature", 0, pngSignatureSize)

	i := pngSignatureSize
	for i+8 < n {
		length, _ := c.be32(i)
		typ, _ := c.be32(i + 4)
		if typ == pngIEND {
			visit.emit(c, "IEND", i, pngChunkOverhead)
			return min(i+pngChunkOverhead, n)
		}

		// 64-bit so a hostile length cannot wrap the cursor
		next := int64(i) + int64(length) + pngChunkOverhead
		if next > int64(n) {
			visit.emit(c, pngChunkKind(typ), i, n-i)
			return n
		}
		visit.emit(c, pngChunkKind(typ), i, int(next)-i)
		i = int(next)
	}
	return min(i, n)
}
