package imgend

import "fmt"

const (
	jpegMarkerPrefix = 0xFF
	jpegSOI          = 0xD8
	jpegEOI          = 0xD9
	jpegRST0         = 0xD0
	jpegRST7         = 0xD7
	// Bytes below this after 0xFF are not treated as markers.
	jpegMinMarker = 0xC0
)

// JPEGEnd returns the offset one past the EOI marker, or the nearest safe
// offset when the segment structure is truncated or malformed.
//
// Bytes between markers are skipped one at a time, so entropy-coded data
// is crossed without interpretation. A second SOI stops the walk before it.
func JPEGEnd(buf []byte) int {
	return walkJPEG(cursor(buf), nil)
}

// jpegMarkerName returns the short mnemonic for a marker code.
func jpegMarkerName(m byte) string {
	switch m {
	case jpegSOI:
		return "SOI"
	case jpegEOI:
		return "EOI"
	case 0xC4:
		return "DHT"
	case 0xCC:
		return "DAC"
	case 0xDA:
		return "SOS"
	case 0xDB:
		return "DQT"
	case 0xDC:
		return "DNL"
	case 0xDD:
		return "DRI"
	case 0xFE:
		return "COM"
	}
	switch {
	case 0xC0 <= m && m <= 0xCF:
		return fmt.Sprintf("SOF%d", m-0xC0)
	case jpegRST0 <= m && m <= jpegRST7:
		return fmt.Sprintf("RST%d", m-jpegRST0)
	case 0xE0 <= m && m <= 0xEF:
		return fmt.Sprintf("APP%d", m-0xE0)
	}
	return fmt.Sprintf("0x%02X", m)
}

func walkJPEG(c cursor, visit visitor) int {
	n := c.len()
	visit.emit(c, "SOI", 0, 2)

	// start of the current run of non-marker bytes, or -1
	data := -1
	flush := func(end int) {
		if data >= 0 {
			visit.emit(c, "data", data, end-data)
			data = -1
		}
	}

	i := 2
	for i+2 <= n {
		if c[i] != jpegMarkerPrefix || c[i+1] < jpegMinMarker {
			if data < 0 {
				data = i
			}
			i++
			continue
		}
		flush(i)

		m := c[i+1]
		switch {
		case m == jpegEOI:
			visit.emit(c, "EOI", i, 2)
			return i + 2
		case m == jpegSOI:
			return i
		case jpegRST0 <= m && m <= jpegRST7:
			visit.emit(c, jpegMarkerName(m), i, 2)
			i += 2
		default:
			length, ok := c.be16(i + 2)
			if !ok {
				visit.emit(c, jpegMarkerName(m), i, n-i)
				return n
			}
			visit.emit(c, jpegMarkerName(m), i, int(length)+2)
			i += int(length) + 2
		}
	}
	flush(min(i, n))
	return min(i, n)
}
