// Package imgend locates where the recognised structure of a GIF, JPEG or
// PNG file ends, so that bytes appended after it can be reported.
//
// Every function in this package is total: truncated or malformed input
// resolves to the nearest safe offset in [0, len(buf)] and never panics.
package imgend

import "bytes"

// Format identifies an image container by its magic signature.
type Format int

const (
	Unknown Format = iota
	GIF
	JPEG
	PNG
)

func (f Format) String() string {
	switch f {
	case GIF:
		return "gif"
	case JPEG:
		return "jpeg"
	case PNG:
		return "png"
	default:
		return "unknown"
	}
}

// Signature is a magic prefix that selects a format.
type Signature struct {
	Format Format
	Magic  []byte
}

// signatures are checked in order; the first match wins.
var signatures = []Signature{
	{Format: GIF, Magic: []byte("GIF87a")},
	{Format: GIF, Magic: []byte("GIF89a")},
	{Format: JPEG, Magic: []byte{0xFF, 0xD8}},
	{Format: PNG, Magic: []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}},
}

// Signatures returns a copy of the recognised magic prefixes.
func Signatures() []Signature {
	out := make([]Signature, len(signatures))
	for i, s := range signatures {
		out[i] = Signature{Format: s.Format, Magic: bytes.Clone(s.Magic)}
	}
	return out
}

// Detect classifies buf by its leading bytes.
func Detect(buf []byte) Format {
	for _, s := range signatures {
		if bytes.HasPrefix(buf, s.Magic) {
			return s.Format
		}
	}
	return Unknown
}

// End returns the first offset not belonging to the image structure.
// Unknown formats return len(buf), meaning no appended data.
func End(buf []byte) int {
	return walk(buf, nil)
}

// Appended returns the bytes after End(buf). The result aliases buf.
func Appended(buf []byte) []byte {
	return buf[End(buf):]
}

// Layout is the result of a structure walk.
type Layout struct {
	Format Format
	Size   int
	End    int
	Parts  []Part
}

// AppendedLen is the number of bytes after the image structure.
func (l Layout) AppendedLen() int {
	return l.Size - l.End
}

// Walk runs the same scan as End and also records every part visited.
func Walk(buf []byte) Layout {
	l := Layout{Format: Detect(buf), Size: len(buf)}
	l.End = walk(buf, func(p Part) {
		l.Parts = append(l.Parts, p)
	})
	return l
}

func walk(buf []byte, visit visitor) int {
	c := cursor(buf)
	switch Detect(buf) {
	case GIF:
		return walkGIF(c, visit)
	case JPEG:
		return walkJPEG(c, visit)
	case PNG:
		return walkPNG(c, visit)
	default:
		return len(buf)
	}
}
