package imgend

// Part is one structural element visited while walking an image:
// a GIF block, a JPEG marker segment or a PNG chunk.
type Part struct {
	Kind   string `json:"kind"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
}

// visitor receives parts in file order. A nil visitor is valid.
type visitor func(Part)

func (v visitor) emit(c cursor, kind string, off, n int) {
	if v == nil {
		return
	}
	v(Part{Kind: kind, Offset: c.clamp(off), Length: c.span(off, n)})
}
