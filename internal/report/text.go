package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/samcharles93/appendscan/internal/logger"
	"github.com/samcharles93/appendscan/internal/scan"
)

// Text writes the human-readable scan log. Every line is reduced to
// printable ASCII before it is written.
type Text struct {
	mu sync.Mutex
	w  io.Writer
}

// NewText writes to all of ws, typically stdout and the log file.
func NewText(ws ...io.Writer) *Text {
	return &Text{w: io.MultiWriter(ws...)}
}

func (t *Text) Begin(s scan.Summary) error {
	lines := append([]string{"scanning"}, s.Targets...)
	return t.lines(append(lines, "")...)
}

func (t *Text) Report(r scan.Result) error {
	switch {
	case r.Err != nil:
		return t.lines("error scanning "+r.Path, r.Err.Error(), "")
	case !r.Found():
		return nil
	}

	lines := []string{
		r.Path,
		fmt.Sprintf("found %d bytes starting with:", r.Appended()),
		strconv.Quote(string(r.Preview)),
	}
	if r.Saved != nil && r.Saved.Copied {
		lines = append(lines, "copied to "+r.Saved.Name)
	}
	return t.lines(append(lines, "")...)
}

func (t *Text) End(s scan.Summary) error {
	if s.Found > 0 {
		return nil
	}
	return t.lines("no files found", "")
}

func (t *Text) lines(ls ...string) error {
	var b strings.Builder
	for _, l := range ls {
		b.WriteString(logger.Printable(l))
		b.WriteByte('\n')
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := io.WriteString(t.w, b.String())
	return err
}
