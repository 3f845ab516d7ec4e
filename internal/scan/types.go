package scan

import (
	"time"

	"github.com/samcharles93/appendscan/internal/extract"
	"github.com/samcharles93/appendscan/pkg/imgend"
)

// PreviewLen is how many appended bytes are kept for reports.
const PreviewLen = 20

// Result is the verdict for one file.
type Result struct {
	Path   string
	Format imgend.Format
	Size   int
	// End is the first offset past the image structure.
	End int
	// Preview holds up to PreviewLen bytes starting at End.
	Preview []byte
	// Saved is set when the discovery was written to the output directory.
	Saved *extract.Saved
	Err   error
}

// Appended is the number of bytes after the image structure.
func (r Result) Appended() int {
	return r.Size - r.End
}

// Found reports whether appended data was detected.
func (r Result) Found() bool {
	return r.Err == nil && r.End < r.Size
}

// Summary describes a whole run.
type Summary struct {
	RunID    string
	Targets  []string
	Scanned  int
	Found    int
	Failed   int
	Started  time.Time
	Finished time.Time
}

// Reporter receives a run's progress. Calls are serialised and results
// arrive in discovery order.
type Reporter interface {
	Begin(s Summary) error
	Report(r Result) error
	End(s Summary) error
}
