package scan

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/samcharles93/appendscan/internal/extract"
	"github.com/samcharles93/appendscan/internal/filebuf"
	"github.com/samcharles93/appendscan/pkg/imgend"
)

var (
	minimalPNG = []byte{
		0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A,
		0x00, 0x00, 0x00, 0x00, 'I', 'E', 'N', 'D', 0xAE, 0x42, 0x60, 0x82,
	}
	minimalJPEG = []byte{0xFF, 0xD8, 0xFF, 0xD9}
	minimalGIF  = []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00\x3B")
)

type recorder struct {
	mu      sync.Mutex
	begun   *Summary
	results []Result
	ended   *Summary
	failOn  string
}

func (r *recorder) Begin(s Summary) error {
	r.begun = &s
	return nil
}

func (r *recorder) Report(res Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
	if r.failOn != "" && strings.HasSuffix(res.Path, r.failOn) {
		return errors.New("reporter failed")
	}
	return nil
}

func (r *recorder) End(s Summary) error {
	r.ended = &s
	return nil
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func withTail(img []byte, tail string) []byte {
	return append(bytes.Clone(img), tail...)
}

func TestMeasure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		data     []byte
		format   imgend.Format
		appended int
		preview  string
	}{
		{"png with secret", withTail(minimalPNG, "SECRET"), imgend.PNG, 6, "SECRET"},
		{"clean jpeg", minimalJPEG, imgend.JPEG, 0, ""},
		{"gif long tail", withTail(minimalGIF, strings.Repeat("z", 50)), imgend.GIF, 50, strings.Repeat("z", PreviewLen)},
		{"unknown", []byte("hello"), imgend.Unknown, 0, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r := Measure("f", tc.data)
			if r.Format != tc.format {
				t.Fatalf("format: got %v want %v", r.Format, tc.format)
			}
			if r.Appended() != tc.appended {
				t.Fatalf("appended: got %d want %d", r.Appended(), tc.appended)
			}
			if string(r.Preview) != tc.preview {
				t.Fatalf("preview: got %q want %q", r.Preview, tc.preview)
			}
			if r.Found() != (tc.appended > 0) {
				t.Fatalf("found: got %v", r.Found())
			}
		})
	}
}

func TestMeasurePreviewIsCopied(t *testing.T) {
	t.Parallel()

	data := withTail(minimalJPEG, "abc")
	r := Measure("f", data)
	data[len(data)-1] = 'X'
	if string(r.Preview) != "abc" {
		t.Fatalf("preview aliases input: %q", r.Preview)
	}
}

func TestRun(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a.png", withTail(minimalPNG, "SECRET"))
	writeFile(t, root, "b.jpg", minimalJPEG)
	writeFile(t, root, "c/d.gif", withTail(minimalGIF, "tail"))
	writeFile(t, root, "e.txt", withTail(minimalPNG, "ignored"))
	writeFile(t, root, "f.png", []byte("not really a png"))
	out := filepath.Join(t.TempDir(), "found")

	rec := &recorder{}
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := &Scanner{
		Workers:  3,
		Sink:     extract.New(out),
		Reporter: rec,
		now:      func() time.Time { return fixed },
	}

	sum, err := s.Run(context.Background(), []string{root, filepath.Join(root, "missing.png")})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if sum.Scanned != 4 || sum.Found != 2 || sum.Failed != 1 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if sum.RunID == "" || !sum.Started.Equal(fixed) || !sum.Finished.Equal(fixed) {
		t.Fatalf("unexpected summary metadata: %+v", sum)
	}
	if rec.begun == nil || rec.begun.RunID != sum.RunID || rec.ended == nil || rec.ended.Found != 2 {
		t.Fatalf("reporter lifecycle not observed: begun=%v ended=%v", rec.begun, rec.ended)
	}

	wantOrder := []string{"a.png", "b.jpg", filepath.Join("c", "d.gif"), "f.png"}
	if len(rec.results) != len(wantOrder) {
		t.Fatalf("result count: got %d want %d", len(rec.results), len(wantOrder))
	}
	for i, want := range wantOrder {
		if got := rec.results[i].Path; got != filepath.Join(root, want) {
			t.Fatalf("result %d: got %q want %q", i, got, filepath.Join(root, want))
		}
	}

	png := rec.results[0]
	if !png.Found() || png.Appended() != 6 || png.Saved == nil || !png.Saved.Copied {
		t.Fatalf("unexpected png result: %+v", png)
	}
	data, err := os.ReadFile(filepath.Join(out, "a.png.data"))
	if err != nil {
		t.Fatalf("read sidecar: %v", err)
	}
	if string(data) != "SECRET" {
		t.Fatalf("sidecar: got %q want %q", data, "SECRET")
	}
	if _, err := os.Stat(filepath.Join(out, "d.gif.data")); err != nil {
		t.Fatalf("expected gif sidecar: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "b.jpg")); !os.IsNotExist(err) {
		t.Fatalf("clean file must not be copied, stat err=%v", err)
	}
}

func TestRunWithoutSink(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := writeFile(t, root, "x.png", withTail(minimalPNG, "!"))

	rec := &recorder{}
	sum, err := (&Scanner{Reporter: rec}).Run(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if sum.Found != 1 || rec.results[0].Saved != nil {
		t.Fatalf("expected a hit without extraction: %+v %+v", sum, rec.results[0])
	}
}

func TestRunReporterErrorIsReturned(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a.png", minimalPNG)
	writeFile(t, root, "b.png", minimalPNG)

	rec := &recorder{failOn: "a.png"}
	sum, err := (&Scanner{Reporter: rec}).Run(context.Background(), []string{root})
	if err == nil || !strings.Contains(err.Error(), "reporter failed") {
		t.Fatalf("expected reporter error, got %v", err)
	}
	if sum.Scanned != 2 {
		t.Fatalf("scan should continue after reporter error, scanned=%d", sum.Scanned)
	}
}

func TestRunCancelled(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		writeFile(t, root, name, minimalPNG)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := (&Scanner{Workers: 1}).Run(ctx, []string{root})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if sum.Scanned > 3 {
		t.Fatalf("unexpected scanned count %d", sum.Scanned)
	}
}

func TestFileErrors(t *testing.T) {
	t.Parallel()

	s := &Scanner{MaxFileSize: 4}
	dir := t.TempDir()
	big := writeFile(t, dir, "big.png", withTail(minimalPNG, "x"))

	if r := s.File(big); r.Err == nil || r.Found() {
		t.Fatalf("expected size error, got %+v", r)
	}
	if r := s.File(filepath.Join(dir, "nope.png")); r.Err == nil {
		t.Fatalf("expected open error")
	}
}

func TestFileTruncatedWhileMapped(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "shrinking.png", withTail(minimalPNG, strings.Repeat("x", 3*os.Getpagesize())))

	buf, err := filebuf.OpenLimit(path, 0)
	if err != nil {
		t.Fatalf("OpenLimit: %v", err)
	}
	defer func() { _ = buf.Close() }()
	if !buf.Mapped() {
		t.Skip("file was read, not mapped")
	}
	if err := os.Truncate(path, 0); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	s := &Scanner{Sink: extract.New(filepath.Join(dir, "out"))}
	r := s.measure(path, buf)
	if r.Err == nil {
		t.Fatalf("expected an error for a file truncated under its mapping, got %+v", r)
	}
	if r.Path != path || r.Found() {
		t.Fatalf("unexpected result: %+v", r)
	}
}
