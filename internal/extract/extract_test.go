package extract

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func writeSource(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(b)
}

func TestSaveWritesCopyAndSidecar(t *testing.T) {
	t.Parallel()

	data := []byte("IMAGEBYTESSECRET")
	src := writeSource(t, t.TempDir(), "cat.png", data)
	out := filepath.Join(t.TempDir(), "discoveries")

	saved, err := New(out).Save(src, data, 10)
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if saved.Name != "cat.png" || !saved.Copied || !saved.Wrote {
		t.Fatalf("unexpected result: %+v", saved)
	}
	if got := readFile(t, saved.CopyPath); got != string(data) {
		t.Fatalf("copy contents: got %q want %q", got, data)
	}
	if got := readFile(t, filepath.Join(out, "cat.png.data")); got != "SECRET" {
		t.Fatalf("sidecar contents: got %q want %q", got, "SECRET")
	}
	st, err := os.Stat(saved.CopyPath)
	if err != nil {
		t.Fatalf("stat copy: %v", err)
	}
	if st.Mode().Perm() != 0o600 {
		t.Fatalf("copy mode: got %v want %v", st.Mode().Perm(), os.FileMode(0o600))
	}
}

func TestSaveRenamesOnCollision(t *testing.T) {
	t.Parallel()

	out := t.TempDir()
	sink := New(out)

	var names []string
	for i, payload := range []string{"one", "two", "three"} {
		data := []byte("img" + payload)
		src := writeSource(t, t.TempDir(), "a.gif", data)
		saved, err := sink.Save(src, data, 3)
		if err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
		names = append(names, saved.Name)
		if got := readFile(t, saved.DataPath); got != payload {
			t.Fatalf("sidecar %d: got %q want %q", i, got, payload)
		}
	}

	want := []string{"a.gif", "File 2 named a.gif", "File 3 named a.gif"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("name %d: got %q want %q", i, names[i], want[i])
		}
	}
}

func TestSaveRenamesWhenOnlySidecarExists(t *testing.T) {
	t.Parallel()

	out := t.TempDir()
	if err := os.WriteFile(filepath.Join(out, "b.jpg.data"), []byte("old"), 0o644); err != nil {
		t.Fatalf("seed sidecar: %v", err)
	}
	data := []byte("jpegtail")
	src := writeSource(t, t.TempDir(), "b.jpg", data)

	saved, err := New(out).Save(src, data, 4)
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if saved.Name != "File 2 named b.jpg" {
		t.Fatalf("name: got %q", saved.Name)
	}
	if got := readFile(t, filepath.Join(out, "b.jpg.data")); got != "old" {
		t.Fatalf("existing sidecar overwritten: %q", got)
	}
}

func TestSaveSourceInsideOutputDir(t *testing.T) {
	t.Parallel()

	out := t.TempDir()
	data := []byte("pngpayload")
	src := writeSource(t, out, "c.png", data)

	saved, err := New(out).Save(src, data, 3)
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if saved.Name != "c.png" {
		t.Fatalf("source in output dir should keep its name, got %q", saved.Name)
	}
	if saved.Copied {
		t.Fatalf("source must not be copied over itself")
	}
	if !saved.Wrote {
		t.Fatalf("expected sidecar to be written")
	}
	if got := readFile(t, src); got != string(data) {
		t.Fatalf("source modified: %q", got)
	}

	again, err := New(out).Save(src, data, 3)
	if err != nil {
		t.Fatalf("second Save returned error: %v", err)
	}
	if again.Name != "c.png" || again.Copied || again.Wrote {
		t.Fatalf("rescan should be a no-op, got %+v", again)
	}
}

func TestSaveNoAppendedData(t *testing.T) {
	t.Parallel()

	sink := New(t.TempDir())
	for _, end := range []int{-1, 4, 5} {
		if _, err := sink.Save("x.png", []byte("abcd"), end); !errors.Is(err, ErrNoAppendedData) {
			t.Fatalf("end=%d: expected ErrNoAppendedData, got %v", end, err)
		}
	}
}

func TestPrepareEmptyDir(t *testing.T) {
	t.Parallel()
	if err := New("").Prepare(); err == nil {
		t.Fatalf("expected error for empty directory")
	}
}

func TestSaveConcurrentSameName(t *testing.T) {
	t.Parallel()

	out := t.TempDir()
	sink := New(out)
	const n = 8

	data := []byte("imgXY")
	srcs := make([]string, n)
	for i := range srcs {
		srcs[i] = writeSource(t, t.TempDir(), "same.png", data)
	}

	var wg sync.WaitGroup
	names := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			saved, err := sink.Save(srcs[i], data, 3)
			names[i], errs[i] = saved.Name, err
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("save %d: %v", i, errs[i])
		}
		if seen[names[i]] {
			t.Fatalf("duplicate name %q", names[i])
		}
		seen[names[i]] = true
	}
	ents, err := os.ReadDir(out)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(ents) != 2*n {
		t.Fatalf("expected %d files, got %d", 2*n, len(ents))
	}
}

type failingWriter struct {
	f *os.File
}

func (w failingWriter) Write(p []byte) (int, error) {
	n, _ := w.f.Write(p[:len(p)/2])
	return n, errors.New("no space left on device")
}

func (w failingWriter) Close() error { return w.f.Close() }

func TestSaveRemovesPartialFileOnWriteError(t *testing.T) {
	prev := createExclusive
	defer func() { createExclusive = prev }()
	createExclusive = func(path string, perm fs.FileMode) (fileWriter, error) {
		f, err := prev(path, perm)
		if err != nil {
			return nil, err
		}
		return failingWriter{f: f.(*os.File)}, nil
	}

	data := []byte("IMAGEBYTESSECRET")
	src := writeSource(t, t.TempDir(), "cat.png", data)
	out := t.TempDir()
	sink := New(out)

	if _, err := sink.Save(src, data, 10); err == nil {
		t.Fatal("expected write error")
	}
	if _, err := os.Lstat(filepath.Join(out, "cat.png")); !os.IsNotExist(err) {
		t.Fatalf("partial copy left behind: %v", err)
	}

	createExclusive = prev
	saved, err := sink.Save(src, data, 10)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if saved.Name != "cat.png" || !saved.Copied || !saved.Wrote {
		t.Fatalf("retry should write the original names: %+v", saved)
	}
	if got := readFile(t, saved.CopyPath); got != string(data) {
		t.Fatalf("copy contents: got %q want %q", got, data)
	}
}
