package extract

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// DataSuffix is appended to a copied file's name to form its sidecar.
const DataSuffix = ".data"

var ErrNoAppendedData = errors.New("extract: no appended data")

// Sink writes discoveries into Dir: a copy of each flagged file and a
// sidecar holding only the appended bytes. It is safe for concurrent use.
type Sink struct {
	Dir string

	mu sync.Mutex
}

// Saved describes where a discovery ended up.
type Saved struct {
	// Name is the base name chosen for the copy, e.g. "File 2 named a.png".
	Name     string
	CopyPath string
	DataPath string
	// Copied and Wrote are false when the target already existed.
	Copied bool
	Wrote  bool
}

func New(dir string) *Sink {
	return &Sink{Dir: dir}
}

// Prepare creates the output directory.
func (s *Sink) Prepare() error {
	if s.Dir == "" {
		return errors.New("extract: output directory is empty")
	}
	return os.MkdirAll(s.Dir, 0o755)
}

// Save records src whose image structure ends at end within data.
//
// When src is not already the file inside Dir and either target name is
// taken, names of the form "File N named <base>" are tried from N=2 until
// both the copy and its sidecar are free. Existing files are never
// overwritten.
func (s *Sink) Save(src string, data []byte, end int) (Saved, error) {
	if end < 0 || end >= len(data) {
		return Saved{}, ErrNoAppendedData
	}
	if err := s.Prepare(); err != nil {
		return Saved{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	base := filepath.Base(src)
	out := Saved{Name: base}
	out.CopyPath, out.DataPath = s.paths(base)

	if !sameFile(out.CopyPath, src) {
		for n := 2; exists(out.CopyPath) || exists(out.DataPath); n++ {
			out.Name = fmt.Sprintf("File %d named %s", n, base)
			out.CopyPath, out.DataPath = s.paths(out.Name)
		}
	}

	perm := fs.FileMode(0o644)
	if st, err := os.Stat(src); err == nil {
		perm = st.Mode().Perm()
	}

	copied, err := writeNew(out.CopyPath, data, perm)
	if err != nil {
		return out, fmt.Errorf("copy %s: %w", base, err)
	}
	out.Copied = copied

	wrote, err := writeNew(out.DataPath, data[end:], 0o644)
	if err != nil {
		return out, fmt.Errorf("write %s: %w", filepath.Base(out.DataPath), err)
	}
	out.Wrote = wrote
	return out, nil
}

func (s *Sink) paths(name string) (string, string) {
	p := filepath.Join(s.Dir, name)
	return p, p + DataSuffix
}

type fileWriter interface {
	io.Writer
	Close() error
}

// createExclusive is a small seam for tests.
var createExclusive = func(path string, perm fs.FileMode) (fileWriter, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
}

// writeNew creates path exclusively. It reports false without error when
// the file already exists. A partial file is removed so a later run can
// write it again.
func writeNew(path string, data []byte, perm fs.FileMode) (bool, error) {
	f, err := createExclusive(path, perm)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	_, err = f.Write(data)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return false, err
	}
	return true, nil
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

func sameFile(a, b string) bool {
	sa, err := os.Stat(a)
	if err != nil {
		return false
	}
	sb, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(sa, sb)
}
