package filebuf

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// DefaultMaxSize bounds how much of a single file is held in memory.
const DefaultMaxSize int64 = 1 << 30

var (
	ErrTooLarge   = errors.New("filebuf: file too large")
	ErrNotRegular = errors.New("filebuf: not a regular file")
)

// Buffer holds a whole file's contents read-only.
// Data from a mapped file is only valid until Close.
type Buffer struct {
	data   []byte
	mapped bool
}

// Open loads path, refusing files above DefaultMaxSize.
func Open(path string) (*Buffer, error) {
	return OpenLimit(path, DefaultMaxSize)
}

// OpenLimit maps path read-only where mmap is available and falls back to
// reading it into memory. A maxSize <= 0 disables the size check.
func OpenLimit(path string, maxSize int64) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if !st.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotRegular, path)
	}

	size64 := st.Size()
	if maxSize > 0 && size64 > maxSize {
		return nil, fmt.Errorf("%w: %s is %d bytes (limit %d)", ErrTooLarge, path, size64, maxSize)
	}
	if size64 > int64(int(^uint(0)>>1)) {
		return nil, fmt.Errorf("%w: %s", ErrTooLarge, path)
	}
	size := int(size64)
	if size == 0 {
		return &Buffer{data: []byte{}}, nil
	}

	if data, err := mapFile(f, size); err == nil {
		return &Buffer{data: data, mapped: true}, nil
	}

	data, err := readAllAt(f, size)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &Buffer{data: data}, nil
}

// FromBytes wraps an in-memory buffer, e.g. an HTTP upload.
func FromBytes(b []byte) *Buffer {
	return &Buffer{data: b}
}

// Bytes returns the file contents. Callers must not modify them.
func (b *Buffer) Bytes() []byte {
	if b == nil {
		return nil
	}
	return b.data
}

func (b *Buffer) Len() int {
	return len(b.Bytes())
}

// Mapped reports whether the contents are backed by mmap.
func (b *Buffer) Mapped() bool {
	return b != nil && b.mapped
}

// Close releases the mapping, if any. It is safe to call more than once.
func (b *Buffer) Close() error {
	if b == nil || b.data == nil {
		return nil
	}
	var err error
	if b.mapped {
		err = unmapFile(b.data)
	}
	b.data = nil
	b.mapped = false
	return err
}

func readAllAt(r io.ReaderAt, size int) ([]byte, error) {
	out := make([]byte, size)
	var off int64
	for off < int64(size) {
		n, err := r.ReadAt(out[off:], off)
		off += int64(n)
		if err == nil {
			continue
		}
		if err == io.EOF && off == int64(size) {
			break
		}
		if err == io.EOF {
			// file shrank after Stat
			return out[:off], nil
		}
		return nil, err
	}
	return out, nil
}
