//go:build !unix

package filebuf

import (
	"errors"
	"os"
)

var errNoMmap = errors.New("filebuf: mmap unsupported")

func mapFile(*os.File, int) ([]byte, error) {
	return nil, errNoMmap
}

func unmapFile([]byte) error {
	return nil
}
