package discover

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// DefaultExtensions are the file name suffixes picked up inside directories.
var DefaultExtensions = []string{"gif", "jpg", "jpeg", "png"}

// Expand turns command line targets into the list of files to scan.
//
// Directories are walked recursively and only files whose last extension
// is in exts (case-insensitive) are kept; files named directly are always
// kept. Paths are absolute and de-duplicated, in target order.
// A target that cannot be read is reported in the joined error while the
// remaining targets are still expanded.
func Expand(targets []string, exts []string) ([]string, error) {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	allowed := NormalizeExtensions(exts)

	var (
		out  []string
		errs []error
		seen = make(map[string]struct{})
	)
	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	for _, target := range targets {
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		abs, err := filepath.Abs(target)
		if err != nil {
			errs = append(errs, fmt.Errorf("resolve %q: %w", target, err))
			continue
		}
		st, err := os.Stat(abs)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !st.IsDir() {
			add(abs)
			continue
		}

		walkErr := filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				errs = append(errs, err)
				if d != nil && d.IsDir() && path != abs {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if Match(d.Name(), allowed) {
				add(path)
			}
			return nil
		})
		if walkErr != nil {
			errs = append(errs, walkErr)
		}
	}
	return out, errors.Join(errs...)
}

// Match reports whether the text after the final '.' in name is one of exts.
// A name without a dot is compared whole.
func Match(name string, exts []string) bool {
	ext := strings.ToLower(name[strings.LastIndexByte(name, '.')+1:])
	return slices.Contains(exts, ext)
}

// NormalizeExtensions lower-cases exts, strips leading dots and drops
// empty and duplicate entries.
func NormalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimLeft(strings.TrimSpace(e), "."))
		if e == "" || slices.Contains(out, e) {
			continue
		}
		out = append(out, e)
	}
	return out
}
