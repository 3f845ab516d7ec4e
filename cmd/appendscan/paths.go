package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	envAppendscanOutDir = "APPENDSCAN_OUT_DIR"
	defaultOutDirName   = "appendscan-discoveries"
	defaultLogName      = "appendscan-log.txt"
)

// outDirPath picks the discoveries directory: the flag, then
// APPENDSCAN_OUT_DIR, then ./appendscan-discoveries.
func outDirPath(outFlag string) string {
	out := strings.TrimSpace(outFlag)
	if out == "" {
		out = strings.TrimSpace(os.Getenv(envAppendscanOutDir))
	}
	if out == "" {
		out = filepath.Join(".", defaultOutDirName)
	}
	return filepath.Clean(out)
}

// resolveOutDir is outDirPath with the directory created.
func resolveOutDir(outFlag string) (string, error) {
	out := outDirPath(outFlag)
	if err := os.MkdirAll(out, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	return out, nil
}

// resolveLogFile returns the scan log path. A relative --log-file is taken
// relative to the working directory, not logDir.
func resolveLogFile(logDir, logFlag string) string {
	if p := strings.TrimSpace(logFlag); p != "" {
		return filepath.Clean(p)
	}
	return filepath.Join(logDir, defaultLogName)
}

// openLogFile opens path for appending, creating it and its parent.
func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

// resolveTargets makes every target absolute with symlinks resolved. With
// no arguments the working directory is scanned. Targets that cannot be
// resolved are kept as absolute paths so the scan reports them.
func resolveTargets(args []string) ([]string, error) {
	if len(args) == 0 {
		args = []string{"."}
	}
	out := make([]string, 0, len(args))
	for _, a := range args {
		if strings.TrimSpace(a) == "" {
			continue
		}
		abs, err := filepath.Abs(a)
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w", a, err)
		}
		if resolved, err := filepath.EvalSymlinks(abs); err == nil {
			abs = resolved
		}
		out = append(out, abs)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no targets given")
	}
	return out, nil
}
