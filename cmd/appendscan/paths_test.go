package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveOutDir(t *testing.T) {
	t.Run("explicit output wins", func(t *testing.T) {
		t.Setenv(envAppendscanOutDir, filepath.Join(t.TempDir(), "env"))
		want := filepath.Join(t.TempDir(), "nested", "out")

		got, err := resolveOutDir(want + string(filepath.Separator))
		if err != nil {
			t.Fatalf("resolveOutDir returned error: %v", err)
		}
		if got != want {
			t.Fatalf("unexpected output dir: got %q want %q", got, want)
		}
		if st, err := os.Stat(got); err != nil || !st.IsDir() {
			t.Fatalf("expected output directory to exist: %v", err)
		}
	})

	t.Run("env output dir overrides default", func(t *testing.T) {
		envDir := filepath.Join(t.TempDir(), "discoveries")
		t.Setenv(envAppendscanOutDir, envDir)

		got, err := resolveOutDir("  ")
		if err != nil {
			t.Fatalf("resolveOutDir returned error: %v", err)
		}
		if got != envDir {
			t.Fatalf("unexpected output dir: got %q want %q", got, envDir)
		}
	})

	t.Run("default is ./appendscan-discoveries", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv(envAppendscanOutDir, "")

		got, err := resolveOutDir("")
		if err != nil {
			t.Fatalf("resolveOutDir returned error: %v", err)
		}
		if got != defaultOutDirName {
			t.Fatalf("unexpected output dir: got %q want %q", got, defaultOutDirName)
		}
		if _, err := os.Stat(defaultOutDirName); err != nil {
			t.Fatalf("expected default directory to be created: %v", err)
		}
	})

	t.Run("file in the way", func(t *testing.T) {
		blocker := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(blocker, nil, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := resolveOutDir(filepath.Join(blocker, "out")); err == nil {
			t.Fatal("expected error when a file blocks the output directory")
		}
	})
}

func TestOutDirPathDoesNotCreate(t *testing.T) {
	want := filepath.Join(t.TempDir(), "env-out")
	t.Setenv(envAppendscanOutDir, want)

	if got := outDirPath(""); got != want {
		t.Fatalf("outDirPath: got %q want %q", got, want)
	}
	if _, err := os.Stat(want); !os.IsNotExist(err) {
		t.Fatalf("outDirPath should not create the directory: %v", err)
	}
}

func TestResolveLogFile(t *testing.T) {
	t.Parallel()

	if got, want := resolveLogFile("out", ""), filepath.Join("out", defaultLogName); got != want {
		t.Fatalf("default: got %q want %q", got, want)
	}
	if got, want := resolveLogFile("out", "logs/./scan.txt"), filepath.Join("logs", "scan.txt"); got != want {
		t.Fatalf("explicit: got %q want %q", got, want)
	}
}

func TestOpenLogFileAppends(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sub", "log.txt")
	for _, line := range []string{"first\n", "second\n"} {
		f, err := openLogFile(path)
		if err != nil {
			t.Fatalf("openLogFile: %v", err)
		}
		if _, err := f.WriteString(line); err != nil {
			t.Fatalf("write: %v", err)
		}
		_ = f.Close()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "first\nsecond\n" {
		t.Fatalf("log contents: got %q", data)
	}
}

func TestResolveTargets(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}

	got, err := resolveTargets(nil)
	if err != nil {
		t.Fatalf("resolveTargets: %v", err)
	}
	if len(got) != 1 || got[0] != wd {
		t.Fatalf("default targets: got %v want [%s]", got, wd)
	}

	got, err = resolveTargets([]string{"missing.png", ""})
	if err != nil {
		t.Fatalf("resolveTargets: %v", err)
	}
	if want := filepath.Join(wd, "missing.png"); len(got) != 1 || got[0] != want {
		t.Fatalf("missing target: got %v want [%s]", got, want)
	}

	if _, err := resolveTargets([]string{" "}); err == nil {
		t.Fatal("expected error for blank targets")
	}
}
