package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestResolveUsesLdflags(t *testing.T) {
	prevV, prevC, prevB := Version, Commit, BuildTime
	defer func() { Version, Commit, BuildTime = prevV, prevC, prevB }()

	Version = "v1.2.3"
	Commit = "0123456789abcdef0123"
	BuildTime = "2026-01-02T03:04:05Z"

	info := Resolve()
	if info.Version != "v1.2.3" || info.Commit != Commit || info.BuildTime != BuildTime {
		t.Fatalf("unexpected info: %+v", info)
	}
	if info.GoVersion != runtime.Version() {
		t.Fatalf("go version: got %q want %q", info.GoVersion, runtime.Version())
	}
	if got, want := String(), "v1.2.3 (0123456789ab)"; got != want {
		t.Fatalf("String(): got %q want %q", got, want)
	}
}

func TestResolveNeverEmpty(t *testing.T) {
	prevV := Version
	defer func() { Version = prevV }()
	Version = ""

	if v := Resolve().Version; strings.TrimSpace(v) == "" {
		t.Fatal("expected a non-empty version")
	}
}

func TestShortCommit(t *testing.T) {
	t.Parallel()
	if got := shortCommit("abc"); got != "abc" {
		t.Fatalf("got %q want %q", got, "abc")
	}
	if got := shortCommit("0123456789abcdef"); got != "0123456789ab" {
		t.Fatalf("got %q want %q", got, "0123456789ab")
	}
}
