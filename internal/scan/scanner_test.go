//go:build unix

package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/Possseidon/ssdedupe/internal/entry"
)

// createFile writes content to path, creating parent directories as needed.
func createFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// =============================================================================
// Section 1: Tree construction
// =============================================================================

// TestScanBasicTree tests counts and sizes over a small mixed tree.
func TestScanBasicTree(t *testing.T) {
	root := t.TempDir()
	createFile(t, filepath.Join(root, "a.txt"), "aaa")
	createFile(t, filepath.Join(root, "sub", "b.txt"), "bb")
	createFile(t, filepath.Join(root, "sub", "deep", "c.txt"), "c")

	state := NewState()
	e := New(2).Scan(root, state)
	if e == nil {
		t.Fatalf("Scan returned nil, errors: %v", state.Errors())
	}

	if e.DirCount != 3 {
		t.Errorf("DirCount = %d, want 3 (root, sub, deep)", e.DirCount)
	}
	if e.FileCount != 3 {
		t.Errorf("FileCount = %d, want 3", e.FileCount)
	}
	if e.Info.Bytes != 6 {
		t.Errorf("Bytes = %d, want 6", e.Info.Bytes)
	}
	if e.Info.Kind != entry.KindDir {
		t.Errorf("root Kind = %v, want dir", e.Info.Kind)
	}

	if state.Dirs() != 3 || state.Files() != 3 || state.Bytes() != 6 {
		t.Errorf("state counters = (%d dirs, %d files, %d bytes), want (3, 3, 6)",
			state.Dirs(), state.Files(), state.Bytes())
	}
	if len(state.Errors()) != 0 {
		t.Errorf("unexpected errors: %v", state.Errors())
	}
}

// TestScanSingleFile tests scanning a regular file directly.
func TestScanSingleFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "only.txt")
	createFile(t, path, "content")

	e := New(2).Scan(path, NewState())
	if e == nil {
		t.Fatal("Scan returned nil for a regular file")
	}
	if e.Info.Kind != entry.KindFile || e.Info.Bytes != 7 {
		t.Errorf("Info = %+v, want 7-byte file", e.Info)
	}
	if e.DirCount != 0 || e.FileCount != 1 {
		t.Errorf("counts = (%d, %d), want (0, 1)", e.DirCount, e.FileCount)
	}
}

// TestScanDeterministic tests that scanning the same tree twice yields the
// same fingerprints regardless of goroutine scheduling.
func TestScanDeterministic(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		createFile(t, filepath.Join(root, name, "file.txt"), "content of "+name)
	}

	first := New(4).Scan(root, NewState())
	second := New(1).Scan(root, NewState())
	if first == nil || second == nil {
		t.Fatal("scan returned nil")
	}
	if first.Info != second.Info {
		t.Errorf("same tree scanned twice: %+v vs %+v", first.Info, second.Info)
	}
}

// TestScanIdenticalContentSameFingerprint tests that byte-identical files and
// the directories containing them share fingerprints across paths.
func TestScanIdenticalContentSameFingerprint(t *testing.T) {
	root := t.TempDir()
	createFile(t, filepath.Join(root, "a", "x.txt"), "same bytes")
	createFile(t, filepath.Join(root, "b", "y.txt"), "same bytes")

	e := New(2).Scan(root, NewState())
	if e == nil {
		t.Fatal("scan returned nil")
	}

	a, b := e.Children["a"], e.Children["b"]
	if a == nil || b == nil {
		t.Fatalf("missing children: %v", e.Children)
	}
	if a.Info != b.Info {
		t.Errorf("identical dirs differ: %+v vs %+v", a.Info, b.Info)
	}
	if a.Children["x.txt"].Info.Hash != b.Children["y.txt"].Info.Hash {
		t.Error("identical files have different fingerprints")
	}
}

// TestScanEmptyDirVsEmptyFile tests the fingerprint domain separation through
// an actual filesystem walk.
func TestScanEmptyDirVsEmptyFile(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "emptydir"), 0o755); err != nil {
		t.Fatal(err)
	}
	createFile(t, filepath.Join(root, "emptyfile"), "")

	e := New(2).Scan(root, NewState())
	if e == nil {
		t.Fatal("scan returned nil")
	}
	if e.Children["emptydir"].Info.Hash == e.Children["emptyfile"].Info.Hash {
		t.Error("empty dir and empty file scanned to the same fingerprint")
	}
}

// =============================================================================
// Section 2: Error handling
// =============================================================================

// TestScanSymlinkSkipped tests that symlinks are logged and omitted, not
// followed.
func TestScanSymlinkSkipped(t *testing.T) {
	root := t.TempDir()
	createFile(t, filepath.Join(root, "real.txt"), "data")
	if err := os.Symlink(filepath.Join(root, "real.txt"), filepath.Join(root, "link")); err != nil {
		t.Skipf("cannot create symlink: %v", err)
	}

	state := NewState()
	e := New(2).Scan(root, state)
	if e == nil {
		t.Fatal("scan returned nil")
	}

	if _, ok := e.Children["link"]; ok {
		t.Error("symlink present in tree")
	}
	if e.FileCount != 1 {
		t.Errorf("FileCount = %d, want 1 (symlink not counted)", e.FileCount)
	}
	msg, _, ok := state.LastError()
	if !ok || !strings.Contains(msg, "link") {
		t.Errorf("expected a skip log mentioning the symlink, got %q", msg)
	}
}

// TestScanUnreadableFileOmitted tests that a file that cannot be opened is
// logged and omitted while its siblings survive.
func TestScanUnreadableFileOmitted(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("running as root, permissions are not enforced")
	}

	root := t.TempDir()
	createFile(t, filepath.Join(root, "ok.txt"), "fine")
	locked := filepath.Join(root, "locked.txt")
	createFile(t, locked, "secret")
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o644) })

	state := NewState()
	e := New(2).Scan(root, state)
	if e == nil {
		t.Fatal("scan returned nil")
	}

	if _, ok := e.Children["locked.txt"]; ok {
		t.Error("unreadable file present in tree")
	}
	if _, ok := e.Children["ok.txt"]; !ok {
		t.Error("sibling of unreadable file missing from tree")
	}
	msg, _, ok := state.LastError()
	if !ok || !strings.Contains(msg, "locked.txt") {
		t.Errorf("expected an open failure log for locked.txt, got %q", msg)
	}
}

// TestScanMissingRoot tests that an unreadable root yields nil plus a log
// entry, not a panic or an empty tree.
func TestScanMissingRoot(t *testing.T) {
	state := NewState()
	e := New(2).Scan(filepath.Join(t.TempDir(), "does-not-exist"), state)
	if e != nil {
		t.Errorf("expected nil for missing root, got %+v", e)
	}
	if _, _, ok := state.LastError(); !ok {
		t.Error("expected a metadata error in the log")
	}
}

// =============================================================================
// Section 3: Cancellation
// =============================================================================

// TestScanCanceledBeforeStart tests that a pre-canceled state yields nil.
func TestScanCanceledBeforeStart(t *testing.T) {
	root := t.TempDir()
	createFile(t, filepath.Join(root, "a.txt"), "data")

	state := NewState()
	state.Cancel()
	if e := New(2).Scan(root, state); e != nil {
		t.Errorf("canceled scan returned a tree: %+v", e)
	}
	if len(state.Errors()) != 0 {
		t.Errorf("cancellation is not an error, log: %v", state.Errors())
	}
}

// TestScanCanceledMidWalk tests that raising the flag while the walk is in
// flight yields nil, even though subtrees scanned before the flag was
// observed had completed.
func TestScanCanceledMidWalk(t *testing.T) {
	root := t.TempDir()
	for d := 0; d < 30; d++ {
		for f := 0; f < 30; f++ {
			createFile(t, filepath.Join(root, fmt.Sprintf("dir%02d", d), fmt.Sprintf("file%02d", f)), "some file content")
		}
	}

	state := NewState()

	// Cancel as soon as the first file has been hashed; the single-worker
	// walk still has hundreds of files ahead of it at that point.
	go func() {
		for state.Files() == 0 {
			runtime.Gosched()
		}
		state.Cancel()
	}()

	if e := New(1).Scan(root, state); e != nil {
		t.Errorf("scan canceled mid-walk returned a tree: %+v", e.Info)
	}
}

// TestScanCancelAfterResultHarmless tests that canceling after completion
// does not retroactively affect the result.
func TestScanCancelAfterResultHarmless(t *testing.T) {
	root := t.TempDir()
	createFile(t, filepath.Join(root, "a.txt"), "data")

	state := NewState()
	e := New(2).Scan(root, state)
	if e == nil {
		t.Fatal("scan returned nil")
	}
	state.Cancel()
	if e.FileCount != 1 {
		t.Error("completed tree changed after late Cancel")
	}
}
