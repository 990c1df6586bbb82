package preflight

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("Staging", dir)
	if !result.Passed {
		t.Fatalf("expected pass for %s: %s", dir, result.Detail)
	}

	missing := filepath.Join(dir, "absent")
	result = CheckDirectoryAccess("Staging", missing)
	if result.Passed {
		t.Fatalf("expected failure for missing directory")
	}

	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	result = CheckDirectoryAccess("Staging", file)
	if result.Passed {
		t.Fatal("expected failure for non-directory")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	result := CheckFreeSpace("Free space", dir, 1)
	if !result.Passed {
		t.Fatalf("expected at least one free byte: %s", result.Detail)
	}
	result = CheckFreeSpace("Free space", dir, 1<<62)
	if result.Passed {
		t.Fatal("expected failure for absurd free-space requirement")
	}
}

func TestCheckTranscoderMissing(t *testing.T) {
	result := CheckTranscoder("definitely-not-a-real-binary-name")
	if result.Passed {
		t.Fatal("expected failure for missing binary")
	}
}

func TestReady(t *testing.T) {
	if Ready([]Result{{Passed: true}, {Passed: false}}) {
		t.Fatal("expected not ready with a failed check")
	}
	if !Ready([]Result{{Passed: true}, {Passed: true}}) {
		t.Fatal("expected ready with all passed")
	}
}
