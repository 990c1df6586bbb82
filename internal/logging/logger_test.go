package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesToFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "out.log")

	logger, err := New(Options{Level: "info", Format: "console", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("capture started", String(FieldSessionID, "abc"), Int("step", 3))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, "capture started") {
		t.Fatalf("missing message in %q", line)
	}
	if !strings.Contains(line, "session_id=abc") || !strings.Contains(line, "step=3") {
		t.Fatalf("missing attrs in %q", line)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestLevelFiltering(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "out.log")

	logger, err := New(Options{Level: "warn", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("dropped")
	logger.Warn("kept")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if strings.Contains(string(data), "dropped") {
		t.Fatalf("info line should have been filtered: %q", string(data))
	}
	if !strings.Contains(string(data), "kept") {
		t.Fatalf("warn line missing: %q", string(data))
	}
}

func TestProgressSampler(t *testing.T) {
	sampler := NewProgressSampler(5)
	if !sampler.ShouldLog(0, "encoding") {
		t.Fatal("first update should log")
	}
	if sampler.ShouldLog(2, "encoding") {
		t.Fatal("same bucket should be suppressed")
	}
	if !sampler.ShouldLog(7, "encoding") {
		t.Fatal("new bucket should log")
	}
	if !sampler.ShouldLog(7, "finalizing") {
		t.Fatal("stage change should log")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	// Must not panic and must report disabled at every level.
	logger.Debug("x")
	logger.Error("y")
	if logger.Enabled(nil, 0) { //nolint:staticcheck
		t.Fatal("nop logger should be disabled")
	}
}
