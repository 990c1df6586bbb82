package services

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("disk full")
	err := Wrap(ErrPersistence, "sink", "append chunk", "write failed", base)
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected persistence marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped cause to survive, got %v", err)
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := Wrap(ErrInvalidInput, "session", "begin", "source url missing scheme", nil)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input marker, got %v", err)
	}
	want := "invalid input: session: begin: source url missing scheme"
	if err.Error() != want {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestIsFatal(t *testing.T) {
	cases := []struct {
		err   error
		fatal bool
	}{
		{nil, false},
		{Wrap(ErrCaptureInterrupted, "monitor", "probe", "connectivity lost", nil), false},
		{Wrap(ErrPersistence, "sink", "append", "", errors.New("io")), true},
		{Wrap(ErrEncodeTimeout, "encode", "run", "", nil), true},
		{fmt.Errorf("untagged: %w", errors.New("boom")), true},
	}
	for _, tc := range cases {
		if got := IsFatal(tc.err); got != tc.fatal {
			t.Fatalf("IsFatal(%v) = %v, want %v", tc.err, got, tc.fatal)
		}
	}
}

func TestUserMessageKeepsMarkerPrefix(t *testing.T) {
	err := Wrap(ErrEncodeFailed, "encode", "run ffmpeg", "exit status 1", nil)
	msg := UserMessage(err)
	if msg != "encode failed: encode: run ffmpeg: exit status 1" {
		t.Fatalf("unexpected user message: %q", msg)
	}
}
