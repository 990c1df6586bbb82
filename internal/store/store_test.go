package store

import (
	"context"
	"errors"
	"testing"

	"reeler/internal/testsupport"
)

func TestInsertAndGet(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	rec := &Record{
		ID:              "sess-1",
		SourceURL:       "https://example.org/play/1",
		CaptureStrategy: "direct_stream",
		PlaybackRate:    1.25,
		State:           "created",
	}
	if err := s.Insert(context.Background(), rec); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := s.GetByID(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.SourceURL != rec.SourceURL || got.PlaybackRate != 1.25 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be set")
	}
}

func TestUpdateProgressAndFinish(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	rec := &Record{ID: "sess-2", SourceURL: "https://example.org/x", CaptureStrategy: "tab_capture", PlaybackRate: 1, State: "created"}
	if err := s.Insert(context.Background(), rec); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if err := s.UpdateProgress(context.Background(), "sess-2", "capturing", 4096, 42); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	if err := s.Finish(context.Background(), "sess-2", "done", "/out/sess-2.mp4", "", ""); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	got, err := s.GetByID(context.Background(), "sess-2")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.State != "done" || got.BytesCaptured != 4096 || got.OutputPath != "/out/sess-2.mp4" {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if _, err := s.GetByID(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.UpdateProgress(context.Background(), "ghost", "capturing", 0, 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	for _, id := range []string{"a", "b", "c"} {
		rec := &Record{ID: id, SourceURL: "https://example.org/" + id, CaptureStrategy: "direct_stream", PlaybackRate: 1, State: "created"}
		if err := s.Insert(context.Background(), rec); err != nil {
			t.Fatalf("Insert %s: %v", id, err)
		}
	}
	records, err := s.List(context.Background(), 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}
