package notifications

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"reeler/internal/testsupport"
)

func TestNewServiceReturnsNoopWithoutTopic(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	svc := NewService(cfg)
	if _, ok := svc.(noopService); !ok {
		t.Fatalf("expected noop service, got %T", svc)
	}
	if err := svc.NotifyCaptureStarted(context.Background(), "https://example.org"); err != nil {
		t.Fatalf("noop notify: %v", err)
	}
}

func TestNtfySendsExpectedHeaders(t *testing.T) {
	var gotTitle, gotTags, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTitle = r.Header.Get("Title")
		gotTags = r.Header.Get("Tags")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithNtfyTopic(server.URL))
	svc := NewService(cfg)

	if err := svc.NotifySessionCompleted(context.Background(), "https://example.org/play/1", "/out/a.mp4"); err != nil {
		t.Fatalf("NotifySessionCompleted: %v", err)
	}
	if gotTitle != "Reeler - Complete" {
		t.Fatalf("unexpected title %q", gotTitle)
	}
	if !strings.Contains(gotTags, "completed") {
		t.Fatalf("unexpected tags %q", gotTags)
	}
	if !strings.Contains(gotBody, "/out/a.mp4") {
		t.Fatalf("body missing output path: %q", gotBody)
	}
}

func TestNtfySurfacesHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithNtfyTopic(server.URL))
	svc := NewService(cfg)
	if err := svc.NotifySessionFailed(context.Background(), "https://example.org", "boom"); err == nil {
		t.Fatal("expected error for HTTP 403")
	}
}
