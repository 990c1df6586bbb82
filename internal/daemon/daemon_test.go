package daemon

import (
	"context"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"reeler/internal/api"
	"reeler/internal/bus"
	"reeler/internal/config"
	"reeler/internal/encode"
	"reeler/internal/logging"
	"reeler/internal/session"
	"reeler/internal/store"
	"reeler/internal/surface"
	"reeler/internal/testsupport"
)

type scriptedSurface struct {
	mu        sync.Mutex
	status    surface.Status
	chunks    chan []byte
	closeOnce sync.Once
}

func newScriptedSurface() *scriptedSurface {
	return &scriptedSurface{
		chunks: make(chan []byte, 16),
		status: surface.Status{Connected: true},
	}
}

func (s *scriptedSurface) Start(context.Context, surface.Request) error { return nil }
func (s *scriptedSurface) Chunks() <-chan []byte                        { return s.chunks }

func (s *scriptedSurface) Probe() surface.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *scriptedSurface) Stop(context.Context) error {
	s.closeOnce.Do(func() { close(s.chunks) })
	return nil
}

func (s *scriptedSurface) finish(status surface.Status) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
	s.closeOnce.Do(func() { close(s.chunks) })
}

type scriptedDialer struct {
	mu       sync.Mutex
	surfaces []*scriptedSurface
	next     int
}

func (d *scriptedDialer) Dial(context.Context) (surface.Surface, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.next >= len(d.surfaces) {
		d.surfaces = append(d.surfaces, newScriptedSurface())
	}
	surf := d.surfaces[d.next]
	d.next++
	return surf, nil
}

type copyEncoder struct{}

func (copyEncoder) Encode(_ context.Context, inputPath, outputPath string, _ encode.Options) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return err
	}
	return os.WriteFile(outputPath, data, 0o644)
}

func startTestDaemon(t *testing.T, dialer surface.Dialer) (*Daemon, *api.Client, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Encode.FFmpegBinary = "sh"
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	history, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	events := bus.New()
	logger := logging.NewNop()
	mgr := session.NewManager(cfg, dialer, copyEncoder{}, events, history, nil, logger)

	d, err := New(cfg, mgr, history, events, logger)
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Start(ctx); err != nil {
		t.Fatalf("start daemon: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		_ = d.Close()
		events.Close()
	})
	return d, api.NewClient(d.Addr()), cfg
}

func waitForTerminal(t *testing.T, client *api.Client, id string) api.Session {
	t.Helper()
	deadline := time.After(10 * time.Second)
	for {
		sess, err := client.GetSession(context.Background(), id)
		if err == nil && sess.Terminal() {
			return sess
		}
		select {
		case <-deadline:
			t.Fatalf("session %s never reached a terminal state (err=%v)", id, err)
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestDaemonSessionLifecycleOverAPI(t *testing.T) {
	surf := newScriptedSurface()
	dialer := &scriptedDialer{surfaces: []*scriptedSurface{surf}}
	_, client, _ := startTestDaemon(t, dialer)

	surf.chunks <- []byte("frame-a")
	surf.chunks <- []byte("frame-b")
	surf.finish(surface.Status{Position: 60, Duration: 60, Ended: true, Connected: true})

	created, err := client.CreateSession(context.Background(), api.SessionRequest{
		SourceURL: "https://media.example/watch/11",
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if created.ID == "" {
		t.Fatal("created session missing id")
	}
	if created.PlaybackRate != 1.0 {
		t.Errorf("default playback rate = %v, want 1.0", created.PlaybackRate)
	}

	final := waitForTerminal(t, client, created.ID)
	if final.State != string(session.StateDone) {
		t.Fatalf("final state = %q (%s), want done", final.State, final.ErrorMessage)
	}
	if final.OutputPath == "" {
		t.Error("final session missing output path")
	}
	data, err := os.ReadFile(final.OutputPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "frame-aframe-b" {
		t.Errorf("output content = %q", data)
	}

	sessions, err := client.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	found := false
	for _, sess := range sessions {
		if sess.ID == created.ID {
			found = true
		}
	}
	if !found {
		t.Error("completed session missing from listing")
	}
}

func TestDaemonStopEndpoint(t *testing.T) {
	surf := newScriptedSurface()
	dialer := &scriptedDialer{surfaces: []*scriptedSurface{surf}}
	_, client, _ := startTestDaemon(t, dialer)

	created, err := client.CreateSession(context.Background(), api.SessionRequest{
		SourceURL: "https://media.example/watch/12",
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	if err := client.StopSession(context.Background(), created.ID); err != nil {
		t.Fatalf("stop session: %v", err)
	}

	final := waitForTerminal(t, client, created.ID)
	if final.State != string(session.StateDone) {
		t.Fatalf("final state = %q, want done after requested stop", final.State)
	}
}

func TestDaemonEventStream(t *testing.T) {
	surf := newScriptedSurface()
	dialer := &scriptedDialer{surfaces: []*scriptedSurface{surf}}
	_, client, _ := startTestDaemon(t, dialer)

	created, err := client.CreateSession(context.Background(), api.SessionRequest{
		SourceURL: "https://media.example/watch/13",
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	stream, err := client.Events(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("open event stream: %v", err)
	}
	defer stream.Close()

	surf.chunks <- []byte("frame")
	surf.finish(surface.Status{Position: 30, Duration: 30, Ended: true, Connected: true})

	deadline := time.Now().Add(10 * time.Second)
	for {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for terminal event on stream")
		}
		event, err := stream.Next()
		if err != nil {
			t.Fatalf("read event: %v", err)
		}
		if event.SessionID != created.ID {
			t.Fatalf("stream for %s delivered event for %s", created.ID, event.SessionID)
		}
		if event.Terminal() {
			if event.Type != bus.EventComplete {
				t.Fatalf("terminal event type = %q, want complete", event.Type)
			}
			break
		}
	}
}

func TestDaemonRejectsInvalidRequests(t *testing.T) {
	_, client, _ := startTestDaemon(t, &scriptedDialer{})

	if _, err := client.CreateSession(context.Background(), api.SessionRequest{SourceURL: "not-a-url"}); err == nil {
		t.Error("expected error for relative source URL")
	}
	if _, err := client.GetSession(context.Background(), "nope"); err == nil {
		t.Error("expected error for unknown session")
	}
	if err := client.StopSession(context.Background(), "nope"); err == nil {
		t.Error("expected error stopping unknown session")
	}
}

func TestDaemonStatusEndpoint(t *testing.T) {
	d, client, _ := startTestDaemon(t, &scriptedDialer{})

	status, err := client.Status(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.Running {
		t.Error("status reports daemon not running")
	}
	if status.PID != os.Getpid() {
		t.Errorf("status PID = %d, want %d", status.PID, os.Getpid())
	}
	if status.LockFilePath != d.Status().LockFilePath {
		t.Error("status lock path mismatch")
	}
	for _, check := range status.Preflight {
		if !check.Passed {
			t.Errorf("preflight check %q failed: %s", check.Name, check.Detail)
		}
	}
}

func TestDaemonSingleInstance(t *testing.T) {
	surfaceDialer := &scriptedDialer{}
	_, _, cfg := startTestDaemon(t, surfaceDialer)

	events := bus.New()
	defer events.Close()
	mgr := session.NewManager(cfg, surfaceDialer, copyEncoder{}, events, nil, nil, logging.NewNop())
	second, err := New(cfg, mgr, nil, events, logging.NewNop())
	if err != nil {
		t.Fatalf("new second daemon: %v", err)
	}
	err = second.Start(context.Background())
	if err == nil {
		second.Stop()
		t.Fatal("second daemon acquired the instance lock")
	}
	if !strings.Contains(err.Error(), "already running") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDaemonMethodNotAllowed(t *testing.T) {
	d, _, _ := startTestDaemon(t, &scriptedDialer{})

	resp, err := http.Get("http://" + d.Addr() + "/api/events-nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown route status = %d, want 404", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodDelete, "http://"+d.Addr()+"/api/sessions", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("DELETE /api/sessions status = %d, want 405", resp.StatusCode)
	}
}
