package surface

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"reeler/internal/services"
)

var upgrader = websocket.Upgrader{}

// scriptedAgent runs handler for each accepted connection.
func scriptedAgent(t *testing.T, handler func(*websocket.Conn)) *AgentDialer {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(server.Close)
	return NewAgentDialer("ws"+strings.TrimPrefix(server.URL, "http"), 2*time.Second)
}

func readControl(t *testing.T, conn *websocket.Conn) controlFrame {
	t.Helper()
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Errorf("agent read: %v", err)
		return controlFrame{}
	}
	var frame controlFrame
	if err := json.Unmarshal(payload, &frame); err != nil {
		t.Errorf("agent decode: %v", err)
	}
	return frame
}

func writeControl(conn *websocket.Conn, frame controlFrame) {
	payload, _ := json.Marshal(frame)
	_ = conn.WriteMessage(websocket.TextMessage, payload)
}

func TestAgentStartDeliversChunksAndEnd(t *testing.T) {
	dialer := scriptedAgent(t, func(conn *websocket.Conn) {
		start := readControl(t, conn)
		if start.Type != frameStart || start.SourceURL != "https://example.org/play/1" {
			t.Errorf("unexpected start frame: %+v", start)
		}
		writeControl(conn, controlFrame{Type: frameReady})
		_ = conn.WriteMessage(websocket.BinaryMessage, []byte("chunk-1"))
		_ = conn.WriteMessage(websocket.BinaryMessage, []byte("chunk-2"))
		writeControl(conn, controlFrame{Type: frameStatus, Position: 10, Duration: 100})
		writeControl(conn, controlFrame{Type: frameEnded})
	})

	s, err := dialer.Dial(context.Background())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	req := Request{SessionID: "s1", SourceURL: "https://example.org/play/1", PlaybackRate: 1.0, Strategy: StrategyDirectStream}
	if err := s.Start(context.Background(), req); err != nil {
		t.Fatalf("Start: %v", err)
	}

	var got []string
	for chunk := range s.Chunks() {
		got = append(got, string(chunk))
	}
	if len(got) != 2 || got[0] != "chunk-1" || got[1] != "chunk-2" {
		t.Fatalf("unexpected chunks: %v", got)
	}

	status := s.Probe()
	if !status.Ended {
		t.Fatalf("expected ended status, got %+v", status)
	}
}

func TestAgentStartFailsWhenAgentReportsError(t *testing.T) {
	dialer := scriptedAgent(t, func(conn *websocket.Conn) {
		readControl(t, conn)
		writeControl(conn, controlFrame{Type: frameError, Message: "navigation failed"})
	})

	s, err := dialer.Dial(context.Background())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	err = s.Start(context.Background(), Request{SourceURL: "https://example.org/x"})
	if !errors.Is(err, services.ErrSurfaceAcquisition) {
		t.Fatalf("expected surface acquisition error, got %v", err)
	}
}

func TestAgentStartTimesOutWithoutReady(t *testing.T) {
	dialer := scriptedAgent(t, func(conn *websocket.Conn) {
		readControl(t, conn)
		time.Sleep(3 * time.Second)
	})
	dialer.readyTimeout = 100 * time.Millisecond

	s, err := dialer.Dial(context.Background())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	err = s.Start(context.Background(), Request{SourceURL: "https://example.org/x"})
	if !errors.Is(err, services.ErrSurfaceAcquisition) {
		t.Fatalf("expected surface acquisition error, got %v", err)
	}
}

func TestAgentDisconnectFlagsConnectivity(t *testing.T) {
	dialer := scriptedAgent(t, func(conn *websocket.Conn) {
		readControl(t, conn)
		writeControl(conn, controlFrame{Type: frameReady})
		writeControl(conn, controlFrame{Type: frameStatus, Position: 5, Duration: 60})
		// Drop the connection mid-capture.
	})

	s, err := dialer.Dial(context.Background())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if err := s.Start(context.Background(), Request{SourceURL: "https://example.org/x"}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Chunk stream closes when the peer goes away.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-s.Chunks():
			if !ok {
				status := s.Probe()
				if status.Connected {
					t.Fatalf("expected disconnected status, got %+v", status)
				}
				return
			}
		case <-deadline:
			t.Fatal("chunk stream did not close on disconnect")
		}
	}
}

func TestAgentStopIsIdempotent(t *testing.T) {
	stops := make(chan struct{}, 4)
	dialer := scriptedAgent(t, func(conn *websocket.Conn) {
		readControl(t, conn)
		writeControl(conn, controlFrame{Type: frameReady})
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var frame controlFrame
			if json.Unmarshal(payload, &frame) == nil && frame.Type == frameStop {
				stops <- struct{}{}
				writeControl(conn, controlFrame{Type: frameEnded})
			}
		}
	})

	s, err := dialer.Dial(context.Background())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if err := s.Start(context.Background(), Request{SourceURL: "https://example.org/x"}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := s.Stop(context.Background()); err != nil {
			t.Fatalf("Stop %d: %v", i, err)
		}
	}
	for range s.Chunks() {
	}
	if len(stops) != 1 {
		t.Fatalf("expected exactly one stop frame, agent saw %d", len(stops))
	}
}
