package surface

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"reeler/internal/services"
)

// control frame types exchanged with the capture agent.
const (
	frameStart  = "start"
	frameReady  = "ready"
	frameStatus = "status"
	frameEnded  = "ended"
	frameError  = "error"
	frameStop   = "stop"
)

type controlFrame struct {
	Type         string  `json:"type"`
	SessionID    string  `json:"session_id,omitempty"`
	SourceURL    string  `json:"source_url,omitempty"`
	PlaybackRate float64 `json:"playback_rate,omitempty"`
	Strategy     string  `json:"strategy,omitempty"`
	Position     float64 `json:"position,omitempty"`
	Duration     float64 `json:"duration,omitempty"`
	Ended        bool    `json:"ended,omitempty"`
	Message      string  `json:"message,omitempty"`
}

// AgentDialer connects sessions to a capture agent over websocket.
type AgentDialer struct {
	url          string
	readyTimeout time.Duration
}

// NewAgentDialer constructs a dialer for the agent at url.
func NewAgentDialer(url string, readyTimeout time.Duration) *AgentDialer {
	if readyTimeout <= 0 {
		readyTimeout = 45 * time.Second
	}
	return &AgentDialer{url: url, readyTimeout: readyTimeout}
}

// Dial opens a dedicated agent connection for one session.
func (d *AgentDialer) Dial(ctx context.Context) (Surface, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, d.url, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrSurfaceAcquisition, "surface", "dial agent", d.url, err)
	}
	return newAgent(conn, d.readyTimeout), nil
}

// Agent is a Surface backed by one websocket connection to the capture
// agent. Binary frames carry chunks; text frames carry JSON control.
type Agent struct {
	conn         *websocket.Conn
	readyTimeout time.Duration

	chunks chan []byte
	ready  chan error

	writeMu sync.Mutex

	statusMu sync.Mutex
	status   Status

	stopped atomic.Bool
	started atomic.Bool
	closed  sync.Once
}

func newAgent(conn *websocket.Conn, readyTimeout time.Duration) *Agent {
	return &Agent{
		conn:         conn,
		readyTimeout: readyTimeout,
		chunks:       make(chan []byte, 8),
		ready:        make(chan error, 1),
	}
}

// Start sends the start command and waits for the agent's ready signal.
func (a *Agent) Start(ctx context.Context, req Request) error {
	if !a.started.CompareAndSwap(false, true) {
		return services.Wrap(services.ErrSurfaceAcquisition, "surface", "start", "surface already started", nil)
	}
	frame := controlFrame{
		Type:         frameStart,
		SessionID:    req.SessionID,
		SourceURL:    req.SourceURL,
		PlaybackRate: req.PlaybackRate,
		Strategy:     req.Strategy,
	}
	if err := a.writeControl(frame); err != nil {
		return services.Wrap(services.ErrSurfaceAcquisition, "surface", "send start", "", err)
	}

	go a.readLoop()

	timer := time.NewTimer(a.readyTimeout)
	defer timer.Stop()
	select {
	case err := <-a.ready:
		if err != nil {
			return services.Wrap(services.ErrSurfaceAcquisition, "surface", "await ready", "", err)
		}
		a.setConnected(true)
		return nil
	case <-timer.C:
		return services.Wrap(services.ErrSurfaceAcquisition, "surface", "await ready",
			fmt.Sprintf("media not ready within %s", a.readyTimeout), nil)
	case <-ctx.Done():
		return services.Wrap(services.ErrSurfaceAcquisition, "surface", "await ready", "", ctx.Err())
	}
}

// Chunks yields captured fragments until the stream ends.
func (a *Agent) Chunks() <-chan []byte { return a.chunks }

// Probe returns the latest cached agent status. It never touches the wire,
// so a dead peer is reflected as Connected=false from the read loop instead
// of blocking the monitor.
func (a *Agent) Probe() Status {
	a.statusMu.Lock()
	defer a.statusMu.Unlock()
	return a.status
}

// Stop sends the stop command once. Later calls and calls after the stream
// already ended are no-ops.
func (a *Agent) Stop(ctx context.Context) error {
	if !a.stopped.CompareAndSwap(false, true) {
		return nil
	}
	if err := a.writeControl(controlFrame{Type: frameStop}); err != nil {
		// The peer may already be gone; the read loop has flagged
		// disconnection and the chunk stream is closing regardless.
		return nil
	}
	return nil
}

func (a *Agent) writeControl(frame controlFrame) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	_ = a.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return a.conn.WriteMessage(websocket.TextMessage, payload)
}

func (a *Agent) readLoop() {
	defer func() {
		a.closed.Do(func() { close(a.chunks) })
		_ = a.conn.Close()
	}()
	for {
		kind, payload, err := a.conn.ReadMessage()
		if err != nil {
			a.setConnected(false)
			a.signalReady(errors.New("agent connection closed"))
			return
		}
		switch kind {
		case websocket.BinaryMessage:
			if len(payload) > 0 {
				a.chunks <- payload
			}
		case websocket.TextMessage:
			var frame controlFrame
			if err := json.Unmarshal(payload, &frame); err != nil {
				continue
			}
			switch frame.Type {
			case frameReady:
				a.signalReady(nil)
			case frameStatus:
				a.setStatus(Status{
					Position:  frame.Position,
					Duration:  frame.Duration,
					Ended:     frame.Ended,
					Connected: true,
				})
			case frameEnded:
				a.markEnded()
				return
			case frameError:
				a.signalReady(errors.New(frame.Message))
				a.setConnected(false)
				return
			}
		}
	}
}

func (a *Agent) signalReady(err error) {
	select {
	case a.ready <- err:
	default:
	}
}

func (a *Agent) setStatus(status Status) {
	a.statusMu.Lock()
	a.status = status
	a.statusMu.Unlock()
}

func (a *Agent) setConnected(connected bool) {
	a.statusMu.Lock()
	a.status.Connected = connected
	a.statusMu.Unlock()
}

func (a *Agent) markEnded() {
	a.statusMu.Lock()
	a.status.Ended = true
	a.statusMu.Unlock()
}

var _ Surface = (*Agent)(nil)
