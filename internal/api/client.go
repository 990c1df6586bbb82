package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"reeler/internal/bus"
)

// Client talks to a running daemon over its HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for the daemon bound at addr (host:port).
func NewClient(addr string) *Client {
	return &Client{
		baseURL: "http://" + strings.TrimSpace(addr),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// CreateSession submits a new capture request.
func (c *Client) CreateSession(ctx context.Context, req SessionRequest) (Session, error) {
	var resp SessionResponse
	if err := c.do(ctx, http.MethodPost, "/api/sessions", req, &resp); err != nil {
		return Session{}, err
	}
	return resp.Session, nil
}

// ListSessions returns active sessions followed by recent history.
func (c *Client) ListSessions(ctx context.Context) ([]Session, error) {
	var resp SessionListResponse
	if err := c.do(ctx, http.MethodGet, "/api/sessions", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

// GetSession fetches one session by id.
func (c *Client) GetSession(ctx context.Context, id string) (Session, error) {
	var resp SessionResponse
	if err := c.do(ctx, http.MethodGet, "/api/sessions/"+url.PathEscape(id), nil, &resp); err != nil {
		return Session{}, err
	}
	return resp.Session, nil
}

// StopSession requests a stop on an active session.
func (c *Client) StopSession(ctx context.Context, id string) error {
	var resp StopResponse
	return c.do(ctx, http.MethodPost, "/api/sessions/"+url.PathEscape(id)+"/stop", nil, &resp)
}

// Status retrieves daemon runtime information.
func (c *Client) Status(ctx context.Context) (DaemonStatus, error) {
	var resp DaemonStatus
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &resp); err != nil {
		return DaemonStatus{}, err
	}
	return resp, nil
}

// EventStream delivers live session events over a websocket.
type EventStream struct {
	conn *websocket.Conn
}

// Events opens the daemon's event stream. An empty sessionID subscribes to
// every session.
func (c *Client) Events(ctx context.Context, sessionID string) (*EventStream, error) {
	wsURL := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/api/events"
	if sessionID != "" {
		wsURL += "?session=" + url.QueryEscape(sessionID)
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial event stream: %w", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return &EventStream{conn: conn}, nil
}

// Next blocks until the next event arrives or the stream ends.
func (s *EventStream) Next() (bus.Event, error) {
	var event bus.Event
	if err := s.conn.ReadJSON(&event); err != nil {
		return bus.Event{}, err
	}
	return event, nil
}

// Close tears down the stream.
func (s *EventStream) Close() error {
	deadline := time.Now().Add(time.Second)
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return s.conn.Close()
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr ErrorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("daemon returned %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
