package api

import (
	"time"

	"reeler/internal/session"
)

// SessionRequest asks the daemon to start a new capture session.
type SessionRequest struct {
	SourceURL    string  `json:"source_url"`
	PlaybackRate float64 `json:"playback_rate,omitempty"`
}

// Session is the wire form of a session snapshot.
type Session struct {
	ID              string    `json:"id"`
	SourceURL       string    `json:"source_url"`
	State           string    `json:"state"`
	CaptureStrategy string    `json:"capture_strategy"`
	PlaybackRate    float64   `json:"playback_rate"`
	BytesCaptured   int64     `json:"bytes_captured"`
	Progress        float64   `json:"progress"`
	OutputPath      string    `json:"output_path,omitempty"`
	OutputURL       string    `json:"output_url,omitempty"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Terminal reports whether the session has finished.
func (s Session) Terminal() bool {
	return session.State(s.State).Terminal()
}

// SessionListResponse wraps a session listing.
type SessionListResponse struct {
	Sessions []Session `json:"sessions"`
}

// SessionResponse wraps a single session.
type SessionResponse struct {
	Session Session `json:"session"`
}

// StopResponse reports the outcome of a stop request.
type StopResponse struct {
	Stopping bool `json:"stopping"`
}

// PreflightResult mirrors one startup environment check.
type PreflightResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// DaemonStatus describes the running daemon.
type DaemonStatus struct {
	Running        bool              `json:"running"`
	PID            int               `json:"pid"`
	ActiveSessions int               `json:"active_sessions"`
	DatabasePath   string            `json:"database_path"`
	LockFilePath   string            `json:"lock_file_path"`
	Preflight      []PreflightResult `json:"preflight,omitempty"`
}

// ErrorResponse carries a failure message.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FromSnapshot converts an internal snapshot to its wire form.
func FromSnapshot(snap session.Snapshot) Session {
	return Session{
		ID:              snap.ID,
		SourceURL:       snap.SourceURL,
		State:           string(snap.State),
		CaptureStrategy: snap.CaptureStrategy,
		PlaybackRate:    snap.PlaybackRate,
		BytesCaptured:   snap.BytesCaptured,
		Progress:        snap.Progress,
		OutputPath:      snap.OutputPath,
		OutputURL:       snap.OutputURL,
		ErrorMessage:    snap.ErrorMessage,
		CreatedAt:       snap.CreatedAt,
	}
}
