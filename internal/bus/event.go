package bus

import "time"

// EventType classifies a session status event.
type EventType string

const (
	EventProgress EventType = "progress"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// Event is one session-scoped status update. Events are ephemeral: they are
// broadcast, never persisted. Fields beyond SessionID, Type, and Message are
// populated per type: progress carries step/percent/time, complete carries
// the output locator and effective capture parameters.
type Event struct {
	SessionID string    `json:"session_id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	Message    string  `json:"message,omitempty"`
	Step       int     `json:"step,omitempty"`
	TotalSteps int     `json:"total_steps,omitempty"`
	Progress   float64 `json:"progress,omitempty"`

	CurrentTime float64 `json:"current_time,omitempty"`
	Duration    float64 `json:"duration,omitempty"`

	OutputPath      string  `json:"output_path,omitempty"`
	OutputURL       string  `json:"output_url,omitempty"`
	CaptureStrategy string  `json:"capture_strategy,omitempty"`
	PlaybackRate    float64 `json:"playback_rate,omitempty"`
}

// Terminal reports whether the event ends its session's stream.
func (e Event) Terminal() bool {
	return e.Type == EventComplete || e.Type == EventError
}
