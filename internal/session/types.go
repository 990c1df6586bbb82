package session

import "time"

// State is one position in the session lifecycle. Transitions are linear;
// failed is reachable from every non-terminal state.
type State string

const (
	StateCreated          State = "created"
	StateAcquiringSurface State = "acquiring_surface"
	StateReadyingMedia    State = "readying_media"
	StateCapturing        State = "capturing"
	StateStopping         State = "stopping"
	StateEncoding         State = "encoding"
	StateDone             State = "done"
	StateFailed           State = "failed"
)

// Terminal reports whether no further transitions occur from s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Stop reasons recorded when a session leaves capturing.
const (
	StopReasonEnded        = "media ended"
	StopReasonConnectivity = "connectivity lost"
	StopReasonRequested    = "stop requested"
)

// Progress steps reported through the bus.
const (
	stepAcquire  = 1
	stepReady    = 2
	stepCapture  = 3
	stepEncode   = 4
	stepFinalize = 5
	totalSteps   = 5
)

// Options are the caller-tunable session parameters.
type Options struct {
	// PlaybackRate is clamped to the configured range; zero means default.
	PlaybackRate float64
}

// Snapshot is a point-in-time view of a session, safe to hand out across
// goroutines.
type Snapshot struct {
	ID              string    `json:"id"`
	SourceURL       string    `json:"source_url"`
	State           State     `json:"state"`
	CaptureStrategy string    `json:"capture_strategy"`
	PlaybackRate    float64   `json:"playback_rate"`
	BytesCaptured   int64     `json:"bytes_captured"`
	Progress        float64   `json:"progress"`
	OutputPath      string    `json:"output_path,omitempty"`
	OutputURL       string    `json:"output_url,omitempty"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
