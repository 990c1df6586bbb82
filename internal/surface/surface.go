package surface

import "context"

// Strategy names how the agent obtains the media stream.
const (
	StrategyDirectStream = "direct_stream"
	StrategyTabCapture   = "tab_capture"
)

// Request describes the playback the surface should host.
type Request struct {
	SessionID    string
	SourceURL    string
	PlaybackRate float64
	Strategy     string
}

// Status is a point-in-time probe of the playback surface.
type Status struct {
	Position  float64 // seconds into the media
	Duration  float64 // total seconds, 0 while unknown
	Ended     bool
	Connected bool
}

// Surface is the capture source boundary. Implementations must deliver a
// strictly ordered, finite chunk stream and close Chunks exactly once, on
// natural end, stop, or connectivity loss.
type Surface interface {
	// Start navigates the surface to the requested source and begins
	// recording. It returns once media is ready and chunks may flow.
	Start(ctx context.Context, req Request) error
	// Chunks yields captured fragments in production order. The channel is
	// closed when the stream ends for any reason.
	Chunks() <-chan []byte
	// Probe reports current playback state. It must not block on the peer.
	Probe() Status
	// Stop asks the surface to end capture. Idempotent; safe after end.
	Stop(ctx context.Context) error
}

// Dialer acquires a fresh surface for one session.
type Dialer interface {
	Dial(ctx context.Context) (Surface, error)
}
