package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"reeler/internal/bus"
	"reeler/internal/config"
	"reeler/internal/encode"
	"reeler/internal/fileutil"
	"reeler/internal/logging"
	"reeler/internal/notifications"
	"reeler/internal/services"
	"reeler/internal/sink"
	"reeler/internal/store"
	"reeler/internal/surface"
)

// Controller owns one session end to end. It is created by the Manager and
// runs on its own goroutine until the session reaches a terminal state.
type Controller struct {
	id        string
	sourceURL string
	rate      float64
	strategy  string
	createdAt time.Time

	cfg      *config.Config
	dialer   surface.Dialer
	encoder  encode.Client
	events   *bus.Bus
	history  *store.Store
	notifier notifications.Service
	logger   *slog.Logger

	capturePath string
	encodePath  string
	outputPath  string

	mu         sync.Mutex
	state      State
	percent    float64
	lastStatus surface.Status
	stopReason string
	errMsg     string

	bytes atomic.Int64

	stopping   atomic.Bool
	stopSignal chan struct{}

	surf surface.Surface
	snk  *sink.Sink

	done       chan struct{}
	onTerminal func(*Controller)
}

func newController(id, sourceURL string, rate float64, cfg *config.Config, dialer surface.Dialer, encoder encode.Client, events *bus.Bus, history *store.Store, notifier notifications.Service, logger *slog.Logger) *Controller {
	return &Controller{
		id:          id,
		sourceURL:   sourceURL,
		rate:        rate,
		strategy:    cfg.Capture.Strategy,
		createdAt:   time.Now(),
		cfg:         cfg,
		dialer:      dialer,
		encoder:     encoder,
		events:      events,
		history:     history,
		notifier:    notifier,
		logger:      logging.WithSession(logger, id),
		capturePath: filepath.Join(cfg.StagingDir(), id+".webm"),
		encodePath:  filepath.Join(cfg.StagingDir(), id+".mp4"),
		outputPath:  filepath.Join(cfg.OutputDir(), id+".mp4"),
		state:       StateCreated,
		stopSignal:  make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// ID returns the session identifier.
func (c *Controller) ID() string { return c.id }

// Done is closed when the session reaches a terminal state.
func (c *Controller) Done() <-chan struct{} { return c.done }

// Snapshot returns a point-in-time view of the session.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := Snapshot{
		ID:              c.id,
		SourceURL:       c.sourceURL,
		State:           c.state,
		CaptureStrategy: c.strategy,
		PlaybackRate:    c.rate,
		BytesCaptured:   c.bytes.Load(),
		Progress:        c.percent,
		ErrorMessage:    c.errMsg,
		CreatedAt:       c.createdAt,
	}
	if c.state == StateDone {
		snap.OutputPath = c.outputPath
		snap.OutputURL = c.outputURL()
	}
	return snap
}

// RequestStop asks the session to stop capturing. Idempotent: only the
// first caller wins the compare-and-swap; later invocations, including
// concurrent ones from the monitor and external triggers, are no-ops.
func (c *Controller) RequestStop(reason string) bool {
	if !c.stopping.CompareAndSwap(false, true) {
		return false
	}
	c.mu.Lock()
	c.stopReason = reason
	c.mu.Unlock()
	close(c.stopSignal)
	return true
}

func (c *Controller) run(ctx context.Context) {
	err := c.execute(ctx)
	c.finalize(err)
	close(c.done)
}

func (c *Controller) execute(ctx context.Context) error {
	// A stop request during acquisition or readying must not wait out the
	// dial or ready timeouts. The setup stages run under a context that the
	// stop signal cancels; capture itself handles stops through its select.
	setupCtx, cancelSetup := context.WithCancel(ctx)
	defer cancelSetup()
	go func() {
		select {
		case <-c.stopSignal:
			cancelSetup()
		case <-setupCtx.Done():
		}
	}()

	c.setState(StateAcquiringSurface)
	c.publishProgress(stepAcquire, 0, "acquiring capture surface")
	surf, err := c.dialer.Dial(setupCtx)
	if err == nil {
		c.surf = surf
	}
	if c.stopping.Load() {
		return services.Wrap(services.ErrCaptureInterrupted, "session", "acquire", "stop requested before capture began", nil)
	}
	if err != nil {
		return err
	}

	c.setState(StateReadyingMedia)
	c.publishProgress(stepReady, 0, "waiting for media")
	err = surf.Start(setupCtx, surface.Request{
		SessionID:    c.id,
		SourceURL:    c.sourceURL,
		PlaybackRate: c.rate,
		Strategy:     c.strategy,
	})
	if c.stopping.Load() {
		return services.Wrap(services.ErrCaptureInterrupted, "session", "ready", "stop requested before capture began", nil)
	}
	if err != nil {
		return err
	}

	snk, err := sink.New(c.capturePath)
	if err != nil {
		return err
	}
	c.snk = snk

	c.setState(StateCapturing)
	c.publishProgress(stepCapture, 0, "capturing")
	if err := c.notifier.NotifyCaptureStarted(ctx, c.sourceURL); err != nil {
		c.logger.Warn("capture start notification failed", logging.Error(err))
	}

	if err := c.captureLoop(ctx, surf, snk); err != nil {
		return err
	}

	c.setState(StateStopping)
	c.logger.Info("stopping capture",
		logging.String("reason", c.currentStopReason()),
		logging.Int64("bytes", snk.BytesWritten()),
	)
	if err := surf.Stop(ctx); err != nil {
		c.logger.Warn("surface stop failed", logging.Error(err))
	}
	// Chunks produced before the agent acknowledged the stop still belong
	// in the artifact.
	for chunk := range surf.Chunks() {
		if err := snk.Accept(ctx, chunk); err != nil {
			return err
		}
	}
	if err := snk.Close(); err != nil {
		return err
	}

	return c.encodeArtifact(ctx)
}

// captureLoop pumps chunks into the sink while the monitor polls the
// surface. It returns nil once a stop has been requested; both the chunk
// path and the monitor path consult the same flag before stopping.
func (c *Controller) captureLoop(ctx context.Context, surf surface.Surface, snk *sink.Sink) error {
	ticker := time.NewTicker(c.cfg.MonitorInterval())
	defer ticker.Stop()

	chunks := surf.Chunks()
	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				status := surf.Probe()
				reason := StopReasonEnded
				if !status.Connected && !status.Ended {
					reason = StopReasonConnectivity
				}
				c.RequestStop(reason)
				return nil
			}
			if err := snk.Accept(ctx, chunk); err != nil {
				return err
			}
			c.bytes.Store(snk.BytesWritten())

		case <-ticker.C:
			status := surf.Probe()
			c.observeStatus(status)
			c.publishCaptureProgress(status)
			c.persistProgress()
			if status.Ended {
				c.RequestStop(StopReasonEnded)
				return nil
			}
			if !status.Connected {
				c.RequestStop(StopReasonConnectivity)
				return nil
			}

		case <-c.stopSignal:
			return nil

		case <-ctx.Done():
			return services.Wrap(services.ErrCaptureInterrupted, "session", "capture", "session canceled", ctx.Err())
		}
	}
}

func (c *Controller) encodeArtifact(ctx context.Context) error {
	c.setState(StateEncoding)
	c.publishProgress(stepEncode, 0, "encoding capture")
	c.persistProgress()

	sampler := logging.NewProgressSampler(10)
	opts := encode.Options{
		MediaDuration: c.mediaDuration(),
		Progress: func(update encode.ProgressUpdate) {
			percent := update.Percent
			if percent > 99 {
				percent = 99
			}
			if percent >= 0 {
				c.publishProgress(stepEncode, percent, "encoding capture")
			}
			if sampler.ShouldLog(update.Percent, "encoding") {
				c.logger.Info("encode progress",
					logging.Float64("seconds", update.Seconds),
					logging.Float64("percent", update.Percent),
				)
			}
		},
	}
	if err := c.encoder.Encode(ctx, c.capturePath, c.encodePath, opts); err != nil {
		return err
	}
	if err := fileutil.MoveFile(c.encodePath, c.outputPath); err != nil {
		return services.Wrap(services.ErrPersistence, "session", "publish", "move encoded output", err)
	}
	return nil
}

// finalize is the single release point for every exit path. It closes the
// sink, stops and drains the surface, removes the capture artifact, and
// emits exactly one terminal event.
func (c *Controller) finalize(err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if c.snk != nil {
		if closeErr := c.snk.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		c.bytes.Store(c.snk.BytesWritten())
	}
	if c.surf != nil {
		_ = c.surf.Stop(ctx)
		for range c.surf.Chunks() {
		}
	}
	if removeErr := os.Remove(c.capturePath); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
		c.logger.Warn("capture artifact cleanup failed", logging.Error(removeErr))
	}

	if err == nil {
		c.setState(StateDone)
		c.publishComplete()
		if notifyErr := c.notifier.NotifySessionCompleted(ctx, c.sourceURL, c.outputPath); notifyErr != nil {
			c.logger.Warn("completion notification failed", logging.Error(notifyErr))
		}
		c.recordTerminal(ctx, StateDone, "")
		c.logger.Info("session complete",
			logging.String("output", c.outputPath),
			logging.Int64("bytes", c.bytes.Load()),
		)
	} else {
		// A failed encode leaves no usable output behind.
		for _, path := range []string{c.encodePath, c.outputPath} {
			if removeErr := os.Remove(path); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
				c.logger.Warn("output cleanup failed", logging.Error(removeErr))
			}
		}
		message := services.UserMessage(err)
		c.mu.Lock()
		c.errMsg = message
		c.mu.Unlock()
		c.setState(StateFailed)
		c.events.Publish(c.id, bus.Event{Type: bus.EventError, Message: message})
		if notifyErr := c.notifier.NotifySessionFailed(ctx, c.sourceURL, message); notifyErr != nil {
			c.logger.Warn("failure notification failed", logging.Error(notifyErr))
		}
		c.recordTerminal(ctx, StateFailed, message)
		c.logger.Error("session failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "session_failed"),
		)
	}

	if c.onTerminal != nil {
		c.onTerminal(c)
	}
}

func (c *Controller) publishComplete() {
	c.events.Publish(c.id, bus.Event{
		Type:            bus.EventComplete,
		Message:         "recording ready",
		Step:            stepFinalize,
		TotalSteps:      totalSteps,
		Progress:        100,
		OutputPath:      c.outputPath,
		OutputURL:       c.outputURL(),
		CaptureStrategy: c.strategy,
		PlaybackRate:    c.rate,
	})
}

func (c *Controller) publishProgress(step int, percent float64, message string) {
	c.events.Publish(c.id, bus.Event{
		Type:       bus.EventProgress,
		Message:    message,
		Step:       step,
		TotalSteps: totalSteps,
		Progress:   percent,
	})
}

// publishCaptureProgress derives the capture percentage from the monitor
// probe: floor(min(100, position/duration*100)), clamped to 99 so the
// terminal complete event is the only carrier of 100. The published value
// never decreases within a session.
func (c *Controller) publishCaptureProgress(status surface.Status) {
	percent := -1.0
	if status.Duration > 0 {
		percent = math.Floor(math.Min(100, status.Position/status.Duration*100))
		if percent > 99 {
			percent = 99
		}
	}

	c.mu.Lock()
	if percent < c.percent {
		percent = c.percent
	} else if percent >= 0 {
		c.percent = percent
	}
	c.mu.Unlock()
	if percent < 0 {
		percent = 0
	}

	c.events.Publish(c.id, bus.Event{
		Type:        bus.EventProgress,
		Message:     fmt.Sprintf("capturing (%d bytes)", c.bytes.Load()),
		Step:        stepCapture,
		TotalSteps:  totalSteps,
		Progress:    percent,
		CurrentTime: status.Position,
		Duration:    status.Duration,
	})
}

func (c *Controller) persistProgress() {
	if c.history == nil {
		return
	}
	c.mu.Lock()
	state := c.state
	percent := c.percent
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.history.UpdateProgress(ctx, c.id, string(state), c.bytes.Load(), percent); err != nil {
		c.logger.Warn("session progress persistence failed", logging.Error(err))
	}
}

func (c *Controller) recordTerminal(ctx context.Context, state State, message string) {
	if c.history == nil {
		return
	}
	outputPath, outputURL := "", ""
	if state == StateDone {
		outputPath = c.outputPath
		outputURL = c.outputURL()
	}
	if err := c.history.Finish(ctx, c.id, string(state), outputPath, outputURL, message); err != nil {
		c.logger.Warn("terminal state persistence failed", logging.Error(err))
	}
}

func (c *Controller) setState(state State) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}

func (c *Controller) observeStatus(status surface.Status) {
	c.mu.Lock()
	c.lastStatus = status
	c.mu.Unlock()
}

func (c *Controller) mediaDuration() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastStatus.Duration
}

func (c *Controller) currentStopReason() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopReason == "" {
		return StopReasonRequested
	}
	return c.stopReason
}

func (c *Controller) outputURL() string {
	base := c.cfg.Paths.OutputBaseURL
	if base == "" {
		return ""
	}
	return base + "/" + filepath.Base(c.outputPath)
}
