package session

import (
	"context"
	"log/slog"
	"math"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"reeler/internal/bus"
	"reeler/internal/config"
	"reeler/internal/encode"
	"reeler/internal/notifications"
	"reeler/internal/services"
	"reeler/internal/store"
	"reeler/internal/surface"
)

// Manager tracks active sessions and spawns a controller per accepted
// request. Terminal sessions are removed from the active set; their
// history remains queryable through the store.
type Manager struct {
	cfg      *config.Config
	dialer   surface.Dialer
	encoder  encode.Client
	events   *bus.Bus
	history  *store.Store
	notifier notifications.Service
	logger   *slog.Logger

	mu     sync.Mutex
	active map[string]*Controller
	wg     sync.WaitGroup
	closed bool
}

// NewManager constructs a session manager. The store may be nil in tests.
func NewManager(cfg *config.Config, dialer surface.Dialer, encoder encode.Client, events *bus.Bus, history *store.Store, notifier notifications.Service, logger *slog.Logger) *Manager {
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	return &Manager{
		cfg:      cfg,
		dialer:   dialer,
		encoder:  encoder,
		events:   events,
		history:  history,
		notifier: notifier,
		logger:   logger,
		active:   make(map[string]*Controller),
	}
}

// Begin validates the request, registers a new session, and starts its
// controller. The playback rate is clamped to the configured bounds, with
// zero meaning "use normal speed".
func (m *Manager) Begin(ctx context.Context, sourceURL string, opts Options) (Snapshot, error) {
	parsed, err := url.Parse(sourceURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return Snapshot{}, services.Wrap(services.ErrInvalidInput, "session", "begin", "source URL must be absolute", err)
	}

	rate := opts.PlaybackRate
	if rate == 0 {
		rate = 1.0
	}
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 {
		return Snapshot{}, services.Wrap(services.ErrInvalidInput, "session", "begin", "playback rate must be a positive number", nil)
	}
	if rate < m.cfg.Capture.MinPlaybackRate {
		rate = m.cfg.Capture.MinPlaybackRate
	}
	if rate > m.cfg.Capture.MaxPlaybackRate {
		rate = m.cfg.Capture.MaxPlaybackRate
	}

	id := uuid.NewString()
	ctrl := newController(id, sourceURL, rate, m.cfg, m.dialer, m.encoder, m.events, m.history, m.notifier, m.logger)
	ctrl.onTerminal = m.remove

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return Snapshot{}, services.Wrap(services.ErrInvalidInput, "session", "begin", "manager is shutting down", nil)
	}
	m.active[id] = ctrl
	m.wg.Add(1)
	m.mu.Unlock()

	if m.history != nil {
		rec := &store.Record{
			ID:              id,
			SourceURL:       sourceURL,
			CaptureStrategy: m.cfg.Capture.Strategy,
			PlaybackRate:    rate,
			State:           string(StateCreated),
			CreatedAt:       time.Now().UTC(),
		}
		if err := m.history.Insert(ctx, rec); err != nil {
			m.mu.Lock()
			delete(m.active, id)
			m.mu.Unlock()
			m.wg.Done()
			return Snapshot{}, err
		}
	}

	go func() {
		defer m.wg.Done()
		ctrl.run(context.WithoutCancel(ctx))
	}()

	m.logger.Info("session accepted",
		slog.String("session_id", id),
		slog.String("source_url", sourceURL),
		slog.Float64("playback_rate", rate),
	)
	return ctrl.Snapshot(), nil
}

// Stop requests a stop on an active session. Returns false when the
// session is not active; stopping an already-stopping session reports
// true without any additional effect.
func (m *Manager) Stop(id string) bool {
	m.mu.Lock()
	ctrl, ok := m.active[id]
	m.mu.Unlock()
	if !ok {
		return false
	}
	ctrl.RequestStop(StopReasonRequested)
	return true
}

// Get returns the live snapshot of an active session, falling back to the
// persisted record for terminal ones.
func (m *Manager) Get(ctx context.Context, id string) (Snapshot, error) {
	m.mu.Lock()
	ctrl, ok := m.active[id]
	m.mu.Unlock()
	if ok {
		return ctrl.Snapshot(), nil
	}
	if m.history == nil {
		return Snapshot{}, store.ErrNotFound
	}
	rec, err := m.history.GetByID(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	return snapshotFromRecord(rec), nil
}

// List returns active sessions first, newest first, then recent history.
func (m *Manager) List(ctx context.Context, limit int) ([]Snapshot, error) {
	m.mu.Lock()
	snaps := make([]Snapshot, 0, len(m.active))
	seen := make(map[string]struct{}, len(m.active))
	for id, ctrl := range m.active {
		snaps = append(snaps, ctrl.Snapshot())
		seen[id] = struct{}{}
	}
	m.mu.Unlock()
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].CreatedAt.After(snaps[j].CreatedAt) })

	if m.history != nil {
		records, err := m.history.List(ctx, limit)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			if _, ok := seen[rec.ID]; ok {
				continue
			}
			snaps = append(snaps, snapshotFromRecord(rec))
		}
	}
	if limit > 0 && len(snaps) > limit {
		snaps = snaps[:limit]
	}
	return snaps, nil
}

// ActiveCount reports the number of sessions that have not yet reached a
// terminal state.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

// Shutdown stops accepting sessions, requests a stop on every active one,
// and waits for them to finish or for the context to expire.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	ctrls := make([]*Controller, 0, len(m.active))
	for _, ctrl := range m.active {
		ctrls = append(ctrls, ctrl)
	}
	m.mu.Unlock()

	for _, ctrl := range ctrls {
		ctrl.RequestStop(StopReasonRequested)
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) remove(ctrl *Controller) {
	m.mu.Lock()
	delete(m.active, ctrl.id)
	m.mu.Unlock()
}

func snapshotFromRecord(rec *store.Record) Snapshot {
	return Snapshot{
		ID:              rec.ID,
		SourceURL:       rec.SourceURL,
		State:           State(rec.State),
		CaptureStrategy: rec.CaptureStrategy,
		PlaybackRate:    rec.PlaybackRate,
		BytesCaptured:   rec.BytesCaptured,
		Progress:        rec.ProgressPercent,
		OutputPath:      rec.OutputPath,
		OutputURL:       rec.OutputURL,
		ErrorMessage:    rec.ErrorMessage,
		CreatedAt:       rec.CreatedAt,
	}
}
