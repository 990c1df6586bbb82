package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"reeler/internal/bus"
	"reeler/internal/config"
	"reeler/internal/logging"
	"reeler/internal/preflight"
	"reeler/internal/session"
	"reeler/internal/store"
)

// Daemon coordinates the capture service and enforces single-instance
// execution through a lock file in the log directory.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	manager *session.Manager
	history *store.Store
	events  *bus.Bus

	checks []preflight.Result

	lockPath string
	lock     *flock.Flock

	api *apiServer

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running        bool
	PID            int
	ActiveSessions int
	DatabasePath   string
	LockFilePath   string
	Preflight      []preflight.Result
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, mgr *session.Manager, history *store.Store, events *bus.Bus, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || mgr == nil || events == nil || logger == nil {
		return nil, errors.New("daemon requires config, manager, bus, and logger")
	}
	lockPath := filepath.Join(cfg.LogDir(), "reelerd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		manager:  mgr,
		history:  history,
		events:   events,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the instance lock, runs the preflight checks, and brings
// up the API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another reeler daemon instance is already running")
	}

	d.checks = preflight.Run(d.cfg)
	for _, check := range d.checks {
		if check.Passed {
			continue
		}
		d.logger.Warn("preflight check failed",
			logging.String("check", check.Name),
			logging.String("detail", check.Detail),
		)
	}
	if !preflight.Ready(d.checks) {
		_ = d.lock.Unlock()
		return errors.New("environment not ready, see preflight warnings")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	if err := d.api.start(runCtx); err != nil {
		cancel()
		d.cancel = nil
		_ = d.lock.Unlock()
		return err
	}

	d.running.Store(true)
	d.logger.Info("daemon started",
		logging.String("lock", d.lockPath),
		logging.String("api", d.api.addr()),
	)
	return nil
}

// Stop drains active sessions, shuts down the API server, and releases
// the instance lock. Safe to call more than once.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := d.manager.Shutdown(shutdownCtx); err != nil {
		d.logger.Warn("session drain incomplete", logging.Error(err))
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Close stops the daemon and releases the session store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.history != nil {
		return d.history.Close()
	}
	return nil
}

// Addr returns the API listen address, empty until started.
func (d *Daemon) Addr() string { return d.api.addr() }

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	dbPath := ""
	if d.history != nil {
		dbPath = d.history.Path()
	}
	return Status{
		Running:        d.running.Load(),
		PID:            os.Getpid(),
		ActiveSessions: d.manager.ActiveCount(),
		DatabasePath:   dbPath,
		LockFilePath:   d.lockPath,
		Preflight:      d.checks,
	}
}
