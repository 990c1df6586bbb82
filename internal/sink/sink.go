package sink

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"

	"reeler/internal/services"
)

// Sink appends chunks to a capture artifact in strict arrival order.
type Sink struct {
	path string
	file *os.File

	requests chan writeRequest
	drained  chan struct{}

	mu     sync.RWMutex
	closed bool

	closeOnce sync.Once
	closeErr  error

	bytes  atomic.Int64
	failed atomic.Bool
}

type writeRequest struct {
	data  []byte
	reply chan error
}

// New creates the artifact file at path and starts the writer. The file is
// truncated if it already exists; each session owns exactly one artifact.
func New(path string) (*Sink, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "sink", "open artifact", path, err)
	}
	s := &Sink{
		path:     path,
		file:     file,
		requests: make(chan writeRequest, 16),
		drained:  make(chan struct{}),
	}
	go s.run()
	return s, nil
}

// Path returns the artifact file location.
func (s *Sink) Path() string { return s.path }

// BytesWritten returns the running byte total for progress reporting.
func (s *Sink) BytesWritten() int64 { return s.bytes.Load() }

// Accept enqueues chunk and blocks until its write completes. The returned
// error carries the persistence marker when the underlying write failed; the
// sink never retries, retry policy belongs to the controller.
func (s *Sink) Accept(ctx context.Context, chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.failed.Load() {
		return services.Wrap(services.ErrPersistence, "sink", "accept", "sink already failed", nil)
	}

	req := writeRequest{data: chunk, reply: make(chan error, 1)}

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return services.Wrap(services.ErrPersistence, "sink", "accept", "sink closed", nil)
	}
	s.requests <- req
	s.mu.RUnlock()

	return <-req.reply
}

// Close drains outstanding writes, syncs, and releases the file. Safe to
// call multiple times; later calls return the first result.
func (s *Sink) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.requests)
		s.mu.Unlock()

		<-s.drained

		syncErr := s.file.Sync()
		closeErr := s.file.Close()
		if syncErr != nil {
			s.closeErr = services.Wrap(services.ErrPersistence, "sink", "sync artifact", s.path, syncErr)
			return
		}
		if closeErr != nil {
			s.closeErr = services.Wrap(services.ErrPersistence, "sink", "close artifact", s.path, closeErr)
		}
	})
	return s.closeErr
}

func (s *Sink) run() {
	defer close(s.drained)
	for req := range s.requests {
		if s.failed.Load() {
			req.reply <- services.Wrap(services.ErrPersistence, "sink", "append chunk", "sink already failed", nil)
			continue
		}
		n, err := s.file.Write(req.data)
		if err == nil && n < len(req.data) {
			err = errors.New("short write")
		}
		if err != nil {
			s.failed.Store(true)
			req.reply <- services.Wrap(services.ErrPersistence, "sink", "append chunk", s.path, err)
			continue
		}
		s.bytes.Add(int64(n))
		req.reply <- nil
	}
}
