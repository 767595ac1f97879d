// Package async moves slow, non-critical prediction sinks (a database
// mirror) off the request path.
package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Prabal729/disease-2/internal/logging"
	"github.com/Prabal729/disease-2/internal/model"
	"github.com/Prabal729/disease-2/internal/predlog"
)

const (
	defaultBufferSize   = 256
	defaultDrainTimeout = 5 * time.Second
	defaultWriteTimeout = 3 * time.Second
)

// Option configures a Sink.
type Option func(*Sink)

// WithBufferSize sets the queue capacity.
func WithBufferSize(n int) Option {
	return func(s *Sink) { s.bufSize = n }
}

// WithOnError sets the callback for failed inner appends. The default logs
// a warning.
func WithOnError(f func(error)) Option {
	return func(s *Sink) { s.errFunc = f }
}

// WithDropOnFull makes Append drop the record instead of blocking when the
// queue is full.
func WithDropOnFull() Option {
	return func(s *Sink) { s.dropOnFull = true }
}

// WithWriteTimeout bounds each inner Append.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Sink) { s.writeTimeout = d }
}

// Sink queues records for a single background writer. Append never reports
// the inner sink's errors; they go to the error callback.
type Sink struct {
	inner        predlog.Sink
	ch           chan model.PredictionRecord
	done         chan struct{}
	errFunc      func(error)
	log          *slog.Logger
	bufSize      int
	writeTimeout time.Duration
	dropOnFull   bool

	mu     sync.RWMutex
	closed bool
}

// New wraps inner and starts the writer goroutine.
func New(inner predlog.Sink, opts ...Option) *Sink {
	s := &Sink{
		inner:        inner,
		bufSize:      defaultBufferSize,
		writeTimeout: defaultWriteTimeout,
		log:          logging.New("predlog.async"),
	}
	s.errFunc = func(err error) { s.log.Warn("mirror append failed", "error", err) }
	for _, opt := range opts {
		opt(s)
	}
	s.ch = make(chan model.PredictionRecord, s.bufSize)
	s.done = make(chan struct{})
	go s.drain()
	return s
}

// Append enqueues rec. It blocks while the queue is full unless
// WithDropOnFull is set. Records appended after Close are discarded.
func (s *Sink) Append(_ context.Context, rec model.PredictionRecord) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil
	}
	if s.dropOnFull {
		select {
		case s.ch <- rec:
		default:
			s.log.Warn("mirror queue full, dropping record", "disease", rec.PredictedDisease)
		}
		return nil
	}
	s.ch <- rec
	return nil
}

// Close stops accepting records, waits (bounded) for the queue to drain and
// closes the inner sink. It is safe to call more than once.
func (s *Sink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.ch)
	s.mu.Unlock()

	select {
	case <-s.done:
	case <-time.After(defaultDrainTimeout):
		s.log.Warn("mirror drain timed out")
	}
	return s.inner.Close()
}

func (s *Sink) drain() {
	defer close(s.done)
	for rec := range s.ch {
		ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
		err := s.inner.Append(ctx, rec)
		cancel()
		if err != nil {
			s.errFunc(err)
		}
	}
}
