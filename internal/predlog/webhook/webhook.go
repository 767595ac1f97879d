// Package webhook forwards prediction records to an HTTP endpoint in
// batches.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Prabal729/disease-2/internal/logging"
	"github.com/Prabal729/disease-2/internal/model"
	"github.com/Prabal729/disease-2/internal/predlog"
)

const (
	defaultBatchSize     = 20
	defaultFlushInterval = 5 * time.Second
	defaultTimeout       = 10 * time.Second
	maxAttempts          = 3
)

// Option configures a Sink.
type Option func(*Sink)

// WithBearerToken sends "Authorization: Bearer <token>" with every POST.
func WithBearerToken(token string) Option {
	return func(s *Sink) {
		if token != "" {
			s.headers["Authorization"] = "Bearer " + token
		}
	}
}

// WithBatchSize sets how many records accumulate before a flush. Default: 20.
func WithBatchSize(n int) Option {
	return func(s *Sink) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithFlushInterval bounds how long a partial batch waits. Default: 5s.
func WithFlushInterval(d time.Duration) Option {
	return func(s *Sink) { s.flushInterval = d }
}

// WithClient replaces the HTTP client.
func WithClient(c *http.Client) Option {
	return func(s *Sink) { s.client = c }
}

// WithBackoff sets the base delay between retries. Default: 500ms.
func WithBackoff(d time.Duration) Option {
	return func(s *Sink) { s.backoff = d }
}

// WithOnError receives failures of timer-driven flushes.
func WithOnError(f func(error)) Option {
	return func(s *Sink) { s.onError = f }
}

// Sink POSTs JSON arrays of records. A batch is sent when it reaches the batch
// size, when the flush interval elapses, or on Close. 5xx responses are
// retried with exponential backoff; 4xx responses are not.
type Sink struct {
	client        *http.Client
	url           string
	headers       map[string]string
	batchSize     int
	flushInterval time.Duration
	backoff       time.Duration
	onError       func(error)
	log           *slog.Logger

	mu      sync.Mutex
	pending []model.PredictionRecord
	timer   *time.Timer
	closed  bool
}

var _ predlog.Sink = (*Sink)(nil)

// New creates a Sink posting to url.
func New(url string, opts ...Option) *Sink {
	s := &Sink{
		client:        &http.Client{Timeout: defaultTimeout},
		url:           url,
		headers:       map[string]string{},
		batchSize:     defaultBatchSize,
		flushInterval: defaultFlushInterval,
		backoff:       500 * time.Millisecond,
		log:           logging.New("webhook"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.onError == nil {
		s.onError = func(err error) { s.log.Warn("webhook flush failed", "error", err) }
	}
	return s
}

// Append queues rec and flushes when the batch is full.
func (s *Sink) Append(ctx context.Context, rec model.PredictionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("webhook: append after close")
	}

	s.pending = append(s.pending, rec)
	if len(s.pending) >= s.batchSize {
		return s.flushLocked(ctx)
	}
	if s.timer == nil {
		s.timer = time.AfterFunc(s.flushInterval, s.flushOnTimer)
	}
	return nil
}

func (s *Sink) flushOnTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timer = nil
	if err := s.flushLocked(context.Background()); err != nil {
		s.onError(err)
	}
}

// Close sends whatever is pending.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.flushLocked(context.Background())
}

// flushLocked sends the pending batch. Caller holds s.mu.
func (s *Sink) flushLocked(ctx context.Context) error {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if len(s.pending) == 0 {
		return nil
	}
	batch := s.pending
	s.pending = nil

	body, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("webhook: marshal: %w", err)
	}
	return s.post(ctx, body, len(batch))
}

func (s *Sink) post(ctx context.Context, body []byte, n int) error {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(s.backoff << (attempt - 1)):
			case <-ctx.Done():
				return fmt.Errorf("webhook: %w", ctx.Err())
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("webhook: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range s.headers {
			req.Header.Set(k, v)
		}

		resp, err := s.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("webhook: %w", err)
			continue
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			s.log.Debug("batch delivered", "records", n)
			return nil
		}
		lastErr = fmt.Errorf("webhook: HTTP %d", resp.StatusCode)
		if resp.StatusCode < 500 {
			return lastErr
		}
	}
	return lastErr
}
