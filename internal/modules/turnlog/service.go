package turnlog

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type inserter interface {
	Insert(ctx context.Context, e Entry) error
}

// Service records turns asynchronously; write failures are logged, never surfaced.
type Service struct {
	store   inserter
	timeout time.Duration
	logger  *zap.Logger
	wg      sync.WaitGroup
}

// NewService creates a Service backed by the given Store.
func NewService(store *Store, timeout time.Duration, logger *zap.Logger) *Service {
	return newService(store, timeout, logger)
}

func newService(store inserter, timeout time.Duration, logger *zap.Logger) *Service {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Service{store: store, timeout: timeout, logger: logger}
}

// Record queues e for writing. The caller's context is only used for its
// values; the write outlives a cancelled request.
func (s *Service) Record(ctx context.Context, e Entry) {
	if e.TurnID == "" || e.Outcome == "" {
		s.logger.Warn("dropping turn log entry", zap.Error(ErrInvalidEntry))
		return
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		if err := s.store.Insert(writeCtx, e); err != nil {
			s.logger.Warn("turn log write failed", zap.String("turn_id", e.TurnID), zap.Error(err))
		}
	}()
}

// Close waits for queued writes to finish.
func (s *Service) Close() {
	s.wg.Wait()
}
