package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ramaorbit/orbit-engine/common/errs"
	"github.com/ramaorbit/orbit-engine/pkg/logger"
	"github.com/ramaorbit/orbit-engine/pkg/logger/slogx"
)

const (
	// defaultPollInterval is the default polling interval for the scheduler worker
	defaultPollInterval = 5 * time.Second

	// defaultBatchSize is the default maximum number of items claimed per poll
	defaultBatchSize = 32

	shutdownTimeout = 180 * time.Second
)

// Source yields work items that are due for processing. Items must remain
// claimable until a Processor acknowledges them, so delivery is at-least-once.
type Source[T any] interface {
	Name() string

	// PollDue returns up to limit items that are due for processing.
	PollDue(ctx context.Context, limit int) ([]T, error)
}

// Processor handles a single work item. A returned error leaves the item in
// the source for a later poll; Process must therefore tolerate re-delivery
// of an item it already handled.
type Processor[T any] interface {
	Name() string
	Process(ctx context.Context, item T) error
	Shutdown(ctx context.Context) error
}

// Scheduler is a generic polling worker: it repeatedly drains due items from
// a source and feeds them to a processor until stopped.
type Scheduler[T any] struct {
	Processor Processor[T]
	Source    Source[T]

	pollInterval time.Duration
	batchSize    int

	quitOnce sync.Once
	quit     chan struct{}
	done     chan struct{}
}

type Option[T any] func(*Scheduler[T])

// WithPollInterval overrides the default polling interval.
func WithPollInterval[T any](interval time.Duration) Option[T] {
	return func(s *Scheduler[T]) {
		if interval > 0 {
			s.pollInterval = interval
		}
	}
}

// WithBatchSize overrides the default maximum items claimed per poll.
func WithBatchSize[T any](size int) Option[T] {
	return func(s *Scheduler[T]) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// New create new generic scheduler
func New[T any](processor Processor[T], source Source[T], opts ...Option[T]) *Scheduler[T] {
	s := &Scheduler[T]{
		Processor: processor,
		Source:    source,

		pollInterval: defaultPollInterval,
		batchSize:    defaultBatchSize,

		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler[T]) Shutdown() error {
	return s.ShutdownWithContext(context.Background())
}

func (s *Scheduler[T]) ShutdownWithTimeout(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.ShutdownWithContext(ctx)
}

func (s *Scheduler[T]) ShutdownWithContext(ctx context.Context) (err error) {
	s.quitOnce.Do(func() {
		close(s.quit)
		select {
		case <-s.done:
		case <-time.After(shutdownTimeout):
			err = errors.Wrap(errs.Timeout, "scheduler shutdown timeout")
		case <-ctx.Done():
			err = errors.Wrap(ctx.Err(), "scheduler shutdown context canceled")
		}
	})
	return
}

func (s *Scheduler[T]) Run(ctx context.Context) error {
	defer close(s.done)

	ctx = logger.WithContext(ctx,
		slog.String("package", "scheduler"),
		slog.String("processor", s.Processor.Name()),
		slog.String("source", s.Source.Name()),
	)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.quit:
			logger.InfoContext(ctx, "Got quit signal, stopping scheduler")
			if err := s.Processor.Shutdown(ctx); err != nil {
				logger.ErrorContext(ctx, "Failed to shutdown processor", slogx.Error(err))
				return errors.Wrap(err, "processor shutdown failed")
			}
			return nil
		case <-ctx.Done():
			if err := s.Processor.Shutdown(ctx); err != nil {
				logger.ErrorContext(ctx, "Failed to shutdown processor", slogx.Error(err))
			}
			return nil
		case <-ticker.C:
			if err := s.drain(ctx); err != nil {
				logger.ErrorContext(ctx, "Scheduler failed while draining due items", slogx.Error(err))
				return errors.Wrap(err, "drain failed")
			}
		}
	}
}

// drain claims due items and processes them one by one. A failing item is
// logged and skipped so the rest of the batch still makes progress; the
// source re-delivers it on a later poll.
func (s *Scheduler[T]) drain(ctx context.Context) error {
	for {
		select {
		case <-s.quit:
			return nil
		case <-ctx.Done():
			return nil
		default:
		}

		items, err := s.Source.PollDue(ctx, s.batchSize)
		if err != nil {
			return errors.Wrap(err, "failed to poll due items")
		}
		if len(items) == 0 {
			return nil
		}

		logger.DebugContext(ctx, "Processing due items", slogx.Int("count", len(items)))
		for _, item := range items {
			if err := s.Processor.Process(ctx, item); err != nil {
				logger.ErrorContext(ctx, "Failed to process item, leaving for retry",
					slogx.Error(err),
					slogx.Any("item", item),
				)
			}
		}

		if len(items) < s.batchSize {
			return nil
		}
	}
}
