package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	mu    sync.Mutex
	items []int
}

func (s *stubSource) Name() string { return "stub-source" }

func (s *stubSource) PollDue(ctx context.Context, limit int) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := min(limit, len(s.items))
	batch := s.items[:n]
	s.items = s.items[n:]
	return batch, nil
}

type stubProcessor struct {
	mu        sync.Mutex
	processed []int
	shutdowns int
	notify    chan struct{}
}

func (p *stubProcessor) Name() string { return "stub-processor" }

func (p *stubProcessor) Process(ctx context.Context, item int) error {
	p.mu.Lock()
	p.processed = append(p.processed, item)
	p.mu.Unlock()
	select {
	case p.notify <- struct{}{}:
	default:
	}
	return nil
}

func (p *stubProcessor) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shutdowns++
	return nil
}

func TestSchedulerDrainsDueItems(t *testing.T) {
	source := &stubSource{items: []int{1, 2, 3}}
	processor := &stubProcessor{notify: make(chan struct{}, 1)}
	s := New[int](processor, source, WithPollInterval[int](5*time.Millisecond), WithBatchSize[int](2))

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	deadline := time.After(5 * time.Second)
	for {
		processor.mu.Lock()
		n := len(processor.processed)
		processor.mu.Unlock()
		if n == 3 {
			break
		}
		select {
		case <-processor.notify:
		case <-deadline:
			t.Fatal("timed out waiting for items to be processed")
		}
	}

	require.NoError(t, s.Shutdown())
	require.NoError(t, <-done)

	processor.mu.Lock()
	defer processor.mu.Unlock()
	assert.Equal(t, []int{1, 2, 3}, processor.processed)
	assert.Equal(t, 1, processor.shutdowns)
}

func TestSchedulerStopsOnContextCancel(t *testing.T) {
	source := &stubSource{}
	processor := &stubProcessor{notify: make(chan struct{}, 1)}
	s := New[int](processor, source, WithPollInterval[int](5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop on context cancel")
	}

	processor.mu.Lock()
	defer processor.mu.Unlock()
	assert.Equal(t, 1, processor.shutdowns)
}

func TestSchedulerOptions(t *testing.T) {
	s := New[int](&stubProcessor{}, &stubSource{})
	assert.Equal(t, defaultPollInterval, s.pollInterval)
	assert.Equal(t, defaultBatchSize, s.batchSize)

	s = New[int](&stubProcessor{}, &stubSource{},
		WithPollInterval[int](time.Second),
		WithBatchSize[int](7),
	)
	assert.Equal(t, time.Second, s.pollInterval)
	assert.Equal(t, 7, s.batchSize)

	// non-positive overrides are ignored
	s = New[int](&stubProcessor{}, &stubSource{},
		WithPollInterval[int](0),
		WithBatchSize[int](-1),
	)
	assert.Equal(t, defaultPollInterval, s.pollInterval)
	assert.Equal(t, defaultBatchSize, s.batchSize)
}
