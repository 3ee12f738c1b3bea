package scheduler

import "context"

// Worker is a long-running background worker handle.
type Worker interface {
	Run(ctx context.Context) error
}

var _ Worker = (*Scheduler[int])(nil)
