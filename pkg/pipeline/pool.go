package pipeline

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// WorkerPool bounds how many retrieval and embedding calls run at once
// across all in-flight requests. Acquisition respects the caller's
// context, so a request that times out while queued never runs at all.
type WorkerPool struct {
	sem *semaphore.Weighted
}

func NewWorkerPool(size int) *WorkerPool {
	if size <= 0 {
		size = 3
	}
	return &WorkerPool{sem: semaphore.NewWeighted(int64(size))}
}

// Do runs fn once a slot frees up, or returns the context error.
func (p *WorkerPool) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)
	return fn(ctx)
}
