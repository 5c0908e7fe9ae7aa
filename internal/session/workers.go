package session

import "context"

// WorkerPool bounds the number of blocking operations (summary
// computation, provider calls) running at once, so one slow backend
// cannot absorb every goroutine in the process.
type WorkerPool struct {
	sem chan struct{}
}

// NewWorkerPool creates a pool admitting at most size concurrent jobs.
func NewWorkerPool(size int) *WorkerPool {
	if size < 1 {
		size = 1
	}
	return &WorkerPool{sem: make(chan struct{}, size)}
}

// Run executes fn once a slot is free, waiting for admission or context
// cancellation.
func (p *WorkerPool) Run(ctx context.Context, fn func() error) error {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-p.sem }()

	return fn()
}
