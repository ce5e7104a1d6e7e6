package worker

import (
	"context"
	"log/slog"
	"sync"
)

type Job interface{}

type ProcessFunc func(ctx context.Context, job Job) error

type WorkerPool struct {
	numWorkers int
	jobs       chan Job
	processor  ProcessFunc
	wg         sync.WaitGroup
}

func NewWorkerPool(numWorkers int, bufferSize int, processor ProcessFunc) *WorkerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &WorkerPool{
		numWorkers: numWorkers,
		jobs:       make(chan Job, bufferSize),
		processor:  processor,
	}
}

func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 1; i <= wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()

	for {
		// Queued jobs are dropped once ctx is done.
		if ctx.Err() != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case job, ok := <-wp.jobs:
			if !ok {
				return
			}
			if err := wp.processor(ctx, job); err != nil {
				slog.Debug("job failed", "worker", id, "error", err)
			}
		}
	}
}

// Submit queues job, giving up if ctx is done first.
func (wp *WorkerPool) Submit(ctx context.Context, job Job) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case wp.jobs <- job:
		return nil
	}
}

// Stop closes the queue and waits for in-flight jobs.
func (wp *WorkerPool) Stop() {
	close(wp.jobs)
	wp.wg.Wait()
}

// Run processes n indexed jobs on a pool of numWorkers and returns once all
// of them finished or ctx was cancelled. fn receives the job index.
func Run(ctx context.Context, numWorkers, n int, fn func(ctx context.Context, i int) error) error {
	pool := NewWorkerPool(numWorkers, n, func(ctx context.Context, job Job) error {
		return fn(ctx, job.(int))
	})
	pool.Start(ctx)

	var err error
	for i := 0; i < n; i++ {
		if err = pool.Submit(ctx, i); err != nil {
			break
		}
	}
	pool.Stop()

	if err != nil {
		return err
	}
	return ctx.Err()
}
