// Package workerpool runs independent tasks on a fixed number of workers
// and waits for all of them before returning.
package workerpool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// DefaultSize is the number of workers used by the multi-threaded scenarios.
const DefaultSize = 3

// Task is one unit of work. Tasks must not depend on each other.
type Task func(ctx context.Context) error

// Stats describes a completed Run.
type Stats struct {
	Submitted       int
	Completed       int
	Failed          int
	Skipped         int
	PeakConcurrency int
}

// Pool executes tasks with at most Size running at once.
type Pool struct {
	size int
}

// New creates a pool with size workers. A non-positive size selects
// DefaultSize.
func New(size int) *Pool {
	if size <= 0 {
		size = DefaultSize
	}
	return &Pool{size: size}
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return p.size
}

// Run submits every task and blocks until all started tasks have returned.
// The first task error cancels the context passed to the remaining tasks;
// tasks that have not started yet are skipped. Run returns that first error.
func (p *Pool) Run(ctx context.Context, tasks []Task) (Stats, error) {
	stats := Stats{Submitted: len(tasks)}
	if len(tasks) == 0 {
		return stats, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.size)

	var (
		completed, failed, skipped atomic.Int64
		active                     atomic.Int64
		peakMu                     sync.Mutex
		peak                       int64
	)

	for i, task := range tasks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				skipped.Add(1)
				return err
			}

			n := active.Add(1)
			peakMu.Lock()
			if n > peak {
				peak = n
			}
			peakMu.Unlock()
			defer active.Add(-1)

			if err := safeCall(gctx, task); err != nil {
				failed.Add(1)
				return fmt.Errorf("workerpool: task %d: %w", i, err)
			}
			completed.Add(1)
			return nil
		})
	}

	err := g.Wait()

	stats.Completed = int(completed.Load())
	stats.Failed = int(failed.Load())
	stats.Skipped = int(skipped.Load())
	stats.PeakConcurrency = int(peak)
	return stats, err
}

// safeCall runs task and reports a panic as an error.
func safeCall(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return task(ctx)
}
