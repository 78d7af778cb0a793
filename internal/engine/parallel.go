package engine

import (
	"context"
	"fmt"
	"sync"
)

// ParallelName identifies the worker pool executor.
const ParallelName = "parallel"

// Parallel runs tasks on a bounded pool of goroutines. The first failing task
// cancels the context handed to the others and no further tasks are started.
type Parallel struct {
	workers int
}

// NewParallel returns a pool of the given size; workers <= 0 means NumCPU.
func NewParallel(workers int) *Parallel {
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	return &Parallel{workers: workers}
}

func (p *Parallel) Name() string {
	return ParallelName
}

// Workers returns the pool size.
func (p *Parallel) Workers() int {
	return p.workers
}

func (p *Parallel) Run(ctx context.Context, tasks []Task) error {
	if len(tasks) == 0 {
		return ctx.Err()
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	sem := make(chan struct{}, p.workers)

dispatch:
	for _, task := range tasks {
		select {
		case <-runCtx.Done():
			break dispatch
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(task Task) {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					fail(fmt.Errorf("engine: task panicked: %v", r))
				}
			}()

			if runCtx.Err() != nil {
				return
			}
			if err := task(runCtx); err != nil {
				fail(err)
			}
		}(task)
	}

	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}
