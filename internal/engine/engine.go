// Package engine runs tabular operations over in-memory rows under a
// pluggable execution strategy. The same pipeline code runs sequentially or
// on a bounded worker pool depending on the Executor it is given.
package engine

import (
	"context"
	"errors"
	"runtime"
)

// DefaultChunkSize is the number of rows per task for row-wise operations.
const DefaultChunkSize = 4096

var errNoExecutor = errors.New("engine: executor not configured")

// Task is one independent unit of work. Tasks of the same Run only write to
// disjoint memory.
type Task func(ctx context.Context) error

// Executor runs a batch of independent tasks and returns the first error.
type Executor interface {
	Name() string
	Run(ctx context.Context, tasks []Task) error
}

// New returns the executor registered under name: "sequential" or "parallel".
func New(name string, workers int) (Executor, error) {
	switch name {
	case SequentialName:
		return NewSequential(), nil
	case ParallelName:
		return NewParallel(workers), nil
	default:
		return nil, errors.New("engine: unknown executor " + name)
	}
}

// DefaultWorkers is the worker count used when none is configured.
func DefaultWorkers() int {
	return runtime.NumCPU()
}

// span is a half-open row range [lo, hi).
type span struct {
	lo, hi int
}

func chunks(n, size int) []span {
	if size <= 0 {
		size = DefaultChunkSize
	}
	out := make([]span, 0, (n+size-1)/size)
	for lo := 0; lo < n; lo += size {
		hi := lo + size
		if hi > n {
			hi = n
		}
		out = append(out, span{lo: lo, hi: hi})
	}
	return out
}
