package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

// Measure runs fn and returns its wall-clock duration on clock, along with
// fn's error.
func Measure(ctx context.Context, clock clockwork.Clock, fn func(ctx context.Context) error) (time.Duration, error) {
	start := clock.Now()
	err := fn(ctx)
	return clock.Since(start), err
}

// TimingComparison holds the durations of the same workload under both
// engines. Speedup is sequential/parallel and 0 when undefined.
type TimingComparison struct {
	Sequential time.Duration `json:"sequential"`
	Parallel   time.Duration `json:"parallel"`
	Speedup    float64       `json:"speedup"`
}

// CompareTimings builds a TimingComparison.
func CompareTimings(sequential, parallel time.Duration) TimingComparison {
	tc := TimingComparison{Sequential: sequential, Parallel: parallel}
	if parallel > 0 {
		tc.Speedup = float64(sequential) / float64(parallel)
	}
	return tc
}

func (t TimingComparison) String() string {
	speedup := "n/a"
	if t.Speedup > 0 {
		speedup = fmt.Sprintf("%.2f×", t.Speedup)
	}
	return fmt.Sprintf("sequential %.3fs, parallel %.3fs, speedup %s",
		t.Sequential.Seconds(), t.Parallel.Seconds(), speedup)
}
