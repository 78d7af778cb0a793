package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/temperature-anomalies/internal/analysis"
)

type countingRefresher struct {
	calls    atomic.Int64
	err      error
	deadline atomic.Bool
}

func (c *countingRefresher) Refresh(ctx context.Context) (analysis.Snapshot, error) {
	c.calls.Add(1)
	if _, ok := ctx.Deadline(); ok {
		c.deadline.Store(true)
	}
	return analysis.Snapshot{Records: 1}, c.err
}

func TestSchedulerRunsImmediately(t *testing.T) {
	logger, _ := test.NewNullLogger()
	r := &countingRefresher{}

	s := New(r, time.Hour, time.Minute, logger)
	require.NoError(t, s.Start())
	defer s.Stop()

	require.Eventually(t, func() bool { return r.calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	assert.True(t, r.deadline.Load())
}

func TestSchedulerLogsFailures(t *testing.T) {
	logger, hook := test.NewNullLogger()
	r := &countingRefresher{err: errors.New("generation failed")}

	s := New(r, time.Hour, 0, logger)
	require.NoError(t, s.Start())
	defer s.Stop()

	require.Eventually(t, func() bool {
		for _, e := range hook.AllEntries() {
			if e.Level == logrus.ErrorLevel {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
	assert.False(t, r.deadline.Load())
}
