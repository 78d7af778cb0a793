package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executors() []Executor {
	return []Executor{NewSequential(), NewParallel(4)}
}

func TestNew(t *testing.T) {
	ex, err := New("sequential", 0)
	require.NoError(t, err)
	assert.Equal(t, SequentialName, ex.Name())

	ex, err = New("parallel", 0)
	require.NoError(t, err)
	assert.Equal(t, ParallelName, ex.Name())
	assert.Equal(t, DefaultWorkers(), ex.(*Parallel).Workers())

	_, err = New("gpu", 0)
	assert.Error(t, err)
}

func TestRunAllTasks(t *testing.T) {
	for _, ex := range executors() {
		t.Run(ex.Name(), func(t *testing.T) {
			var n atomic.Int64
			tasks := make([]Task, 100)
			for i := range tasks {
				tasks[i] = func(ctx context.Context) error {
					n.Add(1)
					return nil
				}
			}
			require.NoError(t, ex.Run(context.Background(), tasks))
			assert.EqualValues(t, 100, n.Load())
		})
	}
}

func TestRunFirstErrorStops(t *testing.T) {
	boom := errors.New("boom")

	for _, ex := range executors() {
		t.Run(ex.Name(), func(t *testing.T) {
			var started atomic.Int64
			tasks := make([]Task, 1000)
			for i := range tasks {
				i := i
				tasks[i] = func(ctx context.Context) error {
					started.Add(1)
					if i == 0 {
						return boom
					}
					select {
					case <-ctx.Done():
					case <-time.After(time.Millisecond):
					}
					return nil
				}
			}

			err := ex.Run(context.Background(), tasks)
			assert.ErrorIs(t, err, boom)
			assert.Less(t, started.Load(), int64(1000))
		})
	}
}

func TestParallelRecoversPanic(t *testing.T) {
	err := NewParallel(2).Run(context.Background(), []Task{
		func(ctx context.Context) error { panic("bad row") },
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad row")
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, ex := range executors() {
		err := ex.Run(ctx, []Task{func(ctx context.Context) error { return nil }})
		assert.ErrorIs(t, err, context.Canceled, ex.Name())
	}
}

type row struct {
	key   string
	order int
	value float64
}

func TestPartitionFirstSeenOrder(t *testing.T) {
	rows := []row{{key: "b"}, {key: "a"}, {key: "b"}, {key: "c"}, {key: "a"}}

	groups := Partition(rows, func(r row) string { return r.key })

	require.Len(t, groups, 3)
	assert.Equal(t, Group[string]{Key: "b", Rows: []int{0, 2}}, groups[0])
	assert.Equal(t, Group[string]{Key: "a", Rows: []int{1, 4}}, groups[1])
	assert.Equal(t, Group[string]{Key: "c", Rows: []int{3}}, groups[2])
}

func TestWindowWritesBackByIndex(t *testing.T) {
	// interleaved and out of order within each key
	rows := []row{
		{key: "x", order: 2, value: 20},
		{key: "y", order: 1, value: 100},
		{key: "x", order: 1, value: 10},
		{key: "y", order: 2, value: 200},
		{key: "x", order: 3, value: 30},
	}

	running := func(ordered []row) []float64 {
		out := make([]float64, len(ordered))
		var sum float64
		for i, r := range ordered {
			sum += r.value
			out[i] = sum
		}
		return out
	}

	for _, ex := range executors() {
		t.Run(ex.Name(), func(t *testing.T) {
			got, err := Window(context.Background(), ex, rows,
				func(r row) string { return r.key },
				func(a, b row) bool { return a.order < b.order },
				running,
			)
			require.NoError(t, err)
			assert.Equal(t, []float64{30, 100, 10, 300, 60}, got)
		})
	}
}

func TestAggregateRoutesWholeGroups(t *testing.T) {
	rows := make([]row, 0, 300)
	for i := 0; i < 300; i++ {
		rows = append(rows, row{key: string(rune('a' + i%3)), value: float64(i)})
	}

	for _, ex := range executors() {
		t.Run(ex.Name(), func(t *testing.T) {
			got, err := Aggregate(context.Background(), ex, rows,
				func(r row) string { return r.key },
				func(k string, g []row) [2]float64 {
					var sum float64
					for _, r := range g {
						sum += r.value
					}
					return [2]float64{float64(len(g)), sum}
				},
			)
			require.NoError(t, err)
			require.Len(t, got, 3)
			for _, agg := range got {
				assert.Equal(t, 100.0, agg[0])
			}
			// sum of 0..299 split into residues 0, 1 and 2 mod 3
			assert.Equal(t, 14850.0, got[0][1])
			assert.Equal(t, 14950.0, got[1][1])
			assert.Equal(t, 15050.0, got[2][1])
		})
	}
}

func TestLeftJoinKeepsCardinality(t *testing.T) {
	left := []row{{key: "a", value: 1}, {key: "z", value: 2}, {key: "b", value: 3}, {key: "a", value: 4}}
	right := []row{{key: "a", value: 10}, {key: "b", value: 20}, {key: "a", value: 99}}

	for _, ex := range executors() {
		t.Run(ex.Name(), func(t *testing.T) {
			got, err := LeftJoin(context.Background(), ex, left, right,
				func(r row) string { return r.key },
				func(r row) string { return r.key },
				func(l row, r *row) *float64 {
					if r == nil {
						return nil
					}
					v := r.value
					return &v
				},
				2,
			)
			require.NoError(t, err)
			require.Len(t, got, len(left))
			assert.Equal(t, 10.0, *got[0])
			assert.Nil(t, got[1])
			assert.Equal(t, 20.0, *got[2])
			assert.Equal(t, 10.0, *got[3])
		})
	}
}

func TestFilterPreservesOrder(t *testing.T) {
	rows := make([]int, 10000)
	for i := range rows {
		rows[i] = i
	}

	for _, ex := range executors() {
		t.Run(ex.Name(), func(t *testing.T) {
			got, err := Filter(context.Background(), ex, rows, func(v int) bool { return v%3 == 0 }, 128)
			require.NoError(t, err)
			require.Len(t, got, 3334)
			for i := 1; i < len(got); i++ {
				assert.Less(t, got[i-1], got[i])
			}
		})
	}
}

func TestNilExecutor(t *testing.T) {
	_, err := Filter[int](context.Background(), nil, []int{1}, func(int) bool { return true }, 0)
	assert.Error(t, err)
}

func TestChunks(t *testing.T) {
	assert.Equal(t, []span{{0, 4}, {4, 8}, {8, 10}}, chunks(10, 4))
	assert.Empty(t, chunks(0, 4))
	assert.Len(t, chunks(DefaultChunkSize+1, 0), 2)
}
