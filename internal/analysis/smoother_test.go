package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/temperature-anomalies/internal/engine"
	"github.com/i474232898/temperature-anomalies/internal/weather"
)

func TestSmoothWindowDefinition(t *testing.T) {
	values := make([]float64, 40)
	for i := range values {
		values[i] = float64(i + 1)
	}

	got := Smooth(values, WindowSize)
	require.Len(t, got, 40)

	for i := 0; i < WindowSize-1; i++ {
		assert.Nil(t, got[i], "position %d", i)
	}
	// mean of 1..30
	require.NotNil(t, got[29])
	assert.InDelta(t, 15.5, *got[29], 1e-12)
	// mean of 11..40
	require.NotNil(t, got[39])
	assert.InDelta(t, 25.5, *got[39], 1e-12)
}

func TestSmoothShortSeries(t *testing.T) {
	got := Smooth([]float64{1, 2, 3}, WindowSize)
	for _, v := range got {
		assert.Nil(t, v)
	}
	assert.Empty(t, Smooth(nil, WindowSize))
}

func TestSmoothRecordsPerCity(t *testing.T) {
	start := weather.GenerationStart
	var records []weather.Record
	// interleave two cities so a naive window over the whole table would mix them
	for d := 0; d < 35; d++ {
		ts := start.AddDate(0, 0, d)
		records = append(records, weather.NewRecord("Hot", ts, 30))
		records = append(records, weather.NewRecord("Cold", ts, -10))
	}

	for _, ex := range []engine.Executor{engine.NewSequential(), engine.NewParallel(4)} {
		t.Run(ex.Name(), func(t *testing.T) {
			got, err := SmoothRecords(context.Background(), ex, records, WindowSize)
			require.NoError(t, err)
			require.Len(t, got, len(records))

			for i, r := range got {
				day := i / 2
				if day < WindowSize-1 {
					assert.Nil(t, r.MovingAverage)
					continue
				}
				require.NotNil(t, r.MovingAverage)
				if r.City == "Hot" {
					assert.Equal(t, 30.0, *r.MovingAverage)
				} else {
					assert.Equal(t, -10.0, *r.MovingAverage)
				}
			}
			// input untouched
			assert.Nil(t, records[len(records)-1].MovingAverage)
		})
	}
}

func TestSmoothRecordsOrdersByTimestamp(t *testing.T) {
	start := weather.GenerationStart
	var records []weather.Record
	// reversed chronological order
	for d := WindowSize; d >= 0; d-- {
		records = append(records, weather.NewRecord("Berlin", start.Add(time.Duration(d)*24*time.Hour), float64(d)))
	}

	got, err := SmoothRecords(context.Background(), engine.NewSequential(), records, WindowSize)
	require.NoError(t, err)

	// the latest day is at index 0 and averages days 1..30
	require.NotNil(t, got[0].MovingAverage)
	assert.InDelta(t, 15.5, *got[0].MovingAverage, 1e-12)
	// the earliest day is last and has no full window
	assert.Nil(t, got[len(got)-1].MovingAverage)
}
