package analysis

import (
	"context"
	"fmt"

	"github.com/i474232898/temperature-anomalies/internal/engine"
	"github.com/i474232898/temperature-anomalies/internal/weather"
)

// WindowSize is the number of trailing observations in a moving average.
const WindowSize = 30

// Smooth returns the trailing moving average of an ordered series. Position i
// averages values[i-window+1..i]; positions with fewer than window
// observations are nil.
func Smooth(values []float64, window int) []*float64 {
	out := make([]*float64, len(values))
	if window <= 0 {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		var sum float64
		for _, v := range values[i-window+1 : i+1] {
			sum += v
		}
		avg := sum / float64(window)
		out[i] = &avg
	}
	return out
}

// SmoothRecords computes the moving average of every record within its own
// city, in timestamp order. The returned slice is aligned with records and the
// input is not modified.
func SmoothRecords(ctx context.Context, ex engine.Executor, records []weather.Record, window int) ([]weather.Record, error) {
	averages, err := engine.Window(ctx, ex, records,
		func(r weather.Record) string { return r.City },
		func(a, b weather.Record) bool { return a.Timestamp.Before(b.Timestamp) },
		func(ordered []weather.Record) []*float64 {
			temps := make([]float64, len(ordered))
			for i, r := range ordered {
				temps[i] = r.Temperature
			}
			return Smooth(temps, window)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("smooth: %w", err)
	}

	out := make([]weather.Record, len(records))
	for i, r := range records {
		r.MovingAverage = averages[i]
		out[i] = r
	}
	return out, nil
}
