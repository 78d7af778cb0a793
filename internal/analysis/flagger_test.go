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

func ptr(v float64) *float64 { return &v }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		temp float64
		mean *float64
		want weather.AnomalyStatus
	}{
		{"above threshold", 13.5, ptr(10), weather.StatusAnomalous},
		{"below threshold", 6.5, ptr(10), weather.StatusAnomalous},
		{"within threshold", 11, ptr(10), weather.StatusNormal},
		{"exactly threshold", 12, ptr(10), weather.StatusNormal},
		{"missing mean", 50, nil, weather.StatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.temp, tt.mean))
		})
	}
}

func TestFlagLeftJoin(t *testing.T) {
	day := time.Date(2010, time.April, 10, 0, 0, 0, 0, time.UTC)
	records := []weather.Record{
		weather.NewRecord("Berlin", day, 13.5),
		weather.NewRecord("Atlantis", day, 20),
		weather.NewRecord("Berlin", day.AddDate(0, 0, 1), 11),
		weather.NewRecord("Atlantis", day.AddDate(0, 0, 1), 21),
	}
	stats := []weather.SeasonalStat{{City: "Berlin", Season: weather.SeasonSpring, Count: 2, Mean: 10}}

	for _, ex := range []engine.Executor{engine.NewSequential(), engine.NewParallel(2)} {
		t.Run(ex.Name(), func(t *testing.T) {
			got, missing, err := Flag(context.Background(), ex, records, stats)
			require.NoError(t, err)
			require.Len(t, got, len(records))

			assert.Equal(t, weather.StatusAnomalous, got[0].Status)
			assert.Equal(t, 10.0, *got[0].SeasonalMean)
			assert.Equal(t, weather.StatusUnknown, got[1].Status)
			assert.Nil(t, got[1].SeasonalMean)
			assert.Equal(t, weather.StatusNormal, got[2].Status)
			assert.Equal(t, weather.StatusUnknown, got[3].Status)

			_, err = got[1].IsAnomaly()
			assert.ErrorIs(t, err, weather.ErrUnknownAnomaly)

			require.Len(t, missing, 1)
			assert.Equal(t, weather.MissingKey{
				Key:     weather.GroupKey{City: "Atlantis", Season: weather.SeasonSpring},
				Records: 2,
			}, missing[0])
		})
	}
}

func TestFlagCardinalityWithGeneratedData(t *testing.T) {
	records, err := weather.NewGenerator(weather.DefaultClimate, 5).Generate([]string{"London", "Tokyo"}, 1)
	require.NoError(t, err)

	stats, err := Aggregate(context.Background(), engine.NewSequential(), records)
	require.NoError(t, err)

	got, missing, err := Flag(context.Background(), engine.NewParallel(4), records, stats)
	require.NoError(t, err)
	assert.Len(t, got, len(records))
	assert.Empty(t, missing)
	for i, r := range got {
		assert.Equal(t, records[i].City, r.City)
		assert.Equal(t, records[i].Timestamp, r.Timestamp)
		assert.NotEqual(t, weather.StatusUnknown, r.Status)
	}
}
