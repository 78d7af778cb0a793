package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/temperature-anomalies/internal/weather"
)

type stubProvider struct {
	name  string
	temp  float64
	err   error
	calls int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Current(ctx context.Context, city string) (weather.Reading, error) {
	s.calls++
	if s.err != nil {
		return weather.Reading{}, s.err
	}
	return weather.Reading{ProviderName: s.name, City: city, Timestamp: time.Now().UTC(), TemperatureC: s.temp}, nil
}

var berlinStats = []weather.SeasonalStat{
	{City: "Berlin", Season: weather.SeasonSpring, Count: 900, Mean: 10},
	{City: "Berlin", Season: weather.SeasonSummer, Count: 900, Mean: 20},
}

func TestCompareLiveBerlin(t *testing.T) {
	now := time.Date(2026, time.April, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		current     float64
		wantVerdict Verdict
		wantDiff    float64
	}{
		{"anomalous difference", 13.5, VerdictAnomalous, 3.5},
		{"normal difference", 11.0, VerdictNormal, 1.0},
		{"colder anomaly", 6.0, VerdictAnomalous, 4.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &stubProvider{name: "stub", temp: tt.current}

			cmp, err := CompareLive(context.Background(), p, berlinStats, "Berlin", weather.SeasonSpring, now)
			require.NoError(t, err)

			assert.Equal(t, tt.wantVerdict, cmp.Verdict)
			assert.Equal(t, 10.0, cmp.HistoricalMean)
			require.NotNil(t, cmp.Current)
			assert.Equal(t, tt.current, *cmp.Current)
			require.NotNil(t, cmp.Difference)
			assert.InDelta(t, tt.wantDiff, *cmp.Difference, 1e-12)
			assert.Equal(t, "stub", cmp.Provider)
			assert.Equal(t, now, cmp.CheckedAt)
			assert.Empty(t, cmp.Error)
		})
	}
}

func TestCompareLiveFetchFailure(t *testing.T) {
	p := &stubProvider{
		name: "stub",
		err:  &weather.FetchError{Provider: "stub", City: "Berlin", StatusCode: 500, Err: errors.New("server error")},
	}

	cmp, err := CompareLive(context.Background(), p, berlinStats, "Berlin", weather.SeasonSpring, time.Now())
	require.NoError(t, err)

	assert.Equal(t, VerdictUnavailable, cmp.Verdict)
	assert.Nil(t, cmp.Current)
	assert.Nil(t, cmp.Difference)
	assert.Contains(t, cmp.Error, "500")
}

func TestCompareLiveNoProvider(t *testing.T) {
	cmp, err := CompareLive(context.Background(), nil, berlinStats, "Berlin", weather.SeasonSummer, time.Now())
	require.NoError(t, err)
	assert.Equal(t, VerdictUnavailable, cmp.Verdict)
	assert.Equal(t, 20.0, cmp.HistoricalMean)
}

func TestCompareLiveMissingStat(t *testing.T) {
	p := &stubProvider{name: "stub", temp: 1}

	_, err := CompareLive(context.Background(), p, berlinStats, "Berlin", weather.SeasonWinter, time.Now())
	assert.ErrorIs(t, err, ErrNoSeasonalMean)
	assert.Zero(t, p.calls)
}

func TestJudge(t *testing.T) {
	assert.Equal(t, VerdictNormal, Judge(10, 12))
	assert.Equal(t, VerdictAnomalous, Judge(10, 12.0001))
}
