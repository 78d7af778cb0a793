package weather

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeasonForMonth(t *testing.T) {
	tests := []struct {
		month time.Month
		want  Season
	}{
		{time.December, SeasonWinter},
		{time.January, SeasonWinter},
		{time.February, SeasonWinter},
		{time.March, SeasonSpring},
		{time.April, SeasonSpring},
		{time.May, SeasonSpring},
		{time.June, SeasonSummer},
		{time.July, SeasonSummer},
		{time.August, SeasonSummer},
		{time.September, SeasonAutumn},
		{time.October, SeasonAutumn},
		{time.November, SeasonAutumn},
	}

	for _, tt := range tests {
		t.Run(tt.month.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, SeasonForMonth(tt.month))
		})
	}
}

func TestParseSeason(t *testing.T) {
	s, err := ParseSeason("summer")
	require.NoError(t, err)
	assert.Equal(t, SeasonSummer, s)

	_, err = ParseSeason("monsoon")
	assert.Error(t, err)
}

func TestNewRecordNormalisesTimestamp(t *testing.T) {
	r := NewRecord("Berlin", time.Date(2015, time.July, 4, 13, 30, 0, 0, time.UTC), 21.5)

	assert.Equal(t, time.Date(2015, time.July, 4, 0, 0, 0, 0, time.UTC), r.Timestamp)
	assert.Equal(t, SeasonSummer, r.Season)
	assert.Equal(t, StatusUnknown, r.Status)
	assert.Nil(t, r.MovingAverage)
	assert.Nil(t, r.SeasonalMean)
}

func TestRecordUndefinedDerivedFields(t *testing.T) {
	r := NewRecord("Berlin", GenerationStart, 1)

	_, err := r.Smoothed()
	assert.ErrorIs(t, err, ErrInsufficientWindow)

	_, err = r.IsAnomaly()
	assert.ErrorIs(t, err, ErrUnknownAnomaly)

	avg := 3.25
	r.MovingAverage = &avg
	got, err := r.Smoothed()
	require.NoError(t, err)
	assert.Equal(t, 3.25, got)

	r.Status = StatusAnomalous
	anomalous, err := r.IsAnomaly()
	require.NoError(t, err)
	assert.True(t, anomalous)

	r.Status = StatusNormal
	anomalous, err = r.IsAnomaly()
	require.NoError(t, err)
	assert.False(t, anomalous)
}

func TestSeasonOrder(t *testing.T) {
	assert.Less(t, SeasonWinter.Order(), SeasonSpring.Order())
	assert.Less(t, SeasonSpring.Order(), SeasonSummer.Order())
	assert.Less(t, SeasonSummer.Order(), SeasonAutumn.Order())
	assert.Equal(t, len(Seasons), Season("monsoon").Order())
}

func TestSeasonalStatJSONWithNaNStd(t *testing.T) {
	stat := SeasonalStat{City: "Berlin", Season: SeasonSpring, Count: 1, Mean: 3, Std: math.NaN(), Min: 3, Max: 3}

	b, err := json.Marshal(stat)
	require.NoError(t, err)
	assert.JSONEq(t, `{"city":"Berlin","season":"spring","count":1,"mean":3,"std":null,"min":3,"max":3}`, string(b))
}
