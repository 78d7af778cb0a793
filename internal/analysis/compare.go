package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/i474232898/temperature-anomalies/internal/weather"
)

// Verdict is the outcome of comparing a live reading with history.
type Verdict string

const (
	VerdictNormal      Verdict = "normal"
	VerdictAnomalous   Verdict = "anomalous"
	VerdictUnavailable Verdict = "unavailable"
)

// ErrNoSeasonalMean is returned when the stats table has no row for the
// requested (city, season).
var ErrNoSeasonalMean = errors.New("no seasonal mean for city and season")

var errNoProvider = errors.New("no live weather provider configured")

// Comparison is a live reading checked against the historical seasonal mean.
// Current and Difference are nil when the verdict is unavailable.
type Comparison struct {
	City           string         `json:"city"`
	Season         weather.Season `json:"season"`
	HistoricalMean float64        `json:"historicalMean"`
	Provider       string         `json:"provider,omitempty"`
	Current        *float64       `json:"current"`
	Difference     *float64       `json:"difference"`
	Verdict        Verdict        `json:"verdict"`
	Error          string         `json:"error,omitempty"`
	CheckedAt      time.Time      `json:"checkedAt"`
}

// Judge returns the verdict for a historical mean and a current temperature.
func Judge(historical, current float64) Verdict {
	if math.Abs(historical-current) > AnomalyThreshold {
		return VerdictAnomalous
	}
	return VerdictNormal
}

// CompareLive fetches the current temperature of city and compares it with
// the (city, season) mean from stats. A failed fetch is not an error: the
// comparison comes back with VerdictUnavailable and the failure text. The
// only error is a missing stat row.
func CompareLive(
	ctx context.Context,
	provider weather.LiveProvider,
	stats []weather.SeasonalStat,
	city string,
	season weather.Season,
	now time.Time,
) (Comparison, error) {
	stat, ok := FindStat(stats, city, season)
	if !ok {
		return Comparison{}, fmt.Errorf("%w: %s %s", ErrNoSeasonalMean, city, season)
	}

	cmp := Comparison{
		City:           city,
		Season:         season,
		HistoricalMean: stat.Mean,
		CheckedAt:      now.UTC(),
	}

	if provider == nil {
		cmp.Verdict = VerdictUnavailable
		cmp.Error = errNoProvider.Error()
		return cmp, nil
	}
	cmp.Provider = provider.Name()

	reading, err := provider.Current(ctx, city)
	if err != nil {
		cmp.Verdict = VerdictUnavailable
		cmp.Error = err.Error()
		return cmp, nil
	}

	current := reading.TemperatureC
	diff := math.Abs(stat.Mean - current)
	cmp.Current = &current
	cmp.Difference = &diff
	cmp.Verdict = Judge(stat.Mean, current)
	return cmp, nil
}
