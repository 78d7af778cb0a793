package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/i474232898/temperature-anomalies/internal/engine"
	"github.com/i474232898/temperature-anomalies/internal/weather"
)

var (
	// ErrNoRecords is returned when there is nothing to aggregate.
	ErrNoRecords = errors.New("no records to aggregate")

	// ErrNonFiniteMean is returned when a group holds NaN or infinite
	// temperatures, which would leave every record of the group unclassifiable.
	ErrNonFiniteMean = errors.New("seasonal mean is not finite")
)

// Summarize computes count, mean, sample standard deviation, min and max of
// one group. The variance uses a second pass over the deviations from the
// mean. Std is NaN for a single observation.
func Summarize(key weather.GroupKey, temps []float64) weather.SeasonalStat {
	stat := weather.SeasonalStat{
		City:   key.City,
		Season: key.Season,
		Count:  len(temps),
		Mean:   math.NaN(),
		Std:    math.NaN(),
		Min:    math.NaN(),
		Max:    math.NaN(),
	}
	if len(temps) == 0 {
		return stat
	}

	var sum float64
	lo, hi := temps[0], temps[0]
	for _, t := range temps {
		sum += t
		if t < lo {
			lo = t
		}
		if t > hi {
			hi = t
		}
	}
	mean := sum / float64(len(temps))
	stat.Mean, stat.Min, stat.Max = mean, lo, hi

	if len(temps) > 1 {
		var ss float64
		for _, t := range temps {
			d := t - mean
			ss += d * d
		}
		stat.Std = math.Sqrt(ss / float64(len(temps)-1))
	}
	return stat
}

// Aggregate groups records by (city, season) and summarizes each group's
// temperatures. Rows are sorted by city, then by season order.
func Aggregate(ctx context.Context, ex engine.Executor, records []weather.Record) ([]weather.SeasonalStat, error) {
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	stats, err := engine.Aggregate(ctx, ex, records,
		func(r weather.Record) weather.GroupKey { return r.Key() },
		func(key weather.GroupKey, group []weather.Record) weather.SeasonalStat {
			temps := make([]float64, len(group))
			for i, r := range group {
				temps[i] = r.Temperature
			}
			return Summarize(key, temps)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	for _, s := range stats {
		if math.IsNaN(s.Mean) || math.IsInf(s.Mean, 0) {
			return nil, fmt.Errorf("aggregate: %w: %s", ErrNonFiniteMean, s.Key())
		}
	}

	SortStats(stats)
	return stats, nil
}

// SortStats orders stat rows by city, then winter, spring, summer, autumn.
func SortStats(stats []weather.SeasonalStat) {
	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].City != stats[j].City {
			return stats[i].City < stats[j].City
		}
		return stats[i].Season.Order() < stats[j].Season.Order()
	})
}

// FindStat returns the stat row for (city, season).
func FindStat(stats []weather.SeasonalStat, city string, season weather.Season) (weather.SeasonalStat, bool) {
	for _, s := range stats {
		if s.City == city && s.Season == season {
			return s, true
		}
	}
	return weather.SeasonalStat{}, false
}
