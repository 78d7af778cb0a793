package analysis

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/i474232898/temperature-anomalies/internal/engine"
	"github.com/i474232898/temperature-anomalies/internal/weather"
)

// AnomalyThreshold is the absolute deviation in °C from the seasonal mean
// above which a temperature is anomalous. Exactly 2.0 is normal.
const AnomalyThreshold = 2.0

// Classify returns the anomaly status of a temperature against a seasonal
// mean. A nil mean yields StatusUnknown.
func Classify(temperature float64, mean *float64) weather.AnomalyStatus {
	if mean == nil || math.IsNaN(*mean) {
		return weather.StatusUnknown
	}
	if math.Abs(temperature-*mean) > AnomalyThreshold {
		return weather.StatusAnomalous
	}
	return weather.StatusNormal
}

// Flag left-joins each record with the mean of its (city, season) stat row and
// classifies it. The output has exactly one record per input record, in input
// order. Keys with no stat row are reported as missing and their records keep
// StatusUnknown.
func Flag(ctx context.Context, ex engine.Executor, records []weather.Record, stats []weather.SeasonalStat) ([]weather.Record, []weather.MissingKey, error) {
	flagged, err := engine.LeftJoin(ctx, ex, records, stats,
		func(r weather.Record) weather.GroupKey { return r.Key() },
		func(s weather.SeasonalStat) weather.GroupKey { return s.Key() },
		func(r weather.Record, s *weather.SeasonalStat) weather.Record {
			if s == nil {
				r.SeasonalMean = nil
				r.Status = weather.StatusUnknown
				return r
			}
			mean := s.Mean
			r.SeasonalMean = &mean
			r.Status = Classify(r.Temperature, r.SeasonalMean)
			return r
		},
		engine.DefaultChunkSize,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("flag: %w", err)
	}

	return flagged, missingKeys(flagged), nil
}

func missingKeys(records []weather.Record) []weather.MissingKey {
	counts := make(map[weather.GroupKey]int)
	for _, r := range records {
		if r.SeasonalMean == nil {
			counts[r.Key()]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	out := make([]weather.MissingKey, 0, len(counts))
	for k, n := range counts {
		out = append(out, weather.MissingKey{Key: k, Records: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.City != out[j].Key.City {
			return out[i].Key.City < out[j].Key.City
		}
		return out[i].Key.Season.Order() < out[j].Key.Season.Order()
	})
	return out
}
