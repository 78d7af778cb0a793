package weather

import (
	"math/rand/v2"
	"time"
)

const (
	// DaysPerYear ignores leap days; a ten year run covers 3650 consecutive days.
	DaysPerYear = 365

	// NoiseStdDev is the standard deviation of the Gaussian noise added to
	// every synthetic observation.
	NoiseStdDev = 5.0
)

// GenerationStart is the first day of every synthetic series.
var GenerationStart = time.Date(2010, time.January, 1, 0, 0, 0, 0, time.UTC)

// Generator produces synthetic daily temperature series.
type Generator struct {
	climate Climate
	rng     *rand.Rand
	start   time.Time
}

// NewGenerator returns a generator over the given climate table. A zero seed
// picks a time based seed.
func NewGenerator(climate Climate, seed uint64) *Generator {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Generator{
		climate: climate,
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		start:   GenerationStart,
	}
}

// Generate returns DaysPerYear*years records per city in city-major order,
// chronological within each city. An unknown city aborts generation with a
// *GenerationError before any record is produced.
func (g *Generator) Generate(cities []string, years int) ([]Record, error) {
	if years <= 0 {
		return nil, nil
	}
	days := DaysPerYear * years

	means := make([]SeasonalMeans, len(cities))
	for i, city := range cities {
		m := make(SeasonalMeans, len(Seasons))
		for _, season := range Seasons {
			mean, err := g.climate.Mean(city, season)
			if err != nil {
				return nil, err
			}
			m[season] = mean
		}
		means[i] = m
	}

	records := make([]Record, 0, len(cities)*days)
	for i, city := range cities {
		for d := 0; d < days; d++ {
			ts := g.start.AddDate(0, 0, d)
			mean := means[i][SeasonForMonth(ts.Month())]
			records = append(records, NewRecord(city, ts, g.rng.NormFloat64()*NoiseStdDev+mean))
		}
	}
	return records, nil
}
