package weather

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

// Season is a meteorological season derived from the calendar month alone.
// Hemisphere is not modelled.
type Season string

const (
	SeasonWinter Season = "winter"
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonAutumn Season = "autumn"
)

// Seasons lists every season in display order.
var Seasons = []Season{SeasonWinter, SeasonSpring, SeasonSummer, SeasonAutumn}

// SeasonForMonth maps a month onto its season.
// 12,1,2 winter; 3,4,5 spring; 6,7,8 summer; 9,10,11 autumn.
func SeasonForMonth(m time.Month) Season {
	switch m {
	case time.December, time.January, time.February:
		return SeasonWinter
	case time.March, time.April, time.May:
		return SeasonSpring
	case time.June, time.July, time.August:
		return SeasonSummer
	default:
		return SeasonAutumn
	}
}

// ParseSeason validates a season name.
func ParseSeason(s string) (Season, error) {
	for _, season := range Seasons {
		if string(season) == s {
			return season, nil
		}
	}
	return "", fmt.Errorf("unknown season %q", s)
}

// Order returns the position of the season in Seasons.
func (s Season) Order() int {
	for i, season := range Seasons {
		if season == s {
			return i
		}
	}
	return len(Seasons)
}

// AnomalyStatus is the tri-state outcome of flagging a record.
type AnomalyStatus string

const (
	StatusUnknown   AnomalyStatus = "unknown"
	StatusNormal    AnomalyStatus = "normal"
	StatusAnomalous AnomalyStatus = "anomalous"
)

var (
	// ErrInsufficientWindow is returned when a moving average is requested for a
	// position with fewer observations than the window requires.
	ErrInsufficientWindow = errors.New("insufficient observations for moving average")

	// ErrUnknownAnomaly is returned when a record has no joined seasonal mean.
	ErrUnknownAnomaly = errors.New("anomaly status unknown: seasonal mean missing")
)

// Record is one daily temperature observation for a city plus the fields the
// analysis pipeline derives from it.
type Record struct {
	City        string    `json:"city"`
	Timestamp   time.Time `json:"timestamp"` // UTC midnight
	Temperature float64   `json:"temperature"`
	Season      Season    `json:"season"`

	MovingAverage *float64      `json:"movingAverage"`
	SeasonalMean  *float64      `json:"seasonalMean"`
	Status        AnomalyStatus `json:"status"`
}

// NewRecord builds a record and derives its season from the timestamp.
func NewRecord(city string, ts time.Time, temperature float64) Record {
	day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	return Record{
		City:        city,
		Timestamp:   day,
		Temperature: temperature,
		Season:      SeasonForMonth(day.Month()),
		Status:      StatusUnknown,
	}
}

// Key returns the (city, season) join key of the record.
func (r Record) Key() GroupKey {
	return GroupKey{City: r.City, Season: r.Season}
}

// Smoothed returns the moving average or ErrInsufficientWindow.
func (r Record) Smoothed() (float64, error) {
	if r.MovingAverage == nil {
		return 0, ErrInsufficientWindow
	}
	return *r.MovingAverage, nil
}

// IsAnomaly reports whether the record is anomalous. It returns
// ErrUnknownAnomaly instead of guessing when no seasonal mean was joined.
func (r Record) IsAnomaly() (bool, error) {
	switch r.Status {
	case StatusAnomalous:
		return true, nil
	case StatusNormal:
		return false, nil
	default:
		return false, ErrUnknownAnomaly
	}
}

// GroupKey identifies one (city, season) group.
type GroupKey struct {
	City   string `json:"city"`
	Season Season `json:"season"`
}

func (k GroupKey) String() string {
	return k.City + ":" + string(k.Season)
}

// SeasonalStat holds aggregate temperature statistics for one (city, season).
// Std is the sample standard deviation and is NaN for a single observation.
type SeasonalStat struct {
	City   string  `json:"city"`
	Season Season  `json:"season"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Key returns the (city, season) key of the stat row.
func (s SeasonalStat) Key() GroupKey {
	return GroupKey{City: s.City, Season: s.Season}
}

// MarshalJSON writes non-finite values (a single-sample Std) as null.
func (s SeasonalStat) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		City   string   `json:"city"`
		Season Season   `json:"season"`
		Count  int      `json:"count"`
		Mean   *float64 `json:"mean"`
		Std    *float64 `json:"std"`
		Min    *float64 `json:"min"`
		Max    *float64 `json:"max"`
	}{
		City:   s.City,
		Season: s.Season,
		Count:  s.Count,
		Mean:   finite(s.Mean),
		Std:    finite(s.Std),
		Min:    finite(s.Min),
		Max:    finite(s.Max),
	})
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// MissingKey describes records whose (city, season) had no stat row at join time.
type MissingKey struct {
	Key     GroupKey `json:"key"`
	Records int      `json:"records"`
}
