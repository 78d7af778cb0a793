package weather

import (
	"context"
	"fmt"
	"time"
)

// Reading is a single live temperature observation from a provider.
type Reading struct {
	ProviderName string
	City         string
	Timestamp    time.Time
	TemperatureC float64
}

// LiveProvider abstracts a current-weather source (e.g. OpenWeatherMap, WeatherAPI).
type LiveProvider interface {
	Name() string
	Current(ctx context.Context, city string) (Reading, error)
}

// FetchError is returned by providers for every failed lookup: transport
// errors, non-2xx statuses, malformed bodies and missing temperature fields.
type FetchError struct {
	Provider   string
	City       string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: fetch %q failed with status %d: %v", e.Provider, e.City, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: fetch %q failed: %v", e.Provider, e.City, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// GenerationError is returned when synthetic data is requested for a city
// missing from the climate table.
type GenerationError struct {
	City string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("no seasonal means for city %q", e.City)
}
