package main

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/i474232898/temperature-anomalies/internal/analysis"
	"github.com/i474232898/temperature-anomalies/internal/config"
	"github.com/i474232898/temperature-anomalies/internal/engine"
	"github.com/i474232898/temperature-anomalies/internal/metrics"
	"github.com/i474232898/temperature-anomalies/internal/store"
	"github.com/i474232898/temperature-anomalies/internal/weather"
	"github.com/i474232898/temperature-anomalies/internal/weather/providers"
)

// application holds the wired components shared by every command.
type application struct {
	cfg     *config.AppConfig
	logger  *logrus.Logger
	metrics *metrics.Collector
	store   *store.MemoryStore
	service *analysis.Service
}

func newApplication(cfg *config.AppConfig, logOut io.Writer) (*application, error) {
	logger, err := config.NewLogger(logOut, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	collector := metrics.NewCollector("temperature_anomalies")
	clock := clockwork.NewRealClock()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	provider, err := providers.New(cfg.LiveProvider, httpClient, cfg.OpenWeatherAPIKey, cfg.WeatherAPIKey)
	if err != nil {
		return nil, err
	}
	if cfg.APIKey() == "" {
		logger.WithField("provider", cfg.LiveProvider).Warn("live provider api key is not configured; comparison will be unavailable")
	}

	var season weather.Season
	if cfg.CompareSeason != "" {
		if season, err = weather.ParseSeason(cfg.CompareSeason); err != nil {
			return nil, err
		}
	}

	var pipelines [2]*analysis.Pipeline
	for i, name := range []string{engine.SequentialName, engine.ParallelName} {
		ex, err := engine.New(name, cfg.Workers)
		if err != nil {
			return nil, err
		}
		pipelines[i] = analysis.NewPipeline(ex, logger,
			analysis.WithMetrics(collector), analysis.WithClock(clock))
	}
	sequential, parallel := pipelines[0], pipelines[1]

	memStore := store.NewMemoryStore()

	service := analysis.NewService(
		analysis.ServiceConfig{
			Climate:       weather.DefaultClimate,
			Years:         cfg.Years,
			Seed:          cfg.Seed,
			CompareCity:   cfg.CompareCity,
			CompareSeason: season,
		},
		sequential, parallel, provider, memStore, logger, collector, clock,
	)

	return &application{
		cfg:     cfg,
		logger:  logger,
		metrics: collector,
		store:   memStore,
		service: service,
	}, nil
}

// exportCSV writes records to the configured snapshot path.
func (a *application) exportCSV(records []weather.Record) error {
	f, err := os.Create(a.cfg.CSVPath)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	if err := weather.WriteCSV(f, records); err != nil {
		f.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}

	a.logger.WithFields(logrus.Fields{
		"path":    a.cfg.CSVPath,
		"records": len(records),
	}).Info("snapshot exported")
	return nil
}

// importCSV reads a snapshot file.
func (a *application) importCSV(path string) ([]weather.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	records, err := weather.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}

	a.logger.WithFields(logrus.Fields{
		"path":    path,
		"records": len(records),
	}).Info("snapshot imported")
	return records, nil
}
