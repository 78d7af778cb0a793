package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/i474232898/temperature-anomalies/internal/metrics"
	"github.com/i474232898/temperature-anomalies/internal/weather"
)

// Snapshot is the full result of analyzing one record set under both engines.
type Snapshot struct {
	GeneratedAt time.Time        `json:"generatedAt"`
	Records     int              `json:"records"`
	Sequential  *Report          `json:"sequential"`
	Parallel    *Report          `json:"parallel"`
	Timing      TimingComparison `json:"timing"`
	Comparison  *Comparison      `json:"comparison"`
}

// Report returns the report of the named engine.
func (s Snapshot) Report(engine string) (*Report, bool) {
	switch {
	case s.Sequential != nil && s.Sequential.Engine == engine:
		return s.Sequential, true
	case s.Parallel != nil && s.Parallel.Engine == engine:
		return s.Parallel, true
	}
	return nil, false
}

// Store keeps the latest snapshot.
type Store interface {
	Save(snapshot Snapshot)
	Latest() (Snapshot, error)
}

// ServiceConfig holds the workload and comparison settings.
type ServiceConfig struct {
	Climate       weather.Climate
	Cities        []string
	Years         int
	Seed          uint64
	CompareCity   string
	CompareSeason weather.Season // empty: season of the current date
}

// Service orchestrates generation, both pipelines, the live comparison and the store.
type Service struct {
	cfg        ServiceConfig
	sequential *Pipeline
	parallel   *Pipeline
	provider   weather.LiveProvider
	store      Store
	logger     logrus.FieldLogger
	metrics    *metrics.Collector
	clock      clockwork.Clock
}

// NewService creates a new Service. provider and store may be nil.
func NewService(
	cfg ServiceConfig,
	sequential, parallel *Pipeline,
	provider weather.LiveProvider,
	store Store,
	logger logrus.FieldLogger,
	m *metrics.Collector,
	clock clockwork.Clock,
) *Service {
	if cfg.Climate == nil {
		cfg.Climate = weather.DefaultClimate
	}
	if len(cfg.Cities) == 0 {
		cfg.Cities = cfg.Climate.Cities()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = discardLogger()
	}
	return &Service{
		cfg:        cfg,
		sequential: sequential,
		parallel:   parallel,
		provider:   provider,
		store:      store,
		logger:     logger,
		metrics:    m,
		clock:      clock,
	}
}

// Generate produces the synthetic record set.
func (s *Service) Generate() ([]weather.Record, error) {
	records, err := weather.NewGenerator(s.cfg.Climate, s.cfg.Seed).Generate(s.cfg.Cities, s.cfg.Years)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"cities":  len(s.cfg.Cities),
		"years":   s.cfg.Years,
		"records": len(records),
	}).Info("synthetic data generated")
	return records, nil
}

// Analyze runs both pipelines over records, times them, runs the live
// comparison and stores the snapshot. A failed live lookup never fails
// Analyze.
func (s *Service) Analyze(ctx context.Context, records []weather.Record) (Snapshot, error) {
	snap := Snapshot{
		GeneratedAt: s.clock.Now().UTC(),
		Records:     len(records),
	}

	seqDur, err := Measure(ctx, s.clock, func(ctx context.Context) (err error) {
		snap.Sequential, err = s.sequential.Run(ctx, records)
		return err
	})
	if err != nil {
		return Snapshot{}, err
	}

	parDur, err := Measure(ctx, s.clock, func(ctx context.Context) (err error) {
		snap.Parallel, err = s.parallel.Run(ctx, records)
		return err
	})
	if err != nil {
		return Snapshot{}, err
	}

	snap.Timing = CompareTimings(seqDur, parDur)
	s.logger.WithFields(logrus.Fields{
		"sequential_ms": seqDur.Milliseconds(),
		"parallel_ms":   parDur.Milliseconds(),
		"speedup":       snap.Timing.Speedup,
	}).Info("engine timing compared")

	if s.cfg.CompareCity != "" {
		cmp, err := s.compare(ctx, snap.Sequential.Stats)
		if err != nil {
			s.logger.WithError(err).Warn("live comparison skipped")
		} else {
			snap.Comparison = &cmp
		}
	}

	if s.store != nil {
		s.store.Save(snap)
	}
	return snap, nil
}

// Refresh generates a new record set and analyzes it.
func (s *Service) Refresh(ctx context.Context) (Snapshot, error) {
	records, err := s.Generate()
	if err != nil {
		return Snapshot{}, err
	}
	return s.Analyze(ctx, records)
}

// Latest returns the most recently stored snapshot.
func (s *Service) Latest() (Snapshot, error) {
	if s.store == nil {
		return Snapshot{}, errors.New("no store configured")
	}
	return s.store.Latest()
}

// CompareSeason returns the configured comparison season, or the season of
// the current date.
func (s *Service) CompareSeason() weather.Season {
	if s.cfg.CompareSeason != "" {
		return s.cfg.CompareSeason
	}
	return weather.SeasonForMonth(s.clock.Now().UTC().Month())
}

func (s *Service) compare(ctx context.Context, stats []weather.SeasonalStat) (Comparison, error) {
	season := s.CompareSeason()
	log := s.logger.WithFields(logrus.Fields{
		"city":   s.cfg.CompareCity,
		"season": season,
	})

	timer := metrics.NewTimer(s.clock, s.fetchObserver())
	cmp, err := CompareLive(ctx, s.provider, stats, s.cfg.CompareCity, season, s.clock.Now())
	timer.ObserveDuration()
	if err != nil {
		return Comparison{}, err
	}

	if cmp.Verdict == VerdictUnavailable {
		if s.metrics != nil && cmp.Provider != "" {
			s.metrics.RecordFetchError(cmp.Provider)
		}
		log.WithField("error", cmp.Error).Warn("live temperature unavailable")
		return cmp, nil
	}

	log.WithFields(logrus.Fields{
		"provider":   cmp.Provider,
		"historical": cmp.HistoricalMean,
		"current":    *cmp.Current,
		"verdict":    cmp.Verdict,
	}).Info("live temperature compared")
	return cmp, nil
}

func (s *Service) fetchObserver() prometheus.Observer {
	if s.metrics == nil || s.provider == nil {
		return nil
	}
	return s.metrics.FetchDuration.WithLabelValues(s.provider.Name())
}
