package analysis

import (
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/i474232898/temperature-anomalies/internal/engine"
	"github.com/i474232898/temperature-anomalies/internal/metrics"
	"github.com/i474232898/temperature-anomalies/internal/weather"
)

// Stage names used in logs, metrics and reports.
const (
	StageSmooth    = "smooth"
	StageAggregate = "aggregate"
	StageFlag      = "flag"
	StageFilter    = "filter"
)

// StageTiming is the duration of one pipeline stage.
type StageTiming struct {
	Stage    string        `json:"stage"`
	Duration time.Duration `json:"duration"`
}

// AnomalySummary counts record statuses for one (city, season).
type AnomalySummary struct {
	City      string         `json:"city"`
	Season    weather.Season `json:"season"`
	Anomalous int            `json:"anomalous"`
	Normal    int            `json:"normal"`
	Unknown   int            `json:"unknown"`
}

// Report is the outcome of one pipeline run.
type Report struct {
	RunID       string                        `json:"runId"`
	Engine      string                        `json:"engine"`
	StartedAt   time.Time                     `json:"startedAt"`
	Duration    time.Duration                 `json:"duration"`
	Stages      []StageTiming                 `json:"stages"`
	Records     []weather.Record              `json:"-"`
	Anomalies   []weather.Record              `json:"-"`
	Stats       []weather.SeasonalStat        `json:"stats"`
	MissingKeys []weather.MissingKey          `json:"missingKeys"`
	Counts      map[weather.AnomalyStatus]int `json:"counts"`
}

// Summary counts statuses per (city, season) in stat order, followed by any
// keys that had no stat row.
func (r *Report) Summary() []AnomalySummary {
	idx := make(map[weather.GroupKey]int)
	var out []AnomalySummary
	for _, s := range r.Stats {
		idx[s.Key()] = len(out)
		out = append(out, AnomalySummary{City: s.City, Season: s.Season})
	}
	for _, m := range r.MissingKeys {
		idx[m.Key] = len(out)
		out = append(out, AnomalySummary{City: m.Key.City, Season: m.Key.Season})
	}

	for _, rec := range r.Records {
		i, ok := idx[rec.Key()]
		if !ok {
			continue
		}
		switch rec.Status {
		case weather.StatusAnomalous:
			out[i].Anomalous++
		case weather.StatusNormal:
			out[i].Normal++
		default:
			out[i].Unknown++
		}
	}
	return out
}

// Pipeline runs smooth, aggregate and flag over a record set on one executor.
type Pipeline struct {
	executor engine.Executor
	logger   logrus.FieldLogger
	metrics  *metrics.Collector
	clock    clockwork.Clock
	window   int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMetrics records stage and run durations on the collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithClock replaces the wall clock used for stage timings.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// WithWindow overrides the moving average window.
func WithWindow(n int) Option {
	return func(p *Pipeline) { p.window = n }
}

// NewPipeline creates a pipeline bound to an executor.
func NewPipeline(ex engine.Executor, logger logrus.FieldLogger, opts ...Option) *Pipeline {
	p := &Pipeline{
		executor: ex,
		logger:   logger,
		clock:    clockwork.NewRealClock(),
		window:   WindowSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = discardLogger()
	}
	return p
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Engine returns the executor name.
func (p *Pipeline) Engine() string {
	return p.executor.Name()
}

// Run analyzes a copy of records. The caller's slice is never modified.
func (p *Pipeline) Run(ctx context.Context, records []weather.Record) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		Engine:    p.executor.Name(),
		StartedAt: p.clock.Now().UTC(),
	}
	log := p.logger.WithFields(logrus.Fields{
		"run_id": report.RunID,
		"engine": report.Engine,
	})
	log.WithField("records", len(records)).Info("pipeline run started")

	runTimer := metrics.NewTimer(p.clock, p.runObserver())

	data := slices.Clone(records)
	var (
		stats   []weather.SeasonalStat
		missing []weather.MissingKey
	)

	stages := []struct {
		name string
		fn   func(ctx context.Context) error
	}{
		{StageSmooth, func(ctx context.Context) (err error) {
			data, err = SmoothRecords(ctx, p.executor, data, p.window)
			return err
		}},
		{StageAggregate, func(ctx context.Context) (err error) {
			stats, err = Aggregate(ctx, p.executor, data)
			return err
		}},
		{StageFlag, func(ctx context.Context) (err error) {
			data, missing, err = Flag(ctx, p.executor, data, stats)
			return err
		}},
		{StageFilter, func(ctx context.Context) (err error) {
			report.Anomalies, err = engine.Filter(ctx, p.executor, data, func(r weather.Record) bool {
				return r.Status == weather.StatusAnomalous
			}, engine.DefaultChunkSize)
			return err
		}},
	}

	for _, stage := range stages {
		timer := metrics.NewTimer(p.clock, p.stageObserver(stage.name))
		err := stage.fn(ctx)
		elapsed := timer.ObserveDuration()

		stageLog := log.WithFields(logrus.Fields{
			"stage":       stage.name,
			"duration_ms": elapsed.Milliseconds(),
		})
		if err != nil {
			stageLog.WithError(err).Error("pipeline stage failed")
			if p.metrics != nil {
				p.metrics.RecordRunError(report.Engine)
			}
			return nil, fmt.Errorf("%s pipeline %s: %w", report.Engine, stage.name, err)
		}
		stageLog.Debug("pipeline stage completed")
		report.Stages = append(report.Stages, StageTiming{Stage: stage.name, Duration: elapsed})
	}

	for _, m := range missing {
		log.WithFields(logrus.Fields{
			"city":    m.Key.City,
			"season":  m.Key.Season,
			"records": m.Records,
		}).Warn("no seasonal statistics for key; records left unknown")
	}

	report.Records = data
	report.Stats = stats
	report.MissingKeys = missing
	report.Counts = countStatuses(data)
	report.Duration = runTimer.ObserveDuration()

	if p.metrics != nil {
		p.metrics.RecordsProcessed.WithLabelValues(report.Engine).Add(float64(len(data)))
		p.metrics.MissingKeys.WithLabelValues(report.Engine).Set(float64(len(missing)))
		counts := make(map[string]int, len(report.Counts))
		for status, n := range report.Counts {
			counts[string(status)] = n
		}
		p.metrics.SetStatusCounts(report.Engine, counts)
	}

	log.WithFields(logrus.Fields{
		"duration_ms": report.Duration.Milliseconds(),
		"stats":       len(stats),
		"anomalous":   report.Counts[weather.StatusAnomalous],
		"unknown":     report.Counts[weather.StatusUnknown],
	}).Info("pipeline run completed")

	return report, nil
}

func (p *Pipeline) stageObserver(stage string) prometheus.Observer {
	if p.metrics == nil {
		return nil
	}
	return p.metrics.StageDuration.WithLabelValues(p.executor.Name(), stage)
}

func (p *Pipeline) runObserver() prometheus.Observer {
	if p.metrics == nil {
		return nil
	}
	return p.metrics.RunDuration.WithLabelValues(p.executor.Name())
}

func countStatuses(records []weather.Record) map[weather.AnomalyStatus]int {
	counts := map[weather.AnomalyStatus]int{
		weather.StatusAnomalous: 0,
		weather.StatusNormal:    0,
		weather.StatusUnknown:   0,
	}
	for _, r := range records {
		counts[r.Status]++
	}
	return counts
}
