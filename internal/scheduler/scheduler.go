package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"

	"github.com/i474232898/temperature-anomalies/internal/analysis"
)

// Refresher regenerates and re-analyzes the data set.
type Refresher interface {
	Refresh(ctx context.Context) (analysis.Snapshot, error)
}

// Scheduler periodically refreshes the analysis results.
type Scheduler struct {
	scheduler  *gocron.Scheduler
	refresher  Refresher
	interval   time.Duration
	runTimeout time.Duration
	logger     logrus.FieldLogger
}

// New creates a new Scheduler.
func New(refresher Refresher, interval, runTimeout time.Duration, logger logrus.FieldLogger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler:  s,
		refresher:  refresher,
		interval:   interval,
		runTimeout: runTimeout,
		logger:     logger.WithField("component", "scheduler"),
	}
}

// Start schedules the refresh job, runs it once right away and starts the
// underlying scheduler.
func (s *Scheduler) Start() error {
	interval := s.interval
	if interval <= 0 {
		interval = time.Hour
	}

	_, err := s.scheduler.Every(interval).Do(s.run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) run() {
	s.logger.Info("running refresh job")

	ctx := context.Background()
	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	snap, err := s.refresher.Refresh(ctx)
	if err != nil {
		s.logger.WithError(err).Error("refresh job failed")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"records": snap.Records,
		"timing":  snap.Timing.String(),
	}).Info("completed refresh job")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
