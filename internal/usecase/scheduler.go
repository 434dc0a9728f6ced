package usecase

import (
	"context"
	"log/slog"
	"time"

	"NewsScanner/internal/ports"
)

// Scheduler wires the cron driver with the crawl pipeline.
type Scheduler struct {
	driver     ports.Scheduler
	pipeline   *Pipeline
	runTimeout time.Duration
	logger     *slog.Logger
}

// NewScheduler returns a helper to start/stop the recurring crawl job.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, runTimeout time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, pipeline: pipeline, runTimeout: runTimeout, logger: logger}
}

// Start registers the crawl-all job with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		runCtx := ctx
		if s.runTimeout > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(ctx, s.runTimeout)
			defer cancel()
		}

		results, err := s.pipeline.CrawlAll(runCtx)
		if err != nil {
			s.logger.Error("scheduled crawl finished with errors", "trigger", trigger, "error", err)
		}
		for _, stats := range results {
			s.logger.Info("scheduled crawl result",
				"source", stats.Source, "found", stats.ArticlesFound, "saved", stats.ArticlesFiltered)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
