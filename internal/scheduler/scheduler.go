package scheduler

import (
	"context"
	"log/slog"
	"time"

	"turbine-monitor/internal/aggregation"
)

type WindowProcessor interface {
	AggregateWindow(ctx context.Context, windowStart time.Time) (aggregation.WindowResult, error)
}

// Scheduler drives the aggregation engine: a bounded startup backfill of
// past windows in increasing time order, then one trigger per interval for
// the just-completed window. A failed window is retried implicitly by the
// next trigger.
type Scheduler struct {
	engine   WindowProcessor
	interval time.Duration
	backfill int
	logger   *slog.Logger
	now      func() time.Time
}

func New(engine WindowProcessor, interval time.Duration, backfill int, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		engine:   engine,
		interval: interval,
		backfill: backfill,
		logger:   logger,
		now:      time.Now,
	}
}

// Run blocks until ctx is done. Cancellation is honored between windows:
// an in-flight window finishes, the next one is not started.
func (s *Scheduler) Run(ctx context.Context) {
	s.runBackfill(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			window := s.now().UTC().Truncate(s.interval).Add(-s.interval)
			s.process(ctx, window)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) runBackfill(ctx context.Context) {
	if s.backfill <= 0 {
		return
	}
	end := s.now().UTC().Truncate(s.interval)
	s.logger.Info("starting backfill",
		slog.Int("windows", s.backfill),
		slog.Time("from", end.Add(-time.Duration(s.backfill)*s.interval)))
	for i := s.backfill; i >= 1; i-- {
		select {
		case <-ctx.Done():
			return
		default:
		}
		s.process(ctx, end.Add(-time.Duration(i)*s.interval))
	}
	s.logger.Info("backfill completed")
}

func (s *Scheduler) process(ctx context.Context, window time.Time) {
	result, err := s.engine.AggregateWindow(ctx, window)
	if err != nil {
		s.logger.Error("window aggregation failed",
			slog.Time("window", window), slog.String("error", err.Error()))
		return
	}
	if result.AggregatesCreated > 0 || len(result.Failures) > 0 {
		s.logger.Info("scheduled aggregation finished",
			slog.Time("window", window),
			slog.Int("aggregates", result.AggregatesCreated),
			slog.Int("failures", len(result.Failures)))
	}
}
