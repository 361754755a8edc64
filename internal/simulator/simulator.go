package simulator

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"turbine-monitor/internal/metrics"
	"turbine-monitor/internal/storage"
)

type TelemetryWriter interface {
	ListTurbines(ctx context.Context) ([]storage.TurbineRecord, error)
	InsertTelemetryBatch(ctx context.Context, recs []storage.TelemetryRecord) error
}

// Simulator emits one randomized reading per ACTIVE turbine every interval,
// written in batches. It stands in for real field ingestion in development
// and demo environments.
type Simulator struct {
	repo      TelemetryWriter
	obs       *metrics.Pipeline
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
	rng       *rand.Rand
}

func New(repo TelemetryWriter, obs *metrics.Pipeline, logger *slog.Logger, interval time.Duration, batchSize int) *Simulator {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 500
	}
	return &Simulator{
		repo:      repo,
		obs:       obs,
		logger:    logger,
		interval:  interval,
		batchSize: batchSize,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *Simulator) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.tick(ctx, time.Now().UTC()); err != nil {
				s.logger.Error("telemetry generation failed", slog.String("error", err.Error()))
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *Simulator) tick(ctx context.Context, now time.Time) error {
	turbines, err := s.repo.ListTurbines(ctx)
	if err != nil {
		return err
	}
	batch := make([]storage.TelemetryRecord, 0, s.batchSize)
	generated := 0
	for _, turbine := range turbines {
		if turbine.Status != storage.TurbineStatusActive {
			continue
		}
		batch = append(batch, s.reading(turbine, now))
		generated++
		if len(batch) >= s.batchSize {
			if err := s.repo.InsertTelemetryBatch(ctx, batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := s.repo.InsertTelemetryBatch(ctx, batch); err != nil {
			return err
		}
	}
	s.obs.AddSamplesGenerated(generated)
	return nil
}

func (s *Simulator) reading(turbine storage.TurbineRecord, now time.Time) storage.TelemetryRecord {
	power := 1.5 + s.rng.Float64()*2.0
	return storage.TelemetryRecord{
		TurbineID:   turbine.ID,
		Timestamp:   now,
		WindSpeed:   8.0 + s.rng.Float64()*12.0,
		PowerOutput: power,
		RotorSpeed:  10.0 + s.rng.Float64()*10.0,
		Temperature: 15.0 + s.rng.Float64()*20.0,
		Vibration:   2.0 + s.rng.Float64()*5.0,
		Efficiency:  power / turbine.RatedPower * 100.0,
	}
}
