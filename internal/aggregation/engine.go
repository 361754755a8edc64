package aggregation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"turbine-monitor/internal/anomaly"
	"turbine-monitor/internal/metrics"
	"turbine-monitor/internal/storage"
)

const AlertTypeAnomaly = "ANOMALY_DETECTED"

// ErrWindowFailed is returned when every turbine in a window failed; partial
// failures are reported through WindowResult.Failures instead.
var ErrWindowFailed = errors.New("window aggregation failed for all turbines")

type SampleStore interface {
	UnaggregatedTelemetry(ctx context.Context, turbineID string, start, end time.Time) ([]storage.TelemetryRecord, error)
	MarkTelemetryAggregated(ctx context.Context, ids []int64) error
}

type AggregateStore interface {
	InsertAggregate(ctx context.Context, rec storage.AggregateRecord) (bool, error)
}

type TurbineDirectory interface {
	ListTurbines(ctx context.Context) ([]storage.TurbineRecord, error)
}

type AlertSink interface {
	Raise(ctx context.Context, turbineID, alertType string, severity anomaly.Severity, message string) (storage.AlertRecord, error)
}

type Config struct {
	Workers          int
	ChunkSize        int
	WindowLength     time.Duration
	SamplingInterval time.Duration
	StoreTimeout     time.Duration
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = 500
	}
	if c.WindowLength <= 0 {
		c.WindowLength = time.Hour
	}
	if c.SamplingInterval <= 0 {
		c.SamplingInterval = 10 * time.Second
	}
	if c.StoreTimeout <= 0 {
		c.StoreTimeout = 30 * time.Second
	}
	return c
}

type TurbineFailure struct {
	TurbineID string `json:"turbineId"`
	Err       string `json:"error"`
}

type WindowResult struct {
	WindowStart       time.Time        `json:"windowStart"`
	AggregatesCreated int              `json:"aggregatesCreated"`
	SamplesConsumed   int              `json:"samplesConsumed"`
	Failures          []TurbineFailure `json:"failures,omitempty"`
}

// Engine rolls raw telemetry up into per-(turbine, window) aggregates and
// feeds each aggregate through the anomaly detector. Turbines within a
// window are independent and processed by a bounded worker pool.
type Engine struct {
	samples    SampleStore
	aggregates AggregateStore
	turbines   TurbineDirectory
	detector   *anomaly.Detector
	alerts     AlertSink
	obs        *metrics.Pipeline
	logger     *slog.Logger
	cfg        Config
}

func NewEngine(samples SampleStore, aggregates AggregateStore, turbines TurbineDirectory,
	detector *anomaly.Detector, alerts AlertSink, obs *metrics.Pipeline, logger *slog.Logger, cfg Config) *Engine {
	return &Engine{
		samples:    samples,
		aggregates: aggregates,
		turbines:   turbines,
		detector:   detector,
		alerts:     alerts,
		obs:        obs,
		logger:     logger,
		cfg:        cfg.withDefaults(),
	}
}

type turbineOutcome struct {
	turbineID string
	created   bool
	consumed  int
	err       error
}

// AggregateWindow processes every known turbine for the window starting at
// windowStart. A turbine whose lookup or write fails is skipped and reported
// in the result; the call itself errors only when listing turbines fails or
// every turbine failed.
func (e *Engine) AggregateWindow(ctx context.Context, windowStart time.Time) (WindowResult, error) {
	windowStart = windowStart.UTC().Truncate(e.cfg.WindowLength)
	windowEnd := windowStart.Add(e.cfg.WindowLength)
	result := WindowResult{WindowStart: windowStart}

	started := time.Now()
	listCtx, cancel := context.WithTimeout(ctx, e.cfg.StoreTimeout)
	turbines, err := e.turbines.ListTurbines(listCtx)
	cancel()
	if err != nil {
		return result, fmt.Errorf("list turbines: %w", err)
	}
	if len(turbines) == 0 {
		return result, nil
	}

	jobs := make(chan storage.TurbineRecord)
	outcomes := make(chan turbineOutcome, len(turbines))
	var wg sync.WaitGroup
	for i := 0; i < e.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for turbine := range jobs {
				outcomes <- e.aggregateTurbine(ctx, turbine, windowStart, windowEnd)
			}
		}()
	}
	for _, turbine := range turbines {
		jobs <- turbine
	}
	close(jobs)
	wg.Wait()
	close(outcomes)

	for outcome := range outcomes {
		if outcome.err != nil {
			result.Failures = append(result.Failures, TurbineFailure{TurbineID: outcome.turbineID, Err: outcome.err.Error()})
			e.logger.Error("turbine aggregation failed",
				slog.String("turbine", outcome.turbineID),
				slog.Time("window", windowStart),
				slog.String("error", outcome.err.Error()))
			continue
		}
		if outcome.created {
			result.AggregatesCreated++
		}
		result.SamplesConsumed += outcome.consumed
	}

	e.obs.ObserveWindow(time.Since(started).Seconds())
	e.obs.AddAggregatesCreated(result.AggregatesCreated)
	e.obs.AddSamplesConsumed(result.SamplesConsumed)
	e.logger.Info("window aggregated",
		slog.Time("window", windowStart),
		slog.Int("aggregates", result.AggregatesCreated),
		slog.Int("samples", result.SamplesConsumed),
		slog.Int("failures", len(result.Failures)))

	if len(result.Failures) == len(turbines) {
		return result, ErrWindowFailed
	}
	return result, nil
}

func (e *Engine) aggregateTurbine(ctx context.Context, turbine storage.TurbineRecord, start, end time.Time) turbineOutcome {
	outcome := turbineOutcome{turbineID: turbine.ID}

	fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.StoreTimeout)
	samples, err := e.samples.UnaggregatedTelemetry(fetchCtx, turbine.ID, start, end)
	cancel()
	if err != nil {
		outcome.err = fmt.Errorf("fetch samples: %w", err)
		return outcome
	}
	if len(samples) == 0 {
		return outcome
	}

	rec, means := computeAggregate(turbine.ID, start, samples, e.cfg.SamplingInterval)
	verdict := e.detector.Evaluate(means)
	rec.HasAnomaly = verdict.HasAnomaly

	insertCtx, cancel := context.WithTimeout(ctx, e.cfg.StoreTimeout)
	inserted, err := e.aggregates.InsertAggregate(insertCtx, rec)
	cancel()
	if err != nil {
		outcome.err = fmt.Errorf("insert aggregate: %w", err)
		return outcome
	}
	if !inserted {
		// Lost the (turbine, window_start) race. The winner read the same
		// unconsumed samples and owns marking them.
		e.logger.Info("aggregate already exists",
			slog.String("turbine", turbine.ID), slog.Time("window", start))
		return outcome
	}

	if verdict.HasAnomaly && e.alerts != nil {
		if _, err := e.alerts.Raise(ctx, turbine.ID, AlertTypeAnomaly, verdict.Severity, verdict.Message); err != nil {
			e.logger.Error("failed to raise alert",
				slog.String("turbine", turbine.ID), slog.String("error", err.Error()))
		}
	}

	ids := make([]int64, len(samples))
	for i, s := range samples {
		ids[i] = s.ID
	}
	for len(ids) > 0 {
		chunk := ids
		if len(chunk) > e.cfg.ChunkSize {
			chunk = chunk[:e.cfg.ChunkSize]
		}
		markCtx, cancel := context.WithTimeout(ctx, e.cfg.StoreTimeout)
		err := e.samples.MarkTelemetryAggregated(markCtx, chunk)
		cancel()
		if err != nil {
			outcome.created = true
			outcome.err = fmt.Errorf("mark samples consumed: %w", err)
			return outcome
		}
		outcome.consumed += len(chunk)
		ids = ids[len(chunk):]
	}

	outcome.created = true
	return outcome
}

func computeAggregate(turbineID string, windowStart time.Time, samples []storage.TelemetryRecord, samplingInterval time.Duration) (storage.AggregateRecord, anomaly.WindowMeans) {
	var sumWind, sumPower, sumRotor, sumTemp, sumVib, sumEff float64
	for _, s := range samples {
		sumWind += s.WindSpeed
		sumPower += s.PowerOutput
		sumRotor += s.RotorSpeed
		sumTemp += s.Temperature
		sumVib += s.Vibration
		sumEff += s.Efficiency
	}
	n := float64(len(samples))
	means := anomaly.WindowMeans{
		WindSpeed:   sumWind / n,
		PowerOutput: sumPower / n,
		RotorSpeed:  sumRotor / n,
		Temperature: sumTemp / n,
		Vibration:   sumVib / n,
		Efficiency:  sumEff / n,
	}
	rec := storage.AggregateRecord{
		TurbineID:       turbineID,
		WindowStart:     windowStart,
		AvgWindSpeed:    means.WindSpeed,
		AvgPowerOutput:  means.PowerOutput,
		AvgRotorSpeed:   means.RotorSpeed,
		AvgTemperature:  means.Temperature,
		AvgVibration:    means.Vibration,
		AvgEfficiency:   means.Efficiency,
		TotalGeneration: sumPower * samplingInterval.Hours(),
		DataPointCount:  len(samples),
	}
	return rec, means
}
