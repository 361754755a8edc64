package simulator

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"turbine-monitor/internal/storage"
)

type memWriter struct {
	turbines []storage.TurbineRecord
	inserted []storage.TelemetryRecord
	batches  int
}

func (m *memWriter) ListTurbines(ctx context.Context) ([]storage.TurbineRecord, error) {
	return m.turbines, nil
}

func (m *memWriter) InsertTelemetryBatch(ctx context.Context, recs []storage.TelemetryRecord) error {
	m.inserted = append(m.inserted, recs...)
	m.batches++
	return nil
}

func TestTickGeneratesForActiveTurbinesOnly(t *testing.T) {
	writer := &memWriter{turbines: []storage.TurbineRecord{
		{ID: "t1", RatedPower: 2.0, Status: storage.TurbineStatusActive},
		{ID: "t2", RatedPower: 3.0, Status: storage.TurbineStatusMaintenance},
		{ID: "t3", RatedPower: 2.5, Status: storage.TurbineStatusActive},
	}}
	sim := New(writer, nil, slog.New(slog.NewTextHandler(io.Discard, nil)), 10*time.Second, 500)

	now := time.Date(2026, 1, 2, 13, 0, 0, 0, time.UTC)
	if err := sim.tick(context.Background(), now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(writer.inserted) != 2 {
		t.Fatalf("expected 2 readings, got %d", len(writer.inserted))
	}
	for _, rec := range writer.inserted {
		if rec.TurbineID == "t2" {
			t.Fatalf("maintenance turbine must not produce telemetry")
		}
		if !rec.Timestamp.Equal(now) {
			t.Fatalf("expected timestamp %v, got %v", now, rec.Timestamp)
		}
		if rec.Aggregated {
			t.Fatalf("new telemetry must start unconsumed")
		}
	}
}

func TestReadingDerivesEfficiency(t *testing.T) {
	sim := New(&memWriter{}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)), 10*time.Second, 500)
	turbine := storage.TurbineRecord{ID: "t1", RatedPower: 2.0}

	rec := sim.reading(turbine, time.Now().UTC())
	want := rec.PowerOutput / turbine.RatedPower * 100.0
	if rec.Efficiency != want {
		t.Fatalf("expected efficiency %v, got %v", want, rec.Efficiency)
	}
	if rec.WindSpeed < 8.0 || rec.WindSpeed > 20.0 {
		t.Fatalf("wind speed out of range: %v", rec.WindSpeed)
	}
	if rec.PowerOutput < 1.5 || rec.PowerOutput > 3.5 {
		t.Fatalf("power output out of range: %v", rec.PowerOutput)
	}
}

func TestTickSplitsBatches(t *testing.T) {
	writer := &memWriter{}
	for i := 0; i < 5; i++ {
		writer.turbines = append(writer.turbines, storage.TurbineRecord{
			ID: string(rune('a' + i)), RatedPower: 2.0, Status: storage.TurbineStatusActive,
		})
	}
	sim := New(writer, nil, slog.New(slog.NewTextHandler(io.Discard, nil)), 10*time.Second, 2)

	if err := sim.tick(context.Background(), time.Now().UTC()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(writer.inserted) != 5 {
		t.Fatalf("expected 5 readings, got %d", len(writer.inserted))
	}
	if writer.batches != 3 {
		t.Fatalf("expected 3 batches of size <=2, got %d", writer.batches)
	}
}
