package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

func (r *Repository) InsertTelemetry(ctx context.Context, rec TelemetryRecord) (int64, error) {
	row := r.Store.Pool.QueryRow(ctx, `
		INSERT INTO telemetry (turbine_id, ts, wind_speed, power_output, rotor_speed, temperature, vibration, efficiency, is_aggregated)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,false)
		RETURNING id`,
		rec.TurbineID, rec.Timestamp, rec.WindSpeed, rec.PowerOutput, rec.RotorSpeed, rec.Temperature, rec.Vibration, rec.Efficiency)
	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *Repository) InsertTelemetryBatch(ctx context.Context, recs []TelemetryRecord) error {
	if len(recs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, rec := range recs {
		batch.Queue(`
			INSERT INTO telemetry (turbine_id, ts, wind_speed, power_output, rotor_speed, temperature, vibration, efficiency, is_aggregated)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,false)`,
			rec.TurbineID, rec.Timestamp, rec.WindSpeed, rec.PowerOutput, rec.RotorSpeed, rec.Temperature, rec.Vibration, rec.Efficiency)
	}
	results := r.Store.Pool.SendBatch(ctx, batch)
	defer results.Close()
	for range recs {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// UnaggregatedTelemetry returns samples for one turbine in [start, end)
// that have not yet been folded into an aggregate, in timestamp order.
func (r *Repository) UnaggregatedTelemetry(ctx context.Context, turbineID string, start, end time.Time) ([]TelemetryRecord, error) {
	rows, err := r.Store.Pool.Query(ctx, `
		SELECT id, turbine_id, ts, wind_speed, power_output, rotor_speed, temperature, vibration, efficiency, is_aggregated
		FROM telemetry
		WHERE turbine_id=$1 AND ts >= $2 AND ts < $3 AND is_aggregated = false
		ORDER BY ts`, turbineID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTelemetry(rows)
}

func (r *Repository) TelemetryByTurbine(ctx context.Context, turbineID string, start, end time.Time) ([]TelemetryRecord, error) {
	rows, err := r.Store.Pool.Query(ctx, `
		SELECT id, turbine_id, ts, wind_speed, power_output, rotor_speed, temperature, vibration, efficiency, is_aggregated
		FROM telemetry
		WHERE turbine_id=$1 AND ts >= $2 AND ts < $3
		ORDER BY ts`, turbineID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTelemetry(rows)
}

// MarkTelemetryAggregated flips the consumed flag for the given sample ids.
// The flag is never cleared.
func (r *Repository) MarkTelemetryAggregated(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.Store.Pool.Exec(ctx, `
		UPDATE telemetry SET is_aggregated = true WHERE id = ANY($1)`, ids)
	return err
}

func scanTelemetry(rows pgx.Rows) ([]TelemetryRecord, error) {
	results := []TelemetryRecord{}
	for rows.Next() {
		var rec TelemetryRecord
		if err := rows.Scan(&rec.ID, &rec.TurbineID, &rec.Timestamp, &rec.WindSpeed, &rec.PowerOutput, &rec.RotorSpeed, &rec.Temperature, &rec.Vibration, &rec.Efficiency, &rec.Aggregated); err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	return results, nil
}
