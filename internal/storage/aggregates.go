package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// InsertAggregate writes one rollup row keyed on (turbine_id, window_start).
// A duplicate key is a no-op; the returned bool reports whether the row was
// actually inserted.
func (r *Repository) InsertAggregate(ctx context.Context, rec AggregateRecord) (bool, error) {
	tag, err := r.Store.Pool.Exec(ctx, `
		INSERT INTO telemetry_aggregates
			(id, turbine_id, window_start, avg_wind_speed, avg_power_output, avg_rotor_speed,
			 avg_temperature, avg_vibration, avg_efficiency, total_generation, data_point_count, has_anomaly, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,now())
		ON CONFLICT (turbine_id, window_start) DO NOTHING`,
		uuid.NewString(), rec.TurbineID, rec.WindowStart, rec.AvgWindSpeed, rec.AvgPowerOutput, rec.AvgRotorSpeed,
		rec.AvgTemperature, rec.AvgVibration, rec.AvgEfficiency, rec.TotalGeneration, rec.DataPointCount, rec.HasAnomaly)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) AggregatesByTurbine(ctx context.Context, turbineID string, start, end time.Time) ([]AggregateRecord, error) {
	rows, err := r.Store.Pool.Query(ctx, `
		SELECT id, turbine_id, window_start, avg_wind_speed, avg_power_output, avg_rotor_speed,
		       avg_temperature, avg_vibration, avg_efficiency, total_generation, data_point_count, has_anomaly, created_at
		FROM telemetry_aggregates
		WHERE turbine_id=$1 AND window_start >= $2 AND window_start < $3
		ORDER BY window_start`, turbineID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAggregates(rows)
}

// AggregatesFiltered serves reporting queries; farm and region are optional.
func (r *Repository) AggregatesFiltered(ctx context.Context, start, end time.Time, farm, region string) ([]AggregateRecord, error) {
	rows, err := r.Store.Pool.Query(ctx, `
		SELECT a.id, a.turbine_id, a.window_start, a.avg_wind_speed, a.avg_power_output, a.avg_rotor_speed,
		       a.avg_temperature, a.avg_vibration, a.avg_efficiency, a.total_generation, a.data_point_count, a.has_anomaly, a.created_at
		FROM telemetry_aggregates a
		JOIN turbines t ON t.id = a.turbine_id
		JOIN farms f ON f.id = t.farm_id
		WHERE a.window_start >= $1 AND a.window_start < $2
		  AND ($3 = '' OR f.name = $3)
		  AND ($4 = '' OR f.region = $4)
		ORDER BY a.window_start`, start, end, farm, region)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAggregates(rows)
}

// FarmAggregate is an aggregate row labeled with the owning farm, used by
// the analytics rollups that group per farm.
type FarmAggregate struct {
	AggregateRecord
	FarmName string
}

// AggregatesWithFarm returns aggregates in [start, end) joined with their
// farm name; farm and region are optional filters.
func (r *Repository) AggregatesWithFarm(ctx context.Context, start, end time.Time, farm, region string) ([]FarmAggregate, error) {
	rows, err := r.Store.Pool.Query(ctx, `
		SELECT a.id, a.turbine_id, a.window_start, a.avg_wind_speed, a.avg_power_output, a.avg_rotor_speed,
		       a.avg_temperature, a.avg_vibration, a.avg_efficiency, a.total_generation, a.data_point_count, a.has_anomaly, a.created_at,
		       f.name
		FROM telemetry_aggregates a
		JOIN turbines t ON t.id = a.turbine_id
		JOIN farms f ON f.id = t.farm_id
		WHERE a.window_start >= $1 AND a.window_start < $2
		  AND ($3 = '' OR f.name = $3)
		  AND ($4 = '' OR f.region = $4)
		ORDER BY a.window_start`, start, end, farm, region)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	results := []FarmAggregate{}
	for rows.Next() {
		var rec FarmAggregate
		if err := rows.Scan(&rec.ID, &rec.TurbineID, &rec.WindowStart, &rec.AvgWindSpeed, &rec.AvgPowerOutput, &rec.AvgRotorSpeed,
			&rec.AvgTemperature, &rec.AvgVibration, &rec.AvgEfficiency, &rec.TotalGeneration, &rec.DataPointCount, &rec.HasAnomaly, &rec.CreatedAt,
			&rec.FarmName); err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	return results, nil
}

func scanAggregates(rows pgx.Rows) ([]AggregateRecord, error) {
	results := []AggregateRecord{}
	for rows.Next() {
		var rec AggregateRecord
		if err := rows.Scan(&rec.ID, &rec.TurbineID, &rec.WindowStart, &rec.AvgWindSpeed, &rec.AvgPowerOutput, &rec.AvgRotorSpeed,
			&rec.AvgTemperature, &rec.AvgVibration, &rec.AvgEfficiency, &rec.TotalGeneration, &rec.DataPointCount, &rec.HasAnomaly, &rec.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	return results, nil
}
