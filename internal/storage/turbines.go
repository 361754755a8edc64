package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func (r *Repository) CreateTurbine(ctx context.Context, turbine TurbineRecord) (string, error) {
	id := uuid.NewString()
	_, err := r.Store.Pool.Exec(ctx, `
		INSERT INTO turbines (id, name, farm_id, rated_power, status, installed_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,now(),now())`,
		id, turbine.Name, turbine.FarmID, turbine.RatedPower, turbine.Status)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repository) GetTurbine(ctx context.Context, id string) (TurbineRecord, error) {
	row := r.Store.Pool.QueryRow(ctx, `
		SELECT id, name, farm_id, rated_power, status, installed_at, updated_at
		FROM turbines WHERE id=$1`, id)
	var rec TurbineRecord
	if err := row.Scan(&rec.ID, &rec.Name, &rec.FarmID, &rec.RatedPower, &rec.Status, &rec.InstalledAt, &rec.UpdatedAt); err != nil {
		return TurbineRecord{}, ErrNotFound
	}
	return rec, nil
}

func (r *Repository) ListTurbines(ctx context.Context) ([]TurbineRecord, error) {
	rows, err := r.Store.Pool.Query(ctx, `
		SELECT id, name, farm_id, rated_power, status, installed_at, updated_at
		FROM turbines ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTurbines(rows)
}

func (r *Repository) ListTurbinesByFarm(ctx context.Context, farmID string) ([]TurbineRecord, error) {
	rows, err := r.Store.Pool.Query(ctx, `
		SELECT id, name, farm_id, rated_power, status, installed_at, updated_at
		FROM turbines WHERE farm_id=$1 ORDER BY name`, farmID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTurbines(rows)
}

func (r *Repository) CountTurbines(ctx context.Context) (int, error) {
	row := r.Store.Pool.QueryRow(ctx, `SELECT count(*) FROM turbines`)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *Repository) UpdateTurbineStatus(ctx context.Context, id, status string) error {
	tag, err := r.Store.Pool.Exec(ctx, `
		UPDATE turbines SET status=$1, updated_at=now() WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTurbines(rows pgx.Rows) ([]TurbineRecord, error) {
	results := []TurbineRecord{}
	for rows.Next() {
		var rec TurbineRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.FarmID, &rec.RatedPower, &rec.Status, &rec.InstalledAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	return results, nil
}
