package storage

import (
	"context"

	"github.com/google/uuid"
)

type Repository struct {
	Store *Store
}

func NewRepository(store *Store) *Repository {
	return &Repository{Store: store}
}

func (r *Repository) CreateFarm(ctx context.Context, farm FarmRecord) (string, error) {
	id := uuid.NewString()
	_, err := r.Store.Pool.Exec(ctx, `
		INSERT INTO farms (id, name, region, location, created_at)
		VALUES ($1,$2,$3,$4,now())`,
		id, farm.Name, farm.Region, farm.Location)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repository) GetFarm(ctx context.Context, id string) (FarmRecord, error) {
	row := r.Store.Pool.QueryRow(ctx, `
		SELECT id, name, region, location, created_at FROM farms WHERE id=$1`, id)
	var rec FarmRecord
	if err := row.Scan(&rec.ID, &rec.Name, &rec.Region, &rec.Location, &rec.CreatedAt); err != nil {
		return FarmRecord{}, ErrNotFound
	}
	return rec, nil
}

func (r *Repository) ListFarms(ctx context.Context) ([]FarmRecord, error) {
	rows, err := r.Store.Pool.Query(ctx, `
		SELECT id, name, region, location, created_at FROM farms ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	results := []FarmRecord{}
	for rows.Next() {
		var rec FarmRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Region, &rec.Location, &rec.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	return results, nil
}
