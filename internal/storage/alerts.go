package storage

import (
	"context"
)

func (r *Repository) CreateAlert(ctx context.Context, alert AlertRecord) error {
	_, err := r.Store.Pool.Exec(ctx, `
		INSERT INTO health_alerts (id, turbine_id, alert_time, alert_type, severity, message, status, resolved_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		alert.ID, alert.TurbineID, alert.AlertTime, alert.AlertType, alert.Severity, alert.Message, alert.Status, alert.ResolvedAt)
	return err
}

func (r *Repository) GetAlert(ctx context.Context, id string) (AlertRecord, error) {
	row := r.Store.Pool.QueryRow(ctx, `
		SELECT id, turbine_id, alert_time, alert_type, severity, message, status, resolved_at
		FROM health_alerts WHERE id=$1`, id)
	var rec AlertRecord
	if err := row.Scan(&rec.ID, &rec.TurbineID, &rec.AlertTime, &rec.AlertType, &rec.Severity, &rec.Message, &rec.Status, &rec.ResolvedAt); err != nil {
		return AlertRecord{}, ErrNotFound
	}
	return rec, nil
}

func (r *Repository) UpdateAlert(ctx context.Context, alert AlertRecord) error {
	tag, err := r.Store.Pool.Exec(ctx, `
		UPDATE health_alerts SET status=$1, resolved_at=$2 WHERE id=$3`,
		alert.Status, alert.ResolvedAt, alert.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ActiveAlerts returns the requested page of ACTIVE alerts plus the total
// count matching the filter.
func (r *Repository) ActiveAlerts(ctx context.Context, filter AlertFilter) ([]AlertRecord, int64, error) {
	where := `
		FROM health_alerts a
		JOIN turbines t ON t.id = a.turbine_id
		JOIN farms f ON f.id = t.farm_id
		WHERE a.status = 'ACTIVE'
		  AND ($1 = '' OR a.turbine_id::text = $1)
		  AND ($2 = '' OR f.region = $2)
		  AND ($3 = '' OR f.name = $3)`

	var total int64
	row := r.Store.Pool.QueryRow(ctx, `SELECT count(*) `+where,
		filter.TurbineID, filter.Region, filter.Farm)
	if err := row.Scan(&total); err != nil {
		return nil, 0, err
	}

	size := filter.Size
	if size <= 0 {
		size = 10
	}
	offset := filter.Page * size
	rows, err := r.Store.Pool.Query(ctx, `
		SELECT a.id, a.turbine_id, a.alert_time, a.alert_type, a.severity, a.message, a.status, a.resolved_at `+where+`
		ORDER BY a.alert_time DESC
		LIMIT $4 OFFSET $5`,
		filter.TurbineID, filter.Region, filter.Farm, size, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	results := []AlertRecord{}
	for rows.Next() {
		var rec AlertRecord
		if err := rows.Scan(&rec.ID, &rec.TurbineID, &rec.AlertTime, &rec.AlertType, &rec.Severity, &rec.Message, &rec.Status, &rec.ResolvedAt); err != nil {
			return nil, 0, err
		}
		results = append(results, rec)
	}
	return results, total, nil
}
