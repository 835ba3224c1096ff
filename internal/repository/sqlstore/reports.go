package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"sos-backend/internal/models"
	"sos-backend/internal/repository"
)

type ReportRepository struct {
	q dbtx
	d Dialect
}

func (r *ReportRepository) Create(ctx context.Context, rep *models.Report) error {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	query := r.d.rebind(`INSERT INTO reports (id, reporter_id, description, latitude, longitude, risk_level, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.q.ExecContext(ctx, query,
		rep.ID, nullString(rep.ReporterID), rep.Description, rep.Latitude, rep.Longitude, rep.RiskLevel, rep.CreatedAt)
	return translate(err)
}

func (r *ReportRepository) List(ctx context.Context) ([]*models.Report, error) {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	rows, err := r.q.QueryContext(ctx, `SELECT id, reporter_id, description, latitude, longitude, risk_level, created_at
		FROM reports ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Report
	for rows.Next() {
		var (
			rep      models.Report
			reporter sql.NullString
		)
		if err := rows.Scan(&rep.ID, &reporter, &rep.Description, &rep.Latitude, &rep.Longitude, &rep.RiskLevel, &rep.CreatedAt); err != nil {
			return nil, err
		}
		rep.ReporterID = stringPtr(reporter)
		out = append(out, &rep)
	}
	return out, rows.Err()
}

type LocationRepository struct {
	q dbtx
	d Dialect
}

func (r *LocationRepository) Append(ctx context.Context, s *models.LiveLocation) error {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	query := r.d.rebind(`INSERT INTO live_locations (id, alert_id, sender_id, sender_role, latitude, longitude, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.q.ExecContext(ctx, query,
		s.ID, s.AlertID, s.SenderID, string(s.SenderRole), s.Latitude, s.Longitude, s.RecordedAt)
	return translate(err)
}

func (r *LocationRepository) ListByAlert(ctx context.Context, alertID string) ([]*models.LiveLocation, error) {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	query := r.d.rebind(`SELECT id, alert_id, sender_id, sender_role, latitude, longitude, recorded_at
		FROM live_locations WHERE alert_id = ? ORDER BY recorded_at, id`)
	rows, err := r.q.QueryContext(ctx, query, alertID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.LiveLocation
	for rows.Next() {
		var (
			s    models.LiveLocation
			role string
		)
		if err := rows.Scan(&s.ID, &s.AlertID, &s.SenderID, &role, &s.Latitude, &s.Longitude, &s.RecordedAt); err != nil {
			return nil, err
		}
		s.SenderRole = models.Role(role)
		out = append(out, &s)
	}
	return out, rows.Err()
}

func (r *LocationRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	res, err := r.q.ExecContext(ctx, r.d.rebind(`DELETE FROM live_locations WHERE recorded_at < ?`), cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
