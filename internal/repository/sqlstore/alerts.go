package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"sos-backend/internal/models"
	"sos-backend/internal/repository"
)

type AlertRepository struct {
	q dbtx
	d Dialect
}

const alertColumns = `id, reporter_id, code, message, level, category, panic_level, status,
	latitude, longitude, created_at, updated_at, resolved_at`

// Create relies on the partial unique index: a conflicting active alert for the
// same reporter makes the insert a no-op, reported as ErrDuplicate.
func (r *AlertRepository) Create(ctx context.Context, a *models.Alert) error {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	query := r.d.rebind(`INSERT INTO alerts (` + alertColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`)

	var resolvedAt sql.NullTime
	if a.ResolvedAt != nil {
		resolvedAt = sql.NullTime{Time: *a.ResolvedAt, Valid: true}
	}

	res, err := r.q.ExecContext(ctx, query,
		a.ID, nullString(a.ReporterID), a.Code, a.Message, string(a.Level), a.Category, a.PanicLevel,
		string(a.Status), a.Latitude, a.Longitude, a.CreatedAt, a.UpdatedAt, resolvedAt,
	)
	if err != nil {
		return translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: active alert exists for reporter", repository.ErrDuplicate)
	}
	return nil
}

func (r *AlertRepository) FindByID(ctx context.Context, id string) (*models.Alert, error) {
	return r.queryOne(ctx, `SELECT `+alertColumns+` FROM alerts WHERE id = ?`, id)
}

func (r *AlertRepository) FindActiveByReporter(ctx context.Context, reporterID string) (*models.Alert, error) {
	return r.queryOne(ctx, `SELECT `+alertColumns+` FROM alerts WHERE reporter_id = ? AND status = 'active'`, reporterID)
}

func (r *AlertRepository) queryOne(ctx context.Context, query string, args ...any) (*models.Alert, error) {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	a, err := scanAlert(r.q.QueryRowContext(ctx, r.d.rebind(query), args...))
	if err != nil {
		return nil, translate(err)
	}
	return a, nil
}

func (r *AlertRepository) List(ctx context.Context, f models.AlertFilter) ([]*models.Alert, error) {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.ReporterID != "" {
		where = append(where, "reporter_id = ?")
		args = append(args, f.ReporterID)
	}

	query := `SELECT ` + alertColumns + ` FROM alerts`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := r.q.QueryContext(ctx, r.d.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*models.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func (r *AlertRepository) Resolve(ctx context.Context, id string, at time.Time) error {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	query := r.d.rebind(`UPDATE alerts SET status = 'resolved', resolved_at = ?, updated_at = ?
		WHERE id = ? AND status = 'active'`)
	return affectedOne(r.q.ExecContext(ctx, query, at, at, id))
}

func (r *AlertRepository) Touch(ctx context.Context, id string, at time.Time) error {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	return affectedOne(r.q.ExecContext(ctx, r.d.rebind(`UPDATE alerts SET updated_at = ? WHERE id = ?`), at, id))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlert(row rowScanner) (*models.Alert, error) {
	var (
		a          models.Alert
		reporter   sql.NullString
		level      string
		status     string
		resolvedAt sql.NullTime
	)
	err := row.Scan(&a.ID, &reporter, &a.Code, &a.Message, &level, &a.Category, &a.PanicLevel, &status,
		&a.Latitude, &a.Longitude, &a.CreatedAt, &a.UpdatedAt, &resolvedAt)
	if err != nil {
		return nil, err
	}

	a.ReporterID = stringPtr(reporter)
	a.Level = models.AlertLevel(level)
	a.Status = models.AlertStatus(status)
	if resolvedAt.Valid {
		t := resolvedAt.Time
		a.ResolvedAt = &t
	}
	return &a, nil
}
