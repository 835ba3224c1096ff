package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"sos-backend/internal/models"
	"sos-backend/internal/repository"
)

type AssignmentRepository struct {
	q dbtx
	d Dialect
}

const assignmentColumns = `id, alert_id, volunteer_id, status, distance_km, assigned_at, responded_at`

// CreateMany inserts every entry on the same handle; callers wanting
// all-or-nothing run it inside Store.InTx.
func (r *AssignmentRepository) CreateMany(ctx context.Context, entries []*models.ResponseAssignment) error {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	query := r.d.rebind(`INSERT INTO response_assignments (` + assignmentColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	for _, e := range entries {
		var respondedAt sql.NullTime
		if e.RespondedAt != nil {
			respondedAt = sql.NullTime{Time: *e.RespondedAt, Valid: true}
		}
		_, err := r.q.ExecContext(ctx, query,
			e.ID, e.AlertID, e.VolunteerID, string(e.Status), e.DistanceKm, e.AssignedAt, respondedAt)
		if err != nil {
			return translate(err)
		}
	}
	return nil
}

func (r *AssignmentRepository) Find(ctx context.Context, alertID, volunteerID string) (*models.ResponseAssignment, error) {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	query := r.d.rebind(`SELECT ` + assignmentColumns + ` FROM response_assignments WHERE alert_id = ? AND volunteer_id = ?`)
	e, err := scanAssignment(r.q.QueryRowContext(ctx, query, alertID, volunteerID))
	if err != nil {
		return nil, translate(err)
	}
	return e, nil
}

func (r *AssignmentRepository) ListByAlert(ctx context.Context, alertID string) ([]*models.ResponseAssignment, error) {
	return r.list(ctx, `SELECT `+assignmentColumns+` FROM response_assignments
		WHERE alert_id = ? ORDER BY distance_km, id`, alertID)
}

func (r *AssignmentRepository) ListByVolunteer(ctx context.Context, volunteerID string) ([]*models.ResponseAssignment, error) {
	return r.list(ctx, `SELECT `+assignmentColumns+` FROM response_assignments
		WHERE volunteer_id = ? ORDER BY assigned_at DESC, id DESC`, volunteerID)
}

func (r *AssignmentRepository) list(ctx context.Context, query string, args ...any) ([]*models.ResponseAssignment, error) {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	rows, err := r.q.QueryContext(ctx, r.d.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.ResponseAssignment
	for rows.Next() {
		e, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *AssignmentRepository) Respond(ctx context.Context, alertID, volunteerID string, status models.ResponseStatus, at time.Time) error {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	query := r.d.rebind(`UPDATE response_assignments SET status = ?, responded_at = ?
		WHERE alert_id = ? AND volunteer_id = ? AND status = 'pending'`)
	return affectedOne(r.q.ExecContext(ctx, query, string(status), at, alertID, volunteerID))
}

func (r *AssignmentRepository) CountByStatus(ctx context.Context, alertID string, status models.ResponseStatus) (int, error) {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	var n int
	query := r.d.rebind(`SELECT COUNT(*) FROM response_assignments WHERE alert_id = ? AND status = ?`)
	if err := r.q.QueryRowContext(ctx, query, alertID, string(status)).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func scanAssignment(row rowScanner) (*models.ResponseAssignment, error) {
	var (
		e           models.ResponseAssignment
		status      string
		respondedAt sql.NullTime
	)
	if err := row.Scan(&e.ID, &e.AlertID, &e.VolunteerID, &status, &e.DistanceKm, &e.AssignedAt, &respondedAt); err != nil {
		return nil, err
	}
	e.Status = models.ResponseStatus(status)
	if respondedAt.Valid {
		e.RespondedAt = &respondedAt.Time
	}
	return &e, nil
}
