package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"sos-backend/internal/models"
	"sos-backend/internal/repository"
)

type VolunteerRepository struct {
	q dbtx
	d Dialect
}

const volunteerColumns = `id, name, email, phone, city, password_hash, is_verified, is_active,
	latitude, longitude, location_updated_at, created_at`

func (r *VolunteerRepository) Create(ctx context.Context, v *models.Volunteer) error {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	query := r.d.rebind(`INSERT INTO volunteers (` + volunteerColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	var lat, lon sql.NullFloat64
	if v.Latitude != nil {
		lat = sql.NullFloat64{Float64: *v.Latitude, Valid: true}
	}
	if v.Longitude != nil {
		lon = sql.NullFloat64{Float64: *v.Longitude, Valid: true}
	}
	var locAt sql.NullTime
	if v.LocationUpdatedAt != nil {
		locAt = sql.NullTime{Time: *v.LocationUpdatedAt, Valid: true}
	}

	_, err := r.q.ExecContext(ctx, query,
		v.ID, v.Name, v.Email, v.Phone, v.City, v.PasswordHash, v.IsVerified, v.IsActive,
		lat, lon, locAt, v.CreatedAt,
	)
	return translate(err)
}

func (r *VolunteerRepository) FindByID(ctx context.Context, id string) (*models.Volunteer, error) {
	return r.queryOne(ctx, `SELECT `+volunteerColumns+` FROM volunteers WHERE id = ?`, id)
}

func (r *VolunteerRepository) FindByEmail(ctx context.Context, email string) (*models.Volunteer, error) {
	return r.queryOne(ctx, `SELECT `+volunteerColumns+` FROM volunteers WHERE email = ?`, email)
}

func (r *VolunteerRepository) queryOne(ctx context.Context, query string, args ...any) (*models.Volunteer, error) {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	v, err := scanVolunteer(r.q.QueryRowContext(ctx, r.d.rebind(query), args...))
	if err != nil {
		return nil, translate(err)
	}
	return v, nil
}

func (r *VolunteerRepository) ListVerified(ctx context.Context) ([]*models.Volunteer, error) {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	rows, err := r.q.QueryContext(ctx,
		`SELECT `+volunteerColumns+` FROM volunteers WHERE is_verified = TRUE ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Volunteer
	for rows.Next() {
		v, err := scanVolunteer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *VolunteerRepository) UpdateLocation(ctx context.Context, id string, lat, lon float64, at time.Time) error {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	query := r.d.rebind(`UPDATE volunteers SET latitude = ?, longitude = ?, location_updated_at = ? WHERE id = ?`)
	return affectedOne(r.q.ExecContext(ctx, query, lat, lon, at, id))
}

func (r *VolunteerRepository) SetVerified(ctx context.Context, id string, verified bool) error {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	return affectedOne(r.q.ExecContext(ctx, r.d.rebind(`UPDATE volunteers SET is_verified = ? WHERE id = ?`), verified, id))
}

func scanVolunteer(row rowScanner) (*models.Volunteer, error) {
	var (
		v        models.Volunteer
		lat, lon sql.NullFloat64
		locAt    sql.NullTime
	)
	err := row.Scan(&v.ID, &v.Name, &v.Email, &v.Phone, &v.City, &v.PasswordHash, &v.IsVerified, &v.IsActive,
		&lat, &lon, &locAt, &v.CreatedAt)
	if err != nil {
		return nil, err
	}

	if lat.Valid {
		v.Latitude = &lat.Float64
	}
	if lon.Valid {
		v.Longitude = &lon.Float64
	}
	if locAt.Valid {
		v.LocationUpdatedAt = &locAt.Time
	}
	return &v, nil
}
