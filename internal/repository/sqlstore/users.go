package sqlstore

import (
	"context"

	"sos-backend/internal/models"
	"sos-backend/internal/repository"
)

type UserRepository struct {
	q dbtx
	d Dialect
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	query := r.d.rebind(`INSERT INTO users (id, name, email, phone, password_hash, created_at) VALUES (?, ?, ?, ?, ?, ?)`)
	_, err := r.q.ExecContext(ctx, query, u.ID, u.Name, u.Email, u.Phone, u.PasswordHash, u.CreatedAt)
	return translate(err)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.queryOne(ctx, `SELECT id, name, email, phone, password_hash, created_at FROM users WHERE id = ?`, id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.queryOne(ctx, `SELECT id, name, email, phone, password_hash, created_at FROM users WHERE email = ?`, email)
}

func (r *UserRepository) queryOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	var u models.User
	err := r.q.QueryRowContext(ctx, r.d.rebind(query), args...).
		Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}
