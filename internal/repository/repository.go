package repository

import (
	"context"
	"errors"
	"time"

	"sos-backend/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// DefaultTimeout bounds a single store call when the caller's context has no deadline.
const DefaultTimeout = 10 * time.Second

type AlertRepository interface {
	// Create inserts an active alert. It returns ErrDuplicate when the reporter
	// already has an active alert.
	Create(ctx context.Context, alert *models.Alert) error
	FindByID(ctx context.Context, id string) (*models.Alert, error)
	FindActiveByReporter(ctx context.Context, reporterID string) (*models.Alert, error)
	List(ctx context.Context, filter models.AlertFilter) ([]*models.Alert, error)
	// Resolve moves an active alert to resolved. It returns ErrNotFound when no
	// active alert with that id exists.
	Resolve(ctx context.Context, id string, at time.Time) error
	// Touch bumps updated_at, taking the row's write lock for the rest of the
	// surrounding transaction.
	Touch(ctx context.Context, id string, at time.Time) error
}

type VolunteerRepository interface {
	Create(ctx context.Context, v *models.Volunteer) error
	FindByID(ctx context.Context, id string) (*models.Volunteer, error)
	FindByEmail(ctx context.Context, email string) (*models.Volunteer, error)
	// ListVerified returns verified volunteers in creation order.
	ListVerified(ctx context.Context) ([]*models.Volunteer, error)
	UpdateLocation(ctx context.Context, id string, lat, lon float64, at time.Time) error
	SetVerified(ctx context.Context, id string, verified bool) error
}

type AssignmentRepository interface {
	// CreateMany inserts the entries; a duplicate (alert, volunteer) pair
	// yields ErrDuplicate.
	CreateMany(ctx context.Context, entries []*models.ResponseAssignment) error
	Find(ctx context.Context, alertID, volunteerID string) (*models.ResponseAssignment, error)
	ListByAlert(ctx context.Context, alertID string) ([]*models.ResponseAssignment, error)
	ListByVolunteer(ctx context.Context, volunteerID string) ([]*models.ResponseAssignment, error)
	// Respond sets the status of a pending entry. It returns ErrNotFound when
	// no pending entry exists for the pair.
	Respond(ctx context.Context, alertID, volunteerID string, status models.ResponseStatus, at time.Time) error
	CountByStatus(ctx context.Context, alertID string, status models.ResponseStatus) (int, error)
}

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type ReportRepository interface {
	Create(ctx context.Context, r *models.Report) error
	List(ctx context.Context) ([]*models.Report, error)
}

type LocationRepository interface {
	Append(ctx context.Context, sample *models.LiveLocation) error
	ListByAlert(ctx context.Context, alertID string) ([]*models.LiveLocation, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Repositories is the set of repositories bound to one unit of work.
type Repositories interface {
	Alerts() AlertRepository
	Volunteers() VolunteerRepository
	Assignments() AssignmentRepository
	Users() UserRepository
	Reports() ReportRepository
	Locations() LocationRepository
}

// Store is a durable store with transactional units of work.
type Store interface {
	Repositories
	// InTx runs fn inside one transaction. The transaction commits when fn
	// returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// WithTimeout applies DefaultTimeout unless ctx already carries a deadline.
func WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, DefaultTimeout)
}
