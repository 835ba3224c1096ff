// Package mongostore implements the repository interfaces on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"sos-backend/internal/repository"
	"sos-backend/pkg/database"

	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	db           *mongo.Database
	transactions bool

	alerts      *AlertRepository
	volunteers  *VolunteerRepository
	assignments *AssignmentRepository
	users       *UserRepository
	reports     *ReportRepository
	locations   *LocationRepository
}

// New wraps db. With transactions disabled (standalone servers) InTx runs fn
// without a session and multi-document writes are not atomic.
func New(db *mongo.Database, transactions bool) *Store {
	return &Store{
		db:           db,
		transactions: transactions,
		alerts:       &AlertRepository{collection: db.Collection("alerts")},
		volunteers:   &VolunteerRepository{collection: db.Collection("volunteers")},
		assignments:  &AssignmentRepository{collection: db.Collection("response_assignments")},
		users:        &UserRepository{collection: db.Collection("users")},
		reports:      &ReportRepository{collection: db.Collection("reports")},
		locations:    &LocationRepository{collection: db.Collection("live_locations")},
	}
}

// Open connects, ensures indexes and returns a ready store.
func Open(ctx context.Context, uri, dbName string, transactions bool) (*Store, error) {
	db, err := database.Connect(ctx, uri, dbName)
	if err != nil {
		return nil, err
	}
	if err := database.EnsureIndexes(ctx, db); err != nil {
		_ = database.Disconnect(ctx, db.Client())
		return nil, err
	}
	return New(db, transactions), nil
}

func (s *Store) Alerts() repository.AlertRepository           { return s.alerts }
func (s *Store) Volunteers() repository.VolunteerRepository   { return s.volunteers }
func (s *Store) Assignments() repository.AssignmentRepository { return s.assignments }
func (s *Store) Users() repository.UserRepository             { return s.users }
func (s *Store) Reports() repository.ReportRepository         { return s.reports }
func (s *Store) Locations() repository.LocationRepository     { return s.locations }

// InTx runs fn in a multi-document transaction. The session travels in the
// context handed to fn, so the shared repositories join it. Transient errors
// such as write conflicts are retried by the driver.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	if !s.transactions {
		return fn(ctx, s)
	}

	session, err := s.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("starting session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, s)
	})
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	return database.Health(ctx, s.db)
}

func (s *Store) Close(ctx context.Context) error {
	return database.Disconnect(ctx, s.db.Client())
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return repository.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", repository.ErrDuplicate, err)
	}
	return err
}

func decodeAll[T any](ctx context.Context, cursor *mongo.Cursor) ([]*T, error) {
	defer cursor.Close(ctx)

	var out []*T
	for cursor.Next(ctx) {
		var item T
		if err := cursor.Decode(&item); err != nil {
			return nil, err
		}
		out = append(out, &item)
	}
	return out, cursor.Err()
}
