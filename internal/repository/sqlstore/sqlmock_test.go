package sqlstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"sos-backend/internal/models"
	"sos-backend/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, Postgres), mock
}

func TestInTxRollsBackWhenAssignmentInsertFails(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO alerts`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO response_assignments`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := s.InTx(context.Background(), func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.Alerts().Create(ctx, newAlert(nil)); err != nil {
			return err
		}
		return repos.Assignments().CreateMany(ctx, []*models.ResponseAssignment{
			{ID: "a1", AlertID: "x", VolunteerID: "v", Status: models.ResponsePending, AssignedAt: time.Now().UTC()},
		})
	})
	assert.EqualError(t, err, "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInTxReportsCommitFailure(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO alerts`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(errors.New("connection reset"))

	err := s.InTx(context.Background(), func(ctx context.Context, repos repository.Repositories) error {
		return repos.Alerts().Create(ctx, newAlert(nil))
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "committing transaction")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertCreateConflictIsDuplicate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO alerts .* ON CONFLICT DO NOTHING`).WillReturnResult(sqlmock.NewResult(0, 0))

	reporter := "user-1"
	err := s.Alerts().Create(context.Background(), newAlert(&reporter))
	assert.ErrorIs(t, err, repository.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRespondUsesPostgresPlaceholders(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE response_assignments SET status = \$1, responded_at = \$2\s+WHERE alert_id = \$3 AND volunteer_id = \$4 AND status = 'pending'`).
		WithArgs("accepted", sqlmock.AnyArg(), "alert-1", "vol-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Assignments().Respond(context.Background(), "alert-1", "vol-1", models.ResponseAccepted, time.Now().UTC())
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
