package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sos-backend/internal/config"
	"sos-backend/internal/models"
	"sos-backend/internal/realtime"
	"sos-backend/internal/repository"
	"sos-backend/internal/repository/sqlstore"
	"sos-backend/pkg/ids"
)

const (
	originLat = 12.9716
	originLon = 77.5946
)

// Latitudes due north of the origin at the given distance.
const (
	lat500m = 12.976096608029595
	lat1500 = 12.985089824088782
	lat2km  = 12.989586432118376
	lat8km  = 13.043545728473498
	lat25km = 13.196430401479683
)

var testMatching = config.MatchingConfig{
	MinRadiusKm:           0,
	MaxRadiusKm:           20,
	RequiredVolunteers:    3,
	MaxVolunteersNotified: 5,
	NearbyRadiusKm:        1,
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) SendTo(recipientID string, event realtime.Event) error {
	args := m.Called(recipientID, event)
	return args.Error(0)
}

func newNotifier() *mockNotifier {
	n := &mockNotifier{}
	n.On("SendTo", mock.Anything, mock.Anything).Return(nil)
	return n
}

// sentTo returns the recipients of events of the given type.
func (m *mockNotifier) sentTo(eventType string) []string {
	var out []string
	for _, call := range m.Calls {
		if call.Method != "SendTo" {
			continue
		}
		if ev := call.Arguments.Get(1).(realtime.Event); ev.Type == eventType {
			out = append(out, call.Arguments.String(0))
		}
	}
	return out
}

type fixture struct {
	ctx       context.Context
	store     *sqlstore.Store
	directory *VolunteerDirectory
	matcher   *VolunteerMatcher
	alerts    *AlertService
	notifier  *mockNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store, err := sqlstore.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close(ctx) })

	directory := NewVolunteerDirectory(store.Volunteers())
	matcher := NewVolunteerMatcher(testMatching)
	alerts := NewAlertService(store, directory, matcher)
	notifier := newNotifier()
	alerts.SetNotifier(notifier)

	return &fixture{
		ctx:       ctx,
		store:     store,
		directory: directory,
		matcher:   matcher,
		alerts:    alerts,
		notifier:  notifier,
	}
}

func (f *fixture) volunteer(t *testing.T, verified bool, lat, lon float64) *models.Volunteer {
	t.Helper()
	id := ids.New()
	v := &models.Volunteer{
		ID:           id,
		Name:         "volunteer " + id,
		Email:        id + "@example.com",
		PasswordHash: "x",
		IsVerified:   verified,
		IsActive:     true,
		Latitude:     &lat,
		Longitude:    &lon,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, f.store.Volunteers().Create(f.ctx, v))
	return v
}

func (f *fixture) user(t *testing.T) models.Identity {
	t.Helper()
	u := &models.User{ID: ids.New(), Name: "reporter", PasswordHash: "x", CreatedAt: time.Now().UTC()}
	u.Email = u.ID + "@example.com"
	require.NoError(t, f.store.Users().Create(f.ctx, u))
	return models.Identity{SubjectID: u.ID, Role: models.RoleUser}
}

func volunteerID(v *models.Volunteer) models.Identity {
	return models.Identity{SubjectID: v.ID, Role: models.RoleVolunteer}
}

func alertRequest(level models.AlertLevel) *CreateAlertRequest {
	lat, lon := originLat, originLon
	return &CreateAlertRequest{
		Code:      "SOS",
		Level:     level,
		Category:  "medical",
		Latitude:  &lat,
		Longitude: &lon,
	}
}

func rosterByVolunteer(t *testing.T, repos repository.Repositories, alertID string) map[string]models.ResponseStatus {
	t.Helper()
	entries, err := repos.Assignments().ListByAlert(context.Background(), alertID)
	require.NoError(t, err)
	out := make(map[string]models.ResponseStatus, len(entries))
	for _, e := range entries {
		out[e.VolunteerID] = e.Status
	}
	return out
}
