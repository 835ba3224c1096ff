package services

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sos-backend/internal/models"
)

func newVolunteerService(f *fixture, defaultVerified bool) *VolunteerService {
	return NewVolunteerService(f.store, f.directory, f.matcher, VolunteerOptions{
		DefaultVerified: defaultVerified,
		MinMoveMeters:   10,
	})
}

func signupRequest(email string) *VolunteerSignupRequest {
	return &VolunteerSignupRequest{Name: "Asha", Email: email, City: "Bengaluru", Password: "secret123"}
}

func TestVolunteerSignup(t *testing.T) {
	f := newFixture(t)
	svc := newVolunteerService(f, false)

	v, err := svc.Signup(f.ctx, signupRequest(" Asha@Example.com "))
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", v.Email)
	assert.False(t, v.IsVerified)
	assert.True(t, v.IsActive)
	assert.NotEqual(t, "secret123", v.PasswordHash)

	_, err = svc.Signup(f.ctx, signupRequest("asha@example.com"))
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.Signup(f.ctx, &VolunteerSignupRequest{Name: "x", Email: "not-an-email", Password: "secret123"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestVolunteerSignup_DefaultVerifiedPolicy(t *testing.T) {
	f := newFixture(t)
	v, err := newVolunteerService(f, true).Signup(f.ctx, signupRequest("v@example.com"))
	require.NoError(t, err)
	assert.True(t, v.IsVerified)
}

func TestVolunteerUpdateLocation(t *testing.T) {
	f := newFixture(t)
	svc := newVolunteerService(f, false)
	v := f.volunteer(t, true, originLat, originLon)

	_, err := svc.UpdateLocation(f.ctx, models.Identity{SubjectID: v.ID, Role: models.RoleUser}, 1, 1)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.UpdateLocation(f.ctx, volunteerID(v), 95, 1)
	assert.ErrorIs(t, err, ErrValidation)

	// a few meters north is below the move threshold
	same, err := svc.UpdateLocation(f.ctx, volunteerID(v), originLat+0.00002, originLon)
	require.NoError(t, err)
	assert.Equal(t, originLat, *same.Latitude)

	moved, err := svc.UpdateLocation(f.ctx, volunteerID(v), lat2km, originLon)
	require.NoError(t, err)
	assert.Equal(t, lat2km, *moved.Latitude)

	stored, err := f.store.Volunteers().FindByID(f.ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, lat2km, *stored.Latitude)
	assert.NotNil(t, stored.LocationUpdatedAt)

	_, err = svc.UpdateLocation(f.ctx, models.Identity{SubjectID: "ghost", Role: models.RoleVolunteer}, 1, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVolunteerNearby(t *testing.T) {
	f := newFixture(t)
	svc := newVolunteerService(f, false)
	v500 := f.volunteer(t, true, lat500m, originLon)
	f.volunteer(t, true, lat1500, originLon)
	v2 := f.volunteer(t, true, lat2km, originLon)
	f.volunteer(t, false, originLat, originLon)

	within1km, err := svc.Nearby(f.ctx, originLat, originLon, 0, 0)
	require.NoError(t, err)
	require.Len(t, within1km, 1)
	assert.Equal(t, v500.ID, within1km[0].Volunteer.ID)

	wider, err := svc.Nearby(f.ctx, originLat, originLon, 5, 0)
	require.NoError(t, err)
	require.Len(t, wider, 3)
	assert.Equal(t, v2.ID, wider[2].Volunteer.ID)
	for i := 1; i < len(wider); i++ {
		assert.LessOrEqual(t, wider[i-1].DistanceKm, wider[i].DistanceKm)
	}

	capped, err := svc.Nearby(f.ctx, originLat, originLon, 5, 2)
	require.NoError(t, err)
	assert.Len(t, capped, 2)

	_, err = svc.Nearby(f.ctx, 100, originLon, 0, 0)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Nearby(f.ctx, originLat, originLon, -1, 0)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestVolunteerSetVerifiedInvalidatesDirectoryCache(t *testing.T) {
	f := newFixture(t)
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	f.directory.SetCache(newTestCache(client), testDirectoryTTL)

	svc := newVolunteerService(f, false)
	v := f.volunteer(t, false, lat500m, originLon)

	none, err := svc.Nearby(f.ctx, originLat, originLon, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, none)

	require.NoError(t, svc.SetVerified(f.ctx, v.ID, true))

	found, err := svc.Nearby(f.ctx, originLat, originLon, 0, 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, v.ID, found[0].Volunteer.ID)

	assert.ErrorIs(t, svc.SetVerified(f.ctx, "ghost", true), ErrNotFound)
}

func TestVolunteerAssignments(t *testing.T) {
	f := newFixture(t)
	svc := newVolunteerService(f, false)
	v := f.volunteer(t, true, lat2km, originLon)

	first, err := f.alerts.CreateAlert(f.ctx, nil, alertRequest(models.LevelRed))
	require.NoError(t, err)
	second, err := f.alerts.CreateAlert(f.ctx, nil, alertRequest(models.LevelYellow))
	require.NoError(t, err)

	entries, err := svc.Assignments(f.ctx, volunteerID(v))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.ElementsMatch(t, []string{first.Alert.ID, second.Alert.ID}, []string{entries[0].AlertID, entries[1].AlertID})

	_, err = svc.Assignments(f.ctx, models.Identity{SubjectID: v.ID, Role: models.RoleUser})
	assert.ErrorIs(t, err, ErrUnauthorized)
}
