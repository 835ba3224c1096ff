package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sos-backend/internal/models"
	"sos-backend/internal/realtime"
)

func shareAt(alertID string, lat, lon float64) *ShareLocationRequest {
	return &ShareLocationRequest{AlertID: alertID, Latitude: &lat, Longitude: &lon}
}

func TestShareLocation(t *testing.T) {
	f := newFixture(t)
	reporter := f.user(t)
	accepted := f.volunteer(t, true, lat500m, originLon)
	pending := f.volunteer(t, true, lat2km, originLon)

	res, err := f.alerts.CreateAlert(f.ctx, &reporter, alertRequest(models.LevelRed))
	require.NoError(t, err)
	_, err = f.alerts.Respond(f.ctx, volunteerID(accepted), res.Alert.ID, models.ActionAccept)
	require.NoError(t, err)

	svc := NewLocationService(f.store)
	notifier := newNotifier()
	svc.SetNotifier(notifier)

	sample, err := svc.ShareLocation(f.ctx, reporter, shareAt(res.Alert.ID, originLat, originLon))
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, sample.SenderRole)
	assert.Equal(t, []string{"volunteer:" + accepted.ID}, notifier.sentTo(realtime.EventLiveLocation))

	_, err = svc.ShareLocation(f.ctx, volunteerID(accepted), shareAt(res.Alert.ID, lat500m, originLon))
	require.NoError(t, err)
	assert.Equal(t, []string{"volunteer:" + accepted.ID, "user:" + reporter.SubjectID}, notifier.sentTo(realtime.EventLiveLocation))

	_, err = svc.ShareLocation(f.ctx, volunteerID(pending), shareAt(res.Alert.ID, lat2km, originLon))
	assert.ErrorIs(t, err, ErrUnauthorized)

	trail, err := svc.Trail(f.ctx, reporter, res.Alert.ID)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, reporter.SubjectID, trail[0].SenderID)
	assert.Equal(t, accepted.ID, trail[1].SenderID)

	_, err = f.alerts.ResolveAlert(f.ctx, reporter, res.Alert.ID)
	require.NoError(t, err)
	_, err = svc.ShareLocation(f.ctx, reporter, shareAt(res.Alert.ID, originLat, originLon))
	assert.ErrorIs(t, err, ErrAlreadyResolved)
}

func TestShareLocation_Errors(t *testing.T) {
	f := newFixture(t)
	reporter := f.user(t)
	svc := NewLocationService(f.store)

	_, err := svc.ShareLocation(f.ctx, reporter, shareAt("missing", originLat, originLon))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.ShareLocation(f.ctx, reporter, shareAt("missing", 100, originLon))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.ShareLocation(f.ctx, reporter, &ShareLocationRequest{AlertID: "x"})
	assert.ErrorIs(t, err, ErrValidation)
}
