package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sos-backend/internal/models"
	"sos-backend/pkg/geo"
)

func vol(id string, verified bool, lat, lon *float64) *models.Volunteer {
	return &models.Volunteer{ID: id, IsVerified: verified, IsActive: true, Latitude: lat, Longitude: lon}
}

func f64(v float64) *float64 { return &v }

func TestMatch_FiltersSortsAndCaps(t *testing.T) {
	m := NewVolunteerMatcher(testMatching)
	origin := geo.Point{Lat: originLat, Lon: originLon}

	pool := []*models.Volunteer{
		vol("far", true, f64(lat25km), f64(originLon)),
		vol("eight", true, f64(lat8km), f64(originLon)),
		vol("unverified", false, f64(originLat), f64(originLon)),
		vol("no-location", true, nil, nil),
		vol("half-location", true, f64(originLat), nil),
		vol("two", true, f64(lat2km), f64(originLon)),
		vol("half", true, f64(lat500m), f64(originLon)),
		nil,
	}

	got := m.Match(origin, pool, m.AssignmentOptions())
	ids := make([]string, 0, len(got))
	for _, c := range got {
		ids = append(ids, c.Volunteer.ID)
		assert.LessOrEqual(t, c.DistanceKm, testMatching.MaxRadiusKm)
	}
	assert.Equal(t, []string{"half", "two", "eight"}, ids)
	assert.InDelta(t, 0.5, got[0].DistanceKm, 1e-6)
}

func TestMatch_StableForEqualDistances(t *testing.T) {
	m := NewVolunteerMatcher(testMatching)
	origin := geo.Point{Lat: originLat, Lon: originLon}

	pool := []*models.Volunteer{
		vol("c", true, f64(lat2km), f64(originLon)),
		vol("a", true, f64(lat2km), f64(originLon)),
		vol("b", true, f64(lat2km), f64(originLon)),
	}
	got := m.Match(origin, pool, MatchOptions{MaxRadiusKm: 20})
	assert.Len(t, got, 3)
	assert.Equal(t, "c", got[0].Volunteer.ID)
	assert.Equal(t, "a", got[1].Volunteer.ID)
	assert.Equal(t, "b", got[2].Volunteer.ID)
}

func TestMatch_EmptyPool(t *testing.T) {
	m := NewVolunteerMatcher(testMatching)
	assert.Empty(t, m.Match(geo.Point{Lat: originLat, Lon: originLon}, nil, m.AssignmentOptions()))
}

func TestMatch_RadiusBand(t *testing.T) {
	m := NewVolunteerMatcher(testMatching)
	pool := []*models.Volunteer{
		vol("at-origin", true, f64(originLat), f64(originLon)),
		vol("two", true, f64(lat2km), f64(originLon)),
	}
	got := m.Match(geo.Point{Lat: originLat, Lon: originLon}, pool, MatchOptions{MinRadiusKm: 1, MaxRadiusKm: 20})
	assert.Len(t, got, 1)
	assert.Equal(t, "two", got[0].Volunteer.ID)
}

func TestProximityOptions(t *testing.T) {
	m := NewVolunteerMatcher(testMatching)

	def := m.ProximityOptions(0)
	assert.Equal(t, 1.0, def.MaxRadiusKm)
	assert.Equal(t, 5, def.Limit)

	wide := m.ProximityOptions(10)
	assert.Equal(t, 10.0, wide.MaxRadiusKm)

	assign := m.AssignmentOptions()
	assert.Equal(t, 20.0, assign.MaxRadiusKm)
	assert.Equal(t, 3, assign.Limit)
}
