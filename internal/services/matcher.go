package services

import (
	"sort"

	"sos-backend/internal/config"
	"sos-backend/internal/models"
	"sos-backend/pkg/geo"
)

// Candidate is a volunteer selected by the matcher with its distance to the alert.
type Candidate struct {
	Volunteer  *models.Volunteer `json:"volunteer"`
	DistanceKm float64           `json:"distanceKm"`
}

// MatchOptions bounds one matcher call. A Limit of zero means no cap.
type MatchOptions struct {
	MinRadiusKm float64
	MaxRadiusKm float64
	Limit       int
}

// VolunteerMatcher ranks verified volunteers by distance to a point.
type VolunteerMatcher struct {
	cfg config.MatchingConfig
}

func NewVolunteerMatcher(cfg config.MatchingConfig) *VolunteerMatcher {
	return &VolunteerMatcher{cfg: cfg}
}

// AssignmentOptions are the bounds used when building an alert's roster.
func (m *VolunteerMatcher) AssignmentOptions() MatchOptions {
	return MatchOptions{
		MinRadiusKm: m.cfg.MinRadiusKm,
		MaxRadiusKm: m.cfg.MaxRadiusKm,
		Limit:       m.cfg.RequiredVolunteers,
	}
}

// ProximityOptions are the bounds of a nearby lookup; radius <= 0 uses the
// configured nearby radius.
func (m *VolunteerMatcher) ProximityOptions(radiusKm float64) MatchOptions {
	if radiusKm <= 0 {
		radiusKm = m.cfg.NearbyRadiusKm
	}
	return MatchOptions{
		MinRadiusKm: m.cfg.MinRadiusKm,
		MaxRadiusKm: radiusKm,
		Limit:       m.cfg.MaxVolunteersNotified,
	}
}

// Match filters pool to matchable volunteers within the radius band and
// returns them nearest first. Equal distances keep pool order.
func (m *VolunteerMatcher) Match(origin geo.Point, pool []*models.Volunteer, opts MatchOptions) []Candidate {
	var out []Candidate
	for _, v := range pool {
		if v == nil || !v.Matchable() {
			continue
		}
		d := geo.DistanceKm(origin.Lat, origin.Lon, *v.Latitude, *v.Longitude)
		if d < opts.MinRadiusKm || d > opts.MaxRadiusKm {
			continue
		}
		out = append(out, Candidate{Volunteer: v, DistanceKm: d})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceKm < out[j].DistanceKm
	})

	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}
