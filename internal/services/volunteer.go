package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"sos-backend/internal/models"
	"sos-backend/internal/repository"
	"sos-backend/pkg/geo"
	"sos-backend/pkg/ids"
)

type VolunteerService struct {
	volunteers      repository.VolunteerRepository
	assignments     repository.AssignmentRepository
	directory       *VolunteerDirectory
	matcher         *VolunteerMatcher
	defaultVerified bool
	minMoveKm       float64
	now             func() time.Time
}

// VolunteerOptions are the signup and location knobs of VolunteerService.
type VolunteerOptions struct {
	DefaultVerified bool
	MinMoveMeters   float64
}

func NewVolunteerService(repos repository.Repositories, directory *VolunteerDirectory, matcher *VolunteerMatcher, opts VolunteerOptions) *VolunteerService {
	return &VolunteerService{
		volunteers:      repos.Volunteers(),
		assignments:     repos.Assignments(),
		directory:       directory,
		matcher:         matcher,
		defaultVerified: opts.DefaultVerified,
		minMoveKm:       opts.MinMoveMeters / 1000,
		now:             utcNow,
	}
}

type VolunteerSignupRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"max=32"`
	City     string `json:"city" validate:"max=100"`
	Password string `json:"password" validate:"required,min=6"`
}

func (s *VolunteerService) Signup(ctx context.Context, req *VolunteerSignupRequest) (*models.Volunteer, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	v := &models.Volunteer{
		ID:           ids.New(),
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		City:         req.City,
		PasswordHash: string(hash),
		IsVerified:   s.defaultVerified,
		IsActive:     true,
		CreatedAt:    s.now(),
	}

	if err := s.volunteers.Create(ctx, v); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrConflict
		}
		return nil, persistence("creating volunteer", err)
	}

	if v.IsVerified {
		s.directory.Invalidate(ctx)
	}
	slog.Info("volunteer registered", "volunteer_id", v.ID, "verified", v.IsVerified)
	return v, nil
}

// UpdateLocation stores the caller's position. Moves shorter than the
// configured threshold are not written.
func (s *VolunteerService) UpdateLocation(ctx context.Context, caller models.Identity, lat, lon float64) (*models.Volunteer, error) {
	if !caller.IsVolunteer() {
		return nil, ErrUnauthorized
	}
	if !geo.ValidLatitude(lat) {
		return nil, invalidField("lat", "must be between -90 and 90")
	}
	if !geo.ValidLongitude(lon) {
		return nil, invalidField("lon", "must be between -180 and 180")
	}

	v, err := s.volunteers.FindByID(ctx, caller.SubjectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, persistence("loading volunteer", err)
	}

	if v.HasLocation() && geo.DistanceKm(*v.Latitude, *v.Longitude, lat, lon) < s.minMoveKm {
		return v, nil
	}

	at := s.now()
	if err := s.volunteers.UpdateLocation(ctx, v.ID, lat, lon, at); err != nil {
		return nil, persistence("updating volunteer location", err)
	}
	v.Latitude, v.Longitude, v.LocationUpdatedAt = &lat, &lon, &at
	return v, nil
}

// SetVerified flips the verification flag and drops the directory snapshot.
func (s *VolunteerService) SetVerified(ctx context.Context, volunteerID string, verified bool) error {
	if err := s.volunteers.SetVerified(ctx, volunteerID, verified); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return persistence("updating verification", err)
	}
	s.directory.Invalidate(ctx)
	slog.Info("volunteer verification changed", "volunteer_id", volunteerID, "verified", verified)
	return nil
}

// Nearby lists verified volunteers around a point, nearest first. Zero radius
// and limit fall back to the configured nearby lookup bounds.
func (s *VolunteerService) Nearby(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]Candidate, error) {
	if !geo.ValidLatitude(lat) {
		return nil, invalidField("lat", "must be between -90 and 90")
	}
	if !geo.ValidLongitude(lon) {
		return nil, invalidField("lon", "must be between -180 and 180")
	}
	if radiusKm < 0 {
		return nil, invalidField("radius", "must not be negative")
	}
	if limit < 0 {
		return nil, invalidField("cap", "must not be negative")
	}

	pool, err := s.directory.Candidates(ctx)
	if err != nil {
		return nil, err
	}

	opts := s.matcher.ProximityOptions(radiusKm)
	if limit > 0 {
		opts.Limit = limit
	}
	return s.matcher.Match(geo.Point{Lat: lat, Lon: lon}, pool, opts), nil
}

// Assignments lists the caller's roster entries, newest first.
func (s *VolunteerService) Assignments(ctx context.Context, caller models.Identity) ([]*models.ResponseAssignment, error) {
	if !caller.IsVolunteer() {
		return nil, ErrUnauthorized
	}
	entries, err := s.assignments.ListByVolunteer(ctx, caller.SubjectID)
	if err != nil {
		return nil, persistence("listing assignments", err)
	}
	return entries, nil
}
