package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"sos-backend/internal/models"
	"sos-backend/internal/realtime"
	"sos-backend/internal/repository"
	"sos-backend/pkg/geo"
	"sos-backend/pkg/ids"
	"sos-backend/pkg/metrics"
)

var errActiveAlertExists = errors.New("reporter has an active alert")

// AlertService owns the alert lifecycle: creation with dedup, roster
// assignment and resolution.
type AlertService struct {
	store     repository.Store
	directory *VolunteerDirectory
	matcher   *VolunteerMatcher
	notifier  realtime.Notifier
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewAlertService(store repository.Store, directory *VolunteerDirectory, matcher *VolunteerMatcher) *AlertService {
	return &AlertService{
		store:     store,
		directory: directory,
		matcher:   matcher,
		now:       utcNow,
	}
}

// SetNotifier enables realtime events for assignments, acceptances and resolution.
func (s *AlertService) SetNotifier(n realtime.Notifier) {
	s.notifier = n
}

func (s *AlertService) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

type CreateAlertRequest struct {
	Code       string            `json:"code" validate:"required,max=32"`
	Message    string            `json:"message" validate:"max=1000"`
	Level      models.AlertLevel `json:"level" validate:"required,oneof=green yellow red"`
	Category   string            `json:"category" validate:"required,max=64"`
	PanicLevel *int              `json:"panicLevel" validate:"omitempty,min=1"`
	Latitude   *float64          `json:"lat" validate:"required,min=-90,max=90"`
	Longitude  *float64          `json:"lon" validate:"required,min=-180,max=180"`
}

// CreateAlertResult reports whether the alert was created by this call or is
// the reporter's already active alert.
type CreateAlertResult struct {
	Alert       *models.Alert                `json:"alert"`
	Created     bool                         `json:"created"`
	Assignments []*models.ResponseAssignment `json:"assignments,omitempty"`
}

// CreateAlert raises an alert. A nil caller creates an anonymous alert.
// Yellow and red alerts get a roster of the nearest verified volunteers,
// committed together with the alert.
func (s *AlertService) CreateAlert(ctx context.Context, caller *models.Identity, req *CreateAlertRequest) (*CreateAlertResult, error) {
	var reporterID *string
	if caller != nil {
		if caller.Role != models.RoleUser {
			return nil, ErrUnauthorized
		}
		id := caller.SubjectID
		reporterID = &id
	}

	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if !geo.ValidLatitude(*req.Latitude) || !geo.ValidLongitude(*req.Longitude) {
		return nil, invalidField("lat", "coordinate out of range")
	}

	if reporterID != nil {
		existing, err := s.store.Alerts().FindActiveByReporter(ctx, *reporterID)
		switch {
		case err == nil:
			s.deduplicated(existing)
			return &CreateAlertResult{Alert: existing}, nil
		case !errors.Is(err, repository.ErrNotFound):
			return nil, persistence("looking up active alert", err)
		}
	}

	panicLevel := 1
	if req.PanicLevel != nil {
		panicLevel = *req.PanicLevel
	}

	now := s.now()
	alert := &models.Alert{
		ID:         ids.New(),
		ReporterID: reporterID,
		Code:       req.Code,
		Message:    req.Message,
		Level:      req.Level,
		Category:   req.Category,
		PanicLevel: panicLevel,
		Status:     models.AlertActive,
		Latitude:   *req.Latitude,
		Longitude:  *req.Longitude,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	var candidates []Candidate
	if alert.Level.RequiresAssignment() {
		pool, err := s.directory.Candidates(ctx)
		if err != nil {
			return nil, err
		}
		candidates = s.matcher.Match(geo.Point{Lat: alert.Latitude, Lon: alert.Longitude}, pool, s.matcher.AssignmentOptions())
	}

	roster := buildRoster(alert, candidates, now)

	err := s.store.InTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.Alerts().Create(ctx, alert); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return errActiveAlertExists
			}
			return err
		}
		return repos.Assignments().CreateMany(ctx, roster)
	})

	if errors.Is(err, errActiveAlertExists) && reporterID != nil {
		// lost a race with a concurrent creation from the same reporter
		existing, ferr := s.store.Alerts().FindActiveByReporter(ctx, *reporterID)
		if ferr != nil {
			return nil, persistence("loading concurrent active alert", ferr)
		}
		s.deduplicated(existing)
		return &CreateAlertResult{Alert: existing}, nil
	}
	if err != nil {
		return nil, persistence("creating alert", err)
	}

	slog.Info("alert created",
		"alert_id", alert.ID,
		"level", alert.Level,
		"anonymous", reporterID == nil,
		"assigned", len(roster),
	)
	if s.metrics != nil {
		s.metrics.AlertsCreated.WithLabelValues(string(alert.Level)).Inc()
		s.metrics.AssignmentsCreated.Add(float64(len(roster)))
	}
	s.notifyAssigned(alert, roster)

	return &CreateAlertResult{Alert: alert, Created: true, Assignments: roster}, nil
}

func buildRoster(alert *models.Alert, candidates []Candidate, now time.Time) []*models.ResponseAssignment {
	if len(candidates) == 0 {
		return nil
	}
	roster := make([]*models.ResponseAssignment, 0, len(candidates))
	for _, c := range candidates {
		roster = append(roster, &models.ResponseAssignment{
			ID:          ids.New(),
			AlertID:     alert.ID,
			VolunteerID: c.Volunteer.ID,
			Status:      models.ResponsePending,
			DistanceKm:  c.DistanceKm,
			AssignedAt:  now,
		})
	}
	return roster
}

func (s *AlertService) deduplicated(existing *models.Alert) {
	slog.Info("returning existing active alert", "alert_id", existing.ID)
	if s.metrics != nil {
		s.metrics.AlertsDeduplicated.Inc()
	}
}

// ResolveAlert closes an alert. An identified reporter's alert may be closed
// by that reporter or a volunteer who accepted it; an anonymous alert by any
// authenticated caller.
func (s *AlertService) ResolveAlert(ctx context.Context, caller models.Identity, alertID string) (*models.Alert, error) {
	var resolved *models.Alert

	err := s.store.InTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		alert, err := repos.Alerts().FindByID(ctx, alertID)
		if err != nil {
			return err
		}

		if alert.ReporterID != nil {
			if err := authorizeOnAlert(ctx, repos, caller, alert); err != nil {
				return err
			}
		}

		if alert.IsResolved() {
			return ErrAlreadyResolved
		}

		at := s.now()
		if err := repos.Alerts().Resolve(ctx, alert.ID, at); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrAlreadyResolved
			}
			return err
		}

		alert.Status = models.AlertResolved
		alert.ResolvedAt = &at
		alert.UpdatedAt = at
		resolved = alert
		return nil
	})
	if err != nil {
		return nil, lifecycleError("resolving alert", err)
	}

	slog.Info("alert resolved", "alert_id", resolved.ID, "by", caller.RecipientID())
	if s.metrics != nil {
		s.metrics.AlertsResolved.Inc()
	}
	s.notifyResolved(ctx, resolved)

	return resolved, nil
}

// authorizeOnAlert allows the reporter and volunteers who accepted the alert.
func authorizeOnAlert(ctx context.Context, repos repository.Repositories, caller models.Identity, alert *models.Alert) error {
	switch caller.Role {
	case models.RoleUser:
		if alert.ReportedBy(caller.SubjectID) {
			return nil
		}
	case models.RoleVolunteer:
		entry, err := repos.Assignments().Find(ctx, alert.ID, caller.SubjectID)
		if err == nil && entry.Status == models.ResponseAccepted {
			return nil
		}
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
	}
	return ErrUnauthorized
}

// AlertDetail is an alert together with its roster.
type AlertDetail struct {
	Alert         *models.Alert                `json:"alert"`
	Roster        []*models.ResponseAssignment `json:"roster"`
	AcceptedCount int                          `json:"acceptedCount"`
}

func (s *AlertService) GetAlert(ctx context.Context, alertID string) (*AlertDetail, error) {
	alert, err := s.store.Alerts().FindByID(ctx, alertID)
	if err != nil {
		return nil, lifecycleError("loading alert", err)
	}

	roster, err := s.store.Assignments().ListByAlert(ctx, alertID)
	if err != nil {
		return nil, persistence("loading roster", err)
	}

	detail := &AlertDetail{Alert: alert, Roster: roster}
	for _, e := range roster {
		if e.Status == models.ResponseAccepted {
			detail.AcceptedCount++
		}
	}
	return detail, nil
}

func (s *AlertService) ListAlerts(ctx context.Context, filter models.AlertFilter) ([]*models.Alert, error) {
	if filter.Status != "" && filter.Status != models.AlertActive && filter.Status != models.AlertResolved {
		return nil, invalidField("status", "must be one of active resolved")
	}
	alerts, err := s.store.Alerts().List(ctx, filter)
	if err != nil {
		return nil, persistence("listing alerts", err)
	}
	return alerts, nil
}

// lifecycleError keeps domain errors and maps store failures.
func lifecycleError(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrAlreadyResolved),
		errors.Is(err, ErrAlreadyResponded),
		errors.Is(err, ErrInvalidAction),
		errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrValidation):
		return err
	}
	return persistence(op, err)
}

func utcNow() time.Time { return time.Now().UTC() }
