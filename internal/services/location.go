package services

import (
	"context"
	"time"

	"sos-backend/internal/models"
	"sos-backend/internal/realtime"
	"sos-backend/internal/repository"
	"sos-backend/pkg/geo"
	"sos-backend/pkg/ids"
)

// LocationService relays live positions between a reporter and the
// volunteers who accepted the alert.
type LocationService struct {
	store    repository.Store
	notifier realtime.Notifier
	now      func() time.Time
}

func NewLocationService(store repository.Store) *LocationService {
	return &LocationService{store: store, now: utcNow}
}

func (s *LocationService) SetNotifier(n realtime.Notifier) {
	s.notifier = n
}

type ShareLocationRequest struct {
	AlertID   string   `json:"alertId" validate:"required"`
	Latitude  *float64 `json:"lat" validate:"required"`
	Longitude *float64 `json:"lon" validate:"required"`
}

// ShareLocation appends a sample for an active alert and pushes it to the
// other participants.
func (s *LocationService) ShareLocation(ctx context.Context, caller models.Identity, req *ShareLocationRequest) (*models.LiveLocation, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if !geo.ValidLatitude(*req.Latitude) {
		return nil, invalidField("lat", "must be between -90 and 90")
	}
	if !geo.ValidLongitude(*req.Longitude) {
		return nil, invalidField("lon", "must be between -180 and 180")
	}

	alert, err := s.store.Alerts().FindByID(ctx, req.AlertID)
	if err != nil {
		return nil, lifecycleError("loading alert", err)
	}
	if err := authorizeOnAlert(ctx, s.store, caller, alert); err != nil {
		return nil, lifecycleError("authorizing location share", err)
	}
	if alert.IsResolved() {
		return nil, ErrAlreadyResolved
	}

	sample := &models.LiveLocation{
		ID:         ids.New(),
		AlertID:    alert.ID,
		SenderID:   caller.SubjectID,
		SenderRole: caller.Role,
		Latitude:   *req.Latitude,
		Longitude:  *req.Longitude,
		RecordedAt: s.now(),
	}
	if err := s.store.Locations().Append(ctx, sample); err != nil {
		return nil, persistence("appending location", err)
	}

	s.broadcast(ctx, alert, caller, sample)
	return sample, nil
}

func (s *LocationService) broadcast(ctx context.Context, alert *models.Alert, sender models.Identity, sample *models.LiveLocation) {
	if s.notifier == nil {
		return
	}

	event := realtime.Event{
		Type: realtime.EventLiveLocation,
		Data: map[string]any{
			"alertId":    alert.ID,
			"senderId":   sample.SenderID,
			"senderRole": sample.SenderRole,
			"lat":        sample.Latitude,
			"lon":        sample.Longitude,
		},
		Timestamp: sample.RecordedAt,
	}

	roster, err := s.store.Assignments().ListByAlert(ctx, alert.ID)
	if err == nil {
		for _, e := range roster {
			if e.Status != models.ResponseAccepted {
				continue
			}
			if sender.IsVolunteer() && e.VolunteerID == sender.SubjectID {
				continue
			}
			deliver(s.notifier, models.RecipientID(models.RoleVolunteer, e.VolunteerID), event)
		}
	}

	if sender.IsVolunteer() && alert.ReporterID != nil {
		deliver(s.notifier, models.RecipientID(models.RoleUser, *alert.ReporterID), event)
	}
}

// Trail returns the samples of an alert, oldest first, to its participants.
func (s *LocationService) Trail(ctx context.Context, caller models.Identity, alertID string) ([]*models.LiveLocation, error) {
	alert, err := s.store.Alerts().FindByID(ctx, alertID)
	if err != nil {
		return nil, lifecycleError("loading alert", err)
	}
	if err := authorizeOnAlert(ctx, s.store, caller, alert); err != nil {
		return nil, lifecycleError("authorizing location trail", err)
	}

	samples, err := s.store.Locations().ListByAlert(ctx, alertID)
	if err != nil {
		return nil, persistence("listing locations", err)
	}
	return samples, nil
}
