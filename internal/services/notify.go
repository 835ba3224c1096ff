package services

import (
	"context"
	"errors"
	"log/slog"

	"sos-backend/internal/models"
	"sos-backend/internal/realtime"
)

func (s *AlertService) send(recipientID, eventType string, data any) {
	deliver(s.notifier, recipientID, realtime.Event{Type: eventType, Data: data, Timestamp: s.now()})
}

// deliver is fire-and-forget: offline recipients are skipped and other
// failures only logged.
func deliver(n realtime.Notifier, recipientID string, event realtime.Event) {
	if n == nil {
		return
	}
	err := n.SendTo(recipientID, event)
	switch {
	case err == nil, errors.Is(err, realtime.ErrNotConnected):
	default:
		slog.Warn("realtime delivery failed", "recipient", recipientID, "type", event.Type, "error", err)
	}
}

func (s *AlertService) notifyAssigned(alert *models.Alert, roster []*models.ResponseAssignment) {
	for _, entry := range roster {
		s.send(models.RecipientID(models.RoleVolunteer, entry.VolunteerID), realtime.EventNewAlert, map[string]any{
			"alertId":    alert.ID,
			"code":       alert.Code,
			"message":    alert.Message,
			"level":      alert.Level,
			"category":   alert.Category,
			"lat":        alert.Latitude,
			"lon":        alert.Longitude,
			"distanceKm": entry.DistanceKm,
		})
	}
}

func (s *AlertService) notifyAccepted(alert *models.Alert, volunteerID string, accepted int) {
	if alert.ReporterID == nil {
		return
	}
	s.send(models.RecipientID(models.RoleUser, *alert.ReporterID), realtime.EventVolunteerAccepted, map[string]any{
		"alertId":       alert.ID,
		"volunteerId":   volunteerID,
		"acceptedCount": accepted,
	})
}

func (s *AlertService) notifyResolved(ctx context.Context, alert *models.Alert) {
	if s.notifier == nil {
		return
	}
	for _, id := range s.acceptedVolunteers(ctx, alert.ID) {
		s.send(models.RecipientID(models.RoleVolunteer, id), realtime.EventAlertResolved, map[string]any{
			"alertId":    alert.ID,
			"resolvedAt": alert.ResolvedAt,
		})
	}
}

func (s *AlertService) acceptedVolunteers(ctx context.Context, alertID string) []string {
	roster, err := s.store.Assignments().ListByAlert(ctx, alertID)
	if err != nil {
		slog.Warn("loading roster for notification failed", "alert_id", alertID, "error", err)
		return nil
	}
	var ids []string
	for _, e := range roster {
		if e.Status == models.ResponseAccepted {
			ids = append(ids, e.VolunteerID)
		}
	}
	return ids
}
