package services

import (
	"context"
	"errors"
	"log/slog"

	"sos-backend/internal/models"
	"sos-backend/internal/repository"
)

// RespondResult is the outcome of a volunteer's response.
type RespondResult struct {
	AlertID       string                `json:"alertId"`
	Status        models.ResponseStatus `json:"status"`
	AcceptedCount int                   `json:"acceptedCount"`
}

// Respond records an assigned volunteer's accept or reject. Responses to the
// same alert are serialised so AcceptedCount includes every earlier accept.
func (s *AlertService) Respond(ctx context.Context, caller models.Identity, alertID string, action models.ResponseAction) (*RespondResult, error) {
	if !caller.IsVolunteer() {
		return nil, ErrUnauthorized
	}

	var (
		result *RespondResult
		alert  *models.Alert
	)

	err := s.store.InTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		now := s.now()

		if err := repos.Alerts().Touch(ctx, alertID, now); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNotAssigned
			}
			return err
		}

		entry, err := repos.Assignments().Find(ctx, alertID, caller.SubjectID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNotAssigned
			}
			return err
		}
		if entry.Status != models.ResponsePending {
			return ErrAlreadyResponded
		}

		status, ok := action.Status()
		if !ok {
			return ErrInvalidAction
		}

		if err := repos.Assignments().Respond(ctx, alertID, caller.SubjectID, status, now); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrAlreadyResponded
			}
			return err
		}

		accepted, err := repos.Assignments().CountByStatus(ctx, alertID, models.ResponseAccepted)
		if err != nil {
			return err
		}

		if status == models.ResponseAccepted {
			if alert, err = repos.Alerts().FindByID(ctx, alertID); err != nil {
				return err
			}
		}

		result = &RespondResult{AlertID: alertID, Status: status, AcceptedCount: accepted}
		return nil
	})
	if err != nil {
		return nil, lifecycleError("recording response", err)
	}

	slog.Info("volunteer responded",
		"alert_id", alertID,
		"volunteer_id", caller.SubjectID,
		"status", result.Status,
		"accepted", result.AcceptedCount,
	)
	if s.metrics != nil {
		s.metrics.Responses.WithLabelValues(string(result.Status)).Inc()
	}
	if alert != nil {
		s.notifyAccepted(alert, caller.SubjectID, result.AcceptedCount)
	}

	return result, nil
}

// AcceptedCount is the number of accepted roster entries for an alert.
func (s *AlertService) AcceptedCount(ctx context.Context, alertID string) (int, error) {
	if _, err := s.store.Alerts().FindByID(ctx, alertID); err != nil {
		return 0, lifecycleError("loading alert", err)
	}
	n, err := s.store.Assignments().CountByStatus(ctx, alertID, models.ResponseAccepted)
	if err != nil {
		return 0, persistence("counting accepted responses", err)
	}
	return n, nil
}
