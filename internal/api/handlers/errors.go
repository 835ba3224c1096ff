package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"sos-backend/internal/api/middleware"
	"sos-backend/internal/models"
	"sos-backend/internal/services"
	"sos-backend/pkg/utils"
)

// writeServiceError maps service error kinds to HTTP statuses.
func writeServiceError(c *gin.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		utils.ValidationErrorResponse(c, verr.Fields)
	case errors.Is(err, services.ErrValidation):
		utils.ErrorResponse(c, http.StatusBadRequest, "Validation failed", err)
	case errors.Is(err, services.ErrNotAssigned):
		utils.ErrorResponse(c, http.StatusNotFound, "Volunteer is not assigned to this alert", err)
	case errors.Is(err, services.ErrNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, "Resource not found", err)
	case errors.Is(err, services.ErrAlreadyResolved):
		utils.ErrorResponse(c, http.StatusConflict, "Alert already resolved", err)
	case errors.Is(err, services.ErrAlreadyResponded):
		utils.ErrorResponse(c, http.StatusConflict, "Assignment already responded", err)
	case errors.Is(err, services.ErrConflict):
		utils.ErrorResponse(c, http.StatusConflict, "Already exists", err)
	case errors.Is(err, services.ErrInvalidAction):
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid action", err)
	case errors.Is(err, services.ErrUnauthorized):
		utils.ErrorResponse(c, http.StatusForbidden, "Not allowed", err)
	case errors.Is(err, services.ErrInvalidLogin):
		utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid credentials", err)
	default:
		slog.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		utils.ErrorResponse(c, http.StatusInternalServerError, "Internal server error", nil)
	}
}

// bindJSON decodes the body and answers 400 on malformed input.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return false
	}
	return true
}

// caller returns the authenticated identity; routes guard with RequireIdentity.
func caller(c *gin.Context) models.Identity {
	id, _ := middleware.IdentityFrom(c)
	return id
}

// optionalCaller returns nil for guests.
func optionalCaller(c *gin.Context) *models.Identity {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return nil
	}
	return &id
}
