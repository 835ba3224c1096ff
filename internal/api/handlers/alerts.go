package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"sos-backend/internal/models"
	"sos-backend/internal/services"
	"sos-backend/pkg/utils"
)

type AlertHandler struct {
	alertService *services.AlertService
}

func NewAlertHandler(alertService *services.AlertService) *AlertHandler {
	return &AlertHandler{alertService: alertService}
}

// CreateAlert raises an alert for the authenticated reporter.
func (h *AlertHandler) CreateAlert(c *gin.Context) {
	id := caller(c)
	h.create(c, &id)
}

// CreateGuestAlert raises an anonymous alert.
func (h *AlertHandler) CreateGuestAlert(c *gin.Context) {
	h.create(c, nil)
}

func (h *AlertHandler) create(c *gin.Context, reporter *models.Identity) {
	var req services.CreateAlertRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.alertService.CreateAlert(c.Request.Context(), reporter, &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	if !res.Created {
		utils.SuccessResponse(c, http.StatusOK, "Active alert already exists", res)
		return
	}
	utils.SuccessResponse(c, http.StatusCreated, "Alert created successfully", res)
}

// GetAlert returns an alert with its roster.
func (h *AlertHandler) GetAlert(c *gin.Context) {
	detail, err := h.alertService.GetAlert(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Alert retrieved successfully", detail)
}

// ListAlerts accepts optional status and limit query parameters.
func (h *AlertHandler) ListAlerts(c *gin.Context) {
	filter := models.AlertFilter{
		Status:     models.AlertStatus(c.Query("status")),
		ReporterID: c.Query("reporterId"),
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			utils.ValidationErrorResponse(c, map[string]string{"limit": "must be a non-negative integer"})
			return
		}
		filter.Limit = limit
	}

	alerts, err := h.alertService.ListAlerts(c.Request.Context(), filter)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Alerts retrieved successfully", alerts)
}

func (h *AlertHandler) ResolveAlert(c *gin.Context) {
	alert, err := h.alertService.ResolveAlert(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Alert resolved successfully", alert)
}

type respondRequest struct {
	Action models.ResponseAction `json:"action"`
}

// Respond records the calling volunteer's accept or reject.
func (h *AlertHandler) Respond(c *gin.Context) {
	var req respondRequest
	if !bindJSON(c, &req) {
		return
	}
	h.respond(c, req.Action)
}

func (h *AlertHandler) Accept(c *gin.Context) { h.respond(c, models.ActionAccept) }

func (h *AlertHandler) Reject(c *gin.Context) { h.respond(c, models.ActionReject) }

func (h *AlertHandler) respond(c *gin.Context, action models.ResponseAction) {
	res, err := h.alertService.Respond(c.Request.Context(), caller(c), c.Param("id"), action)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Response recorded", res)
}

func (h *AlertHandler) AcceptedCount(c *gin.Context) {
	n, err := h.alertService.AcceptedCount(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Accepted count retrieved", gin.H{"alertId": c.Param("id"), "acceptedCount": n})
}
