package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sos-backend/internal/services"
	"sos-backend/pkg/utils"
)

type LocationHandler struct {
	locationService *services.LocationService
}

func NewLocationHandler(locationService *services.LocationService) *LocationHandler {
	return &LocationHandler{locationService: locationService}
}

func (h *LocationHandler) Share(c *gin.Context) {
	var req services.ShareLocationRequest
	if !bindJSON(c, &req) {
		return
	}

	sample, err := h.locationService.ShareLocation(c.Request.Context(), caller(c), &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusCreated, "Location shared", sample)
}

func (h *LocationHandler) Trail(c *gin.Context) {
	samples, err := h.locationService.Trail(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Location trail retrieved", samples)
}
