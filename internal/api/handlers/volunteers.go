package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"sos-backend/internal/services"
	"sos-backend/pkg/utils"
)

type VolunteerHandler struct {
	volunteerService *services.VolunteerService
}

func NewVolunteerHandler(volunteerService *services.VolunteerService) *VolunteerHandler {
	return &VolunteerHandler{volunteerService: volunteerService}
}

func (h *VolunteerHandler) Signup(c *gin.Context) {
	var req services.VolunteerSignupRequest
	if !bindJSON(c, &req) {
		return
	}

	v, err := h.volunteerService.Signup(c.Request.Context(), &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusCreated, "Volunteer registered", v)
}

// Nearby lists verified volunteers around lat/lon; radius (km) and cap are optional.
func (h *VolunteerHandler) Nearby(c *gin.Context) {
	fields := map[string]string{}
	lat := queryFloat(c, "lat", true, fields)
	lon := queryFloat(c, "lon", true, fields)
	radius := queryFloat(c, "radius", false, fields)

	limit := 0
	if raw := c.Query("cap"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			fields["cap"] = "must be an integer"
		}
		limit = n
	}
	if len(fields) > 0 {
		utils.ValidationErrorResponse(c, fields)
		return
	}

	matches, err := h.volunteerService.Nearby(c.Request.Context(), lat, lon, radius, limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Nearby volunteers retrieved", matches)
}

type coordinateRequest struct {
	Latitude  *float64 `json:"lat"`
	Longitude *float64 `json:"lon"`
}

func (h *VolunteerHandler) UpdateLocation(c *gin.Context) {
	var req coordinateRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		utils.ValidationErrorResponse(c, map[string]string{"lat": "is required", "lon": "is required"})
		return
	}

	v, err := h.volunteerService.UpdateLocation(c.Request.Context(), caller(c), *req.Latitude, *req.Longitude)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Location updated", v)
}

func (h *VolunteerHandler) Assignments(c *gin.Context) {
	entries, err := h.volunteerService.Assignments(c.Request.Context(), caller(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Assignments retrieved", entries)
}

func queryFloat(c *gin.Context, name string, required bool, fields map[string]string) float64 {
	raw := c.Query(name)
	if raw == "" {
		if required {
			fields[name] = "is required"
		}
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		fields[name] = "must be a number"
	}
	return v
}
