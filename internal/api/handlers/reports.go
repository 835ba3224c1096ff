package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sos-backend/internal/services"
	"sos-backend/pkg/utils"
)

type ReportHandler struct {
	reportService  *services.ReportService
	heatmapService *services.HeatmapService
}

func NewReportHandler(reportService *services.ReportService, heatmapService *services.HeatmapService) *ReportHandler {
	return &ReportHandler{reportService: reportService, heatmapService: heatmapService}
}

func (h *ReportHandler) CreateReport(c *gin.Context) {
	var req services.CreateReportRequest
	if !bindJSON(c, &req) {
		return
	}

	report, err := h.reportService.Create(c.Request.Context(), optionalCaller(c), &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusCreated, "Report submitted", report)
}

func (h *ReportHandler) Heatmap(c *gin.Context) {
	points, err := h.heatmapService.Points(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Heatmap retrieved", points)
}

type panicRequest struct {
	Code string `json:"code"`
}

// ClassifyPanic maps an alert code to a panic level.
func (h *ReportHandler) ClassifyPanic(c *gin.Context) {
	var req panicRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Code == "" {
		utils.ValidationErrorResponse(c, map[string]string{"code": "is required"})
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Classified", gin.H{"code": req.Code, "level": h.reportService.ClassifyPanic(req.Code)})
}

type riskRequest struct {
	Text string `json:"text"`
}

// ClassifyRisk scores free text without storing it.
func (h *ReportHandler) ClassifyRisk(c *gin.Context) {
	var req riskRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Text == "" {
		utils.ValidationErrorResponse(c, map[string]string{"text": "is required"})
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Classified", gin.H{"riskLevel": h.reportService.ClassifyRisk(req.Text)})
}
