package services

import (
	"context"
	"time"

	"sos-backend/internal/models"
	"sos-backend/internal/repository"
	"sos-backend/pkg/classifier"
	"sos-backend/pkg/geo"
	"sos-backend/pkg/ids"
)

type ReportService struct {
	reports    repository.ReportRepository
	risk       classifier.Classifier
	panicCodes classifier.Classifier
	now        func() time.Time
}

func NewReportService(reports repository.ReportRepository, risk, panicCodes classifier.Classifier) *ReportService {
	return &ReportService{
		reports:    reports,
		risk:       risk,
		panicCodes: panicCodes,
		now:        utcNow,
	}
}

type CreateReportRequest struct {
	Description string   `json:"description" validate:"required,max=2000"`
	Latitude    *float64 `json:"lat" validate:"required"`
	Longitude   *float64 `json:"lon" validate:"required"`
}

// Create stores a report with its classified risk. A nil caller files it anonymously.
func (s *ReportService) Create(ctx context.Context, caller *models.Identity, req *CreateReportRequest) (*models.Report, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if !geo.ValidLatitude(*req.Latitude) {
		return nil, invalidField("lat", "must be between -90 and 90")
	}
	if !geo.ValidLongitude(*req.Longitude) {
		return nil, invalidField("lon", "must be between -180 and 180")
	}

	r := &models.Report{
		ID:          ids.New(),
		Description: req.Description,
		Latitude:    *req.Latitude,
		Longitude:   *req.Longitude,
		RiskLevel:   s.risk.Classify(req.Description),
		CreatedAt:   s.now(),
	}
	if caller != nil {
		id := caller.SubjectID
		r.ReporterID = &id
	}

	if err := s.reports.Create(ctx, r); err != nil {
		return nil, persistence("creating report", err)
	}
	return r, nil
}

func (s *ReportService) ClassifyRisk(text string) string {
	return s.risk.Classify(text)
}

func (s *ReportService) ClassifyPanic(code string) string {
	return s.panicCodes.Classify(code)
}

// HeatmapService merges alerts and reports into weighted points.
type HeatmapService struct {
	alerts  repository.AlertRepository
	reports repository.ReportRepository
}

func NewHeatmapService(repos repository.Repositories) *HeatmapService {
	return &HeatmapService{alerts: repos.Alerts(), reports: repos.Reports()}
}

// Points weighs alerts by panic level and reports by classified risk.
func (s *HeatmapService) Points(ctx context.Context) ([]models.HeatPoint, error) {
	alerts, err := s.alerts.List(ctx, models.AlertFilter{})
	if err != nil {
		return nil, persistence("listing alerts", err)
	}
	reports, err := s.reports.List(ctx)
	if err != nil {
		return nil, persistence("listing reports", err)
	}

	points := make([]models.HeatPoint, 0, len(alerts)+len(reports))
	for _, a := range alerts {
		points = append(points, models.HeatPoint{Latitude: a.Latitude, Longitude: a.Longitude, Weight: a.PanicLevel})
	}
	for _, r := range reports {
		points = append(points, models.HeatPoint{Latitude: r.Latitude, Longitude: r.Longitude, Weight: classifier.Weight(r.RiskLevel)})
	}
	return points, nil
}
