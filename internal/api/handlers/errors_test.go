package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"sos-backend/internal/services"
	"sos-backend/pkg/classifier"
)

func TestWriteServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"validation fields", &services.ValidationError{Fields: map[string]string{"lat": "out of range"}}, http.StatusBadRequest, `"lat":"out of range"`},
		{"not assigned", fmt.Errorf("respond: %w", services.ErrNotAssigned), http.StatusNotFound, "not assigned"},
		{"not found", services.ErrNotFound, http.StatusNotFound, "Resource not found"},
		{"already resolved", services.ErrAlreadyResolved, http.StatusConflict, "Alert already resolved"},
		{"already responded", services.ErrAlreadyResponded, http.StatusConflict, "already responded"},
		{"conflict", services.ErrConflict, http.StatusConflict, "Already exists"},
		{"invalid action", services.ErrInvalidAction, http.StatusBadRequest, "Invalid action"},
		{"unauthorized", services.ErrUnauthorized, http.StatusForbidden, "Not allowed"},
		{"invalid login", services.ErrInvalidLogin, http.StatusUnauthorized, "Invalid credentials"},
		{"persistence", errors.New("disk on fire"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			writeServiceError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestWriteServiceError_HidesInternalDetail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	writeServiceError(c, errors.New("pq: password authentication failed"))

	assert.NotContains(t, w.Body.String(), "password authentication")
}

func TestNearby_QueryValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/nearby", NewVolunteerHandler(nil).Nearby)

	tests := []struct {
		query string
		field string
	}{
		{"", `"lat":"is required"`},
		{"?lat=abc&lon=1", `"lat":"must be a number"`},
		{"?lat=1&lon=2&radius=far", `"radius":"must be a number"`},
		{"?lat=1&lon=2&cap=many", `"cap":"must be an integer"`},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nearby"+tt.query, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, tt.query)
		assert.Contains(t, w.Body.String(), tt.field, tt.query)
	}
}

func TestClassifyHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reports := services.NewReportService(nil, classifier.NewKeywordClassifier(), classifier.NewPanicClassifier())
	handler := NewReportHandler(reports, nil)

	router := gin.New()
	router.POST("/ai/panic", handler.ClassifyPanic)
	router.POST("/ai/report-risk", handler.ClassifyRisk)

	post := func(path, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		return w
	}

	w := post("/ai/panic", `{"code":"SOS"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"level":"HIGH"`)

	w = post("/ai/report-risk", `{"text":"someone suspicious near the gate"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"riskLevel":"MEDIUM"`)

	assert.Equal(t, http.StatusBadRequest, post("/ai/panic", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, post("/ai/report-risk", `not json`).Code)
}
