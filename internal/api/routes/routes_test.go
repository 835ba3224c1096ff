package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sos-backend/internal/config"
	"sos-backend/internal/realtime"
	"sos-backend/internal/repository/sqlstore"
	"sos-backend/pkg/jwt"
	"sos-backend/pkg/metrics"
	"sos-backend/pkg/ratelimit"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	store  *sqlstore.Store
}

func testConfig() *config.Config {
	return &config.Config{
		Matching: config.MatchingConfig{
			MaxRadiusKm:           20,
			RequiredVolunteers:    3,
			MaxVolunteersNotified: 5,
			NearbyRadiusKm:        1,
		},
		Location: config.LocationConfig{
			Retention:       time.Hour,
			CleanupInterval: time.Hour,
			MinMoveMeters:   10,
		},
		DirectoryCacheTTL: time.Second,
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	store, err := sqlstore.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close(ctx) })

	hub := realtime.NewHub(realtime.DefaultHubConfig())
	hub.Start()
	t.Cleanup(hub.Stop)

	limiter := ratelimit.NewMemoryRateLimiter(ratelimit.DefaultConfig())
	t.Cleanup(func() { limiter.Close() })

	gin.SetMode(gin.TestMode)
	router := gin.New()
	SetupRoutes(router, Dependencies{
		Config:  testConfig(),
		Store:   store,
		JWT:     jwt.NewJWTUtil(config.JWTConfig{Secret: "routes-test", Expiry: time.Hour}),
		Hub:     hub,
		Limiter: limiter,
		Metrics: metrics.New(),
	})
	return &testServer{t: t, router: router, store: store}
}

func (s *testServer) do(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") != "" && bytes.HasPrefix(w.Body.Bytes(), []byte("{")) {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

type loginData struct {
	User struct {
		ID string `json:"id"`
	} `json:"user"`
	Token string `json:"token"`
}

// volunteer signs up, is verified by an operator, logs in and reports a position.
func (s *testServer) volunteer(email string, lat, lon float64) loginData {
	s.t.Helper()
	w, env := s.do(http.MethodPost, "/api/v1/volunteers/signup", "", map[string]any{
		"name": "Vol", "email": email, "password": "secret123",
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	v := decode[struct {
		ID         string `json:"id"`
		IsVerified bool   `json:"isVerified"`
	}](s.t, env.Data)
	assert.False(s.t, v.IsVerified)
	require.NoError(s.t, s.store.Volunteers().SetVerified(context.Background(), v.ID, true))

	w, env = s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email": email, "password": "secret123", "role": "volunteer",
	})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	login := decode[loginData](s.t, env.Data)

	w, _ = s.do(http.MethodPut, "/api/v1/volunteers/me/location", login.Token, map[string]any{"lat": lat, "lon": lon})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	return login
}

func (s *testServer) user(email string) loginData {
	s.t.Helper()
	w, env := s.do(http.MethodPost, "/api/v1/auth/signup", "", map[string]any{
		"name": "Reporter", "email": email, "password": "secret123",
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[loginData](s.t, env.Data)
}

func alertBody(level string) map[string]any {
	return map[string]any{
		"code": "SOS", "level": level, "category": "medical",
		"lat": 12.9716, "lon": 77.5946,
	}
}

func TestAlertFlow(t *testing.T) {
	s := newTestServer(t)
	reporter := s.user("reporter@example.com")
	vol := s.volunteer("vol@example.com", 12.976096608029595, 77.5946)

	w, env := s.do(http.MethodPost, "/api/v1/alerts", reporter.Token, alertBody("red"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[struct {
		Alert struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"alert"`
		Created     bool             `json:"created"`
		Assignments []map[string]any `json:"assignments"`
	}](t, env.Data)
	assert.True(t, created.Created)
	assert.Equal(t, "active", created.Alert.Status)
	require.Len(t, created.Assignments, 1)
	alertID := created.Alert.ID

	// a second alert while the first is active is answered with the existing one
	w, env = s.do(http.MethodPost, "/api/v1/alerts", reporter.Token, alertBody("yellow"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Active alert already exists", env.Message)

	w, env = s.do(http.MethodPost, "/api/v1/alerts/"+alertID+"/accept", vol.Token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, decode[struct {
		AcceptedCount int `json:"acceptedCount"`
	}](t, env.Data).AcceptedCount)

	w, _ = s.do(http.MethodPost, "/api/v1/alerts/"+alertID+"/reject", vol.Token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/alerts/"+alertID+"/respond", vol.Token, map[string]any{"action": "maybe"})
	assert.Equal(t, http.StatusConflict, w.Code, "already responded is checked before the action")

	w, env = s.do(http.MethodGet, "/api/v1/alerts/"+alertID, reporter.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[struct {
		AcceptedCount int `json:"acceptedCount"`
	}](t, env.Data).AcceptedCount)

	w, _ = s.do(http.MethodPost, "/api/v1/location", vol.Token, map[string]any{"alertId": alertID, "lat": 12.972, "lon": 77.5946})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, _ = s.do(http.MethodPost, "/api/v1/alerts/"+alertID+"/resolve", reporter.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/alerts/"+alertID+"/resolve", reporter.Token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/alerts", reporter.Token, alertBody("red"))
	assert.Equal(t, http.StatusCreated, w.Code, "a new alert is allowed once the previous one is resolved")
}

func TestAlertRoutes_Access(t *testing.T) {
	s := newTestServer(t)
	reporter := s.user("reporter@example.com")
	vol := s.volunteer("vol@example.com", 12.976096608029595, 77.5946)

	w, _ := s.do(http.MethodPost, "/api/v1/alerts", "", alertBody("red"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/alerts", vol.Token, alertBody("red"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env := s.do(http.MethodPost, "/api/v1/alerts/guest", "", alertBody("green"))
	require.Equal(t, http.StatusCreated, w.Code)
	guestID := decode[struct {
		Alert struct {
			ID string `json:"id"`
		} `json:"alert"`
	}](t, env.Data).Alert.ID

	w, _ = s.do(http.MethodPost, "/api/v1/alerts/"+guestID+"/resolve", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/alerts/"+guestID+"/resolve", reporter.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code, "any signed-in caller may close an anonymous alert")

	w, _ = s.do(http.MethodPost, "/api/v1/alerts/unknown/accept", reporter.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/alerts/unknown/accept", vol.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = s.do(http.MethodPost, "/api/v1/alerts", reporter.Token, map[string]any{"code": "SOS", "level": "purple"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
}

func TestVolunteerRoutes(t *testing.T) {
	s := newTestServer(t)
	reporter := s.user("reporter@example.com")
	vol := s.volunteer("vol@example.com", 12.976096608029595, 77.5946)
	s.volunteer("far@example.com", 12.989586432118376, 77.5946)

	w, env := s.do(http.MethodGet, "/api/v1/volunteers/nearby?lat=12.9716&lon=77.5946", reporter.Token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decode[[]map[string]any](t, env.Data), 1, "default nearby radius is 1km")

	w, env = s.do(http.MethodGet, "/api/v1/volunteers/nearby?lat=12.9716&lon=77.5946&radius=5", reporter.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, env.Data), 2)

	w, _ = s.do(http.MethodPost, "/api/v1/volunteers/signup", "", map[string]any{
		"name": "Dup", "email": "VOL@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/volunteers/me/assignments", reporter.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = s.do(http.MethodGet, "/api/v1/volunteers/me/assignments", vol.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]map[string]any](t, env.Data))
}

func TestAuthRoutes(t *testing.T) {
	s := newTestServer(t)
	s.user("reporter@example.com")

	w, _ := s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]any{"email": "reporter@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env := s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]any{"email": "reporter@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code)
	login := decode[loginData](t, env.Data)

	w, _ = s.do(http.MethodPost, "/api/v1/auth/refresh", login.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = s.do(http.MethodGet, "/api/v1/users/me", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	profile := decode[map[string]any](t, env.Data)
	assert.Equal(t, login.User.ID, profile["id"])
	assert.Equal(t, "reporter@example.com", profile["email"])
	assert.NotContains(t, profile, "passwordHash")

	w, _ = s.do(http.MethodGet, "/api/v1/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	vol := s.volunteer("vol@example.com", 12.976096608029595, 77.5946)
	w, _ = s.do(http.MethodGet, "/api/v1/users/me", vol.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/auth/signup", "", map[string]any{"name": "Again", "email": "reporter@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestReportAndHeatmapRoutes(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(http.MethodPost, "/api/v1/reports", "", map[string]any{"description": "an attack nearby", "lat": 12.97, "lon": 77.59})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, env := s.do(http.MethodGet, "/api/v1/heatmap", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, env.Data), 1)

	w, _ = s.do(http.MethodPost, "/api/v1/ai/panic", "", map[string]any{"code": "help"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOperationalRoutes(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Limit"))

	w, _ = s.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")

	w, _ = s.do(http.MethodGet, "/api/v1/alerts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
