package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/qs-lzh/campus-cinema/config"
	"github.com/qs-lzh/campus-cinema/internal/app"
	"github.com/qs-lzh/campus-cinema/internal/cache"
	"github.com/qs-lzh/campus-cinema/internal/database/dbtest"
	"github.com/qs-lzh/campus-cinema/internal/model"
	"github.com/qs-lzh/campus-cinema/internal/mq"
)

const (
	adminKey = "admin-secret"
	staffKey = "staff-secret"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type recordingPublisher struct {
	mu     sync.Mutex
	queues []string
}

func (p *recordingPublisher) Publish(_ context.Context, queueName string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queues = append(p.queues, queueName)
	return nil
}

type testServer struct {
	t         *testing.T
	app       *app.App
	router    *gin.Engine
	mr        *miniredis.Miniredis
	publisher *recordingPublisher
}

func newTestServer(t *testing.T, rateLimit int) *testServer {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := cache.NewRedisCache(mr.Addr())
	require.NoError(t, err)

	cfg := &config.Config{
		GinMode:            gin.TestMode,
		AdminAPIKey:        adminKey,
		StaffAPIKey:        staffKey,
		TokenPrefix:        "CINE",
		Location:           time.UTC,
		RequestTimeout:     5 * time.Second,
		CatalogCacheTTL:    time.Minute,
		StatsCacheTTL:      time.Minute,
		RateLimitPerMinute: rateLimit,
	}
	pub := &recordingPublisher{}
	a := app.New(cfg, dbtest.New(t), c, pub, zaptest.NewLogger(t))
	t.Cleanup(func() { c.Close() })

	return &testServer{t: t, app: a, router: NewRouter(a), mr: mr, publisher: pub}
}

func (s *testServer) do(method, path, key string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(APIKeyHeader, key)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]any](t, rec)["error"].(string)
}

func (s *testServer) createShowing(date string, capacity int) model.Showing {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/admin/movies", adminKey, map[string]any{
		"title": fmt.Sprintf("Movie %s %d", date, capacity), "duration_min": 100,
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	movie := decode[model.Movie](s.t, rec)

	rec = s.do(http.MethodPost, "/api/admin/showings", adminKey, map[string]any{
		"movie_id": movie.ID, "date": date, "time": "20:00", "room": "Auditorio", "total_capacity": capacity,
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[model.Showing](s.t, rec)
}

func reserveBody(showingID uint, tickets int) map[string]any {
	return map[string]any{
		"showing_id":   showingID,
		"holder_name":  "Ana Torres",
		"holder_email": "ana@uni.edu",
		"ticket_count": tickets,
	}
}

func TestReservationAndRedemptionFlow(t *testing.T) {
	s := newTestServer(t, 100)
	showing := s.createShowing("2099-05-01", 3)

	rec := s.do(http.MethodGet, fmt.Sprintf("/api/movies/%d/showings?from=2099-01-01", showing.MovieID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	listed := decode[map[string][]model.Showing](t, rec)["showings"]
	require.Len(t, listed, 1)
	assert.Equal(t, 3, listed[0].RemainingCapacity)

	rec = s.do(http.MethodPost, "/api/reservations", "", reserveBody(showing.ID, 2))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	reservation := decode[model.Reservation](t, rec)
	assert.True(t, strings.HasPrefix(reservation.Token, "CINE-"))

	rec = s.do(http.MethodPost, "/api/reservations", "", reserveBody(showing.ID, 2))
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "insufficient_capacity", errorCode(t, rec))

	rec = s.do(http.MethodGet, "/api/reservations/"+reservation.Token, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, reservation.ID, decode[model.Reservation](t, rec).ID)

	rec = s.do(http.MethodGet, "/api/vouchers/"+reservation.Token, staffKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[model.Reservation](t, rec).Consumed)

	rec = s.do(http.MethodPost, "/api/vouchers/"+reservation.Token+"/redeem", staffKey, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/vouchers/"+reservation.Token+"/redeem", staffKey, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_redeemed", errorCode(t, rec))

	rec = s.do(http.MethodPost, "/api/vouchers/CINE-unknown/redeem", staffKey, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, msgInvalidCode, decode[map[string]any](t, rec)["message"])

	assert.Equal(t, []string{mq.ReservationCreatedQueue, mq.ReservationRedeemedQueue}, s.publisher.queues)

	rec = s.do(http.MethodGet, "/api/admin/stats/attendance", adminKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	attendance := decode[map[string]any](t, rec)
	assert.Equal(t, 1.0, attendance["total_reservations"])
	assert.Equal(t, 1.0, attendance["attended"])
	assert.Equal(t, 100.0, attendance["attendance_rate"])
}

func TestReservationLookupNeedsToken(t *testing.T) {
	s := newTestServer(t, 100)
	showing := s.createShowing("2099-05-01", 10)

	rec := s.do(http.MethodPost, "/api/reservations", "", reserveBody(showing.ID, 1))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	reservation := decode[model.Reservation](t, rec)

	byID := fmt.Sprintf("/api/reservations/%d", reservation.ID)
	rec = s.do(http.MethodGet, byID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotContains(t, rec.Body.String(), reservation.Token)
	assert.NotContains(t, rec.Body.String(), reservation.HolderEmail)

	rec = s.do(http.MethodGet, "/api/reservations/"+reservation.Token, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	adminPath := fmt.Sprintf("/api/admin/reservations/%d", reservation.ID)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, adminPath, "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, adminPath, staffKey, nil).Code)
	rec = s.do(http.MethodGet, adminPath, adminKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, reservation.Token, decode[model.Reservation](t, rec).Token)

	rec = s.do(http.MethodGet, "/api/admin/reservations/9999", adminKey, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReserveRejections(t *testing.T) {
	s := newTestServer(t, 100)
	past := s.createShowing("2001-01-01", 10)

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"past showing", reserveBody(past.ID, 1), http.StatusConflict, "showing_closed"},
		{"unknown showing", reserveBody(9999, 1), http.StatusNotFound, "not_found"},
		{"too many tickets", reserveBody(past.ID, 4), http.StatusBadRequest, "invalid_request"},
		{"missing showing", map[string]any{"holder_name": "Ana"}, http.StatusBadRequest, "invalid_request"},
		{"bad email", map[string]any{"showing_id": past.ID, "holder_name": "Ana", "holder_email": "nope", "ticket_count": 1}, http.StatusBadRequest, "invalid_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, "/api/reservations", "", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, errorCode(t, rec))
		})
	}
	assert.Empty(t, s.publisher.queues)
}

func TestAPIKeys(t *testing.T) {
	s := newTestServer(t, 100)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/admin/showings", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/admin/showings", staffKey, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/admin/showings", adminKey, nil).Code)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/vouchers/CINE-x", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/vouchers/CINE-x", staffKey, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/vouchers/CINE-x", adminKey, nil).Code)
}

func TestVoucherRateLimit(t *testing.T) {
	s := newTestServer(t, 2)

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/vouchers/CINE-x", staffKey, nil).Code)
	}
	rec := s.do(http.MethodGet, "/api/vouchers/CINE-x", staffKey, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestRateLimitFailsOpen(t *testing.T) {
	s := newTestServer(t, 1)
	s.mr.Close()

	rec := s.do(http.MethodGet, "/api/vouchers/CINE-x", staffKey, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminCatalog(t *testing.T) {
	s := newTestServer(t, 100)
	showing := s.createShowing("2099-05-01", 10)

	rec := s.do(http.MethodDelete, fmt.Sprintf("/api/admin/movies/%d", showing.MovieID), adminKey, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", errorCode(t, rec))

	rec = s.do(http.MethodPut, fmt.Sprintf("/api/admin/showings/%d", showing.ID), adminKey, map[string]any{
		"date": "2099-05-02", "time": "18:30", "room": "Sala B", "total_capacity": 20,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[model.Showing](t, rec)
	assert.Equal(t, 20, updated.RemainingCapacity)

	rec = s.do(http.MethodPost, "/api/admin/showings", adminKey, map[string]any{
		"movie_id": showing.MovieID, "date": "2099-13-45", "time": "18:30", "total_capacity": 20,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, fmt.Sprintf("/api/admin/showings/%d", showing.ID), adminKey, nil).Code)
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, fmt.Sprintf("/api/admin/movies/%d", showing.MovieID), adminKey, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, fmt.Sprintf("/api/movies/%d", showing.MovieID), "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/movies/abc", "", nil).Code)
}

func TestAdminReservationReports(t *testing.T) {
	s := newTestServer(t, 100)
	showing := s.createShowing("2099-05-01", 10)
	for i := 0; i < 3; i++ {
		rec := s.do(http.MethodPost, "/api/reservations", "", reserveBody(showing.ID, 1))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := s.do(http.MethodGet, "/api/admin/reservations?consumed=false", adminKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string][]model.Reservation](t, rec)["reservations"], 3)

	rec = s.do(http.MethodGet, "/api/admin/reservations?consumed=maybe", adminKey, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/admin/reservations/recent?limit=2", adminKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string][]model.Reservation](t, rec)["reservations"], 2)

	rec = s.do(http.MethodGet, "/api/admin/reservations/recent?limit=0", adminKey, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/admin/reservations/export", adminKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Len(t, lines, 4)

	rec = s.do(http.MethodGet, "/api/admin/stats/summary", adminKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[map[string]any](t, rec)
	assert.Equal(t, 3.0, summary["total_tickets"])
	assert.Equal(t, 3.0, summary["pending"])

	rec = s.do(http.MethodGet, "/api/admin/stats/occupancy", adminKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 30.0, decode[map[string]float64](t, rec)["occupancy"], 1e-9)

	for _, path := range []string{"/api/admin/stats/popular-movies", "/api/admin/stats/daily"} {
		assert.Equal(t, http.StatusOK, s.do(http.MethodGet, path, adminKey, nil).Code, path)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, 100)

	rec := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "campus_cinema_http_requests_total")

	s.mr.Close()
	rec = s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
