package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.ReservationCreated(2)
	m.ReservationCreated(3)
	m.Redemption(OutcomeAdmitted)
	m.Redemption(OutcomeAlreadyRedeemed)
	m.Redemption(OutcomeAlreadyRedeemed)
	m.ObserveRequest(http.MethodPost, "/api/reservations", http.StatusCreated, 12*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.reservations))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.tickets))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.redemptions.WithLabelValues(OutcomeAlreadyRedeemed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("POST", "/api/reservations", "201")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ReservationCreated(1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "campus_cinema_reservations_created_total 1"))
}

func TestInstancesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.ReservationCreated(1)
	assert.Zero(t, testutil.ToFloat64(b.reservations))
}
