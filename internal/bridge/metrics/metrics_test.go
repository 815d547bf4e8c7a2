package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/ircbridge/internal/bridge/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics
	require.NotPanics(t, func() {
		m.RecordProvision(metrics.ResultOK, true)
		m.RecordAuth(metrics.ResultRejected)
		m.ObserveHash("hash", time.Millisecond)
		m.RecordHousekeepingDeleted(3)
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecordAndExpose(t *testing.T) {
	m := metrics.New()
	m.RecordAuth(metrics.ResultOK)
	m.RecordAuth(metrics.ResultOK)
	m.RecordAuth(metrics.ResultRejected)
	m.RecordProvision(metrics.ResultOK, true)

	expected := `
# HELP ircbridge_auth_callback_total Bouncer auth callback decisions by result
# TYPE ircbridge_auth_callback_total counter
ircbridge_auth_callback_total{result="ok"} 2
ircbridge_auth_callback_total{result="rejected"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"ircbridge_auth_callback_total"))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `ircbridge_provisions_total{created="true",result="ok"} 1`)
}
