package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorsDoNotCollide(t *testing.T) {
	// a second collector with the same namespace must not panic on registration
	a := NewCollector("ta")
	b := NewCollector("ta")

	a.RecordFetchError("openweathermap")
	assert.Equal(t, 1.0, testutil.ToFloat64(a.FetchErrorsTotal.WithLabelValues("openweathermap")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.FetchErrorsTotal.WithLabelValues("openweathermap")))
}

func TestTimerUsesClock(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewCollector("ta")

	timer := NewTimer(clock, c.RunDuration.WithLabelValues("sequential"))
	clock.Advance(1500 * time.Millisecond)

	assert.Equal(t, 1500*time.Millisecond, timer.ObserveDuration())
	assert.Equal(t, 1, testutil.CollectAndCount(c.RunDuration))
}

func TestHandlerExposesRegistry(t *testing.T) {
	c := NewCollector("ta")
	c.SetStatusCounts("parallel", map[string]int{"anomalous": 3, "normal": 5})
	c.RecordAPIRequest("/api/v1/stats", http.MethodGet, "200")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `ta_pipeline_records_by_status{engine="parallel",status="anomalous"} 3`)
	assert.Contains(t, string(body), `ta_api_requests_total{method="GET",route="/api/v1/stats",status="200"} 1`)
}
