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
	m.ItemCommitted("completed", "azure")
	m.ItemCommitted("completed", "azure")
	m.ItemCommitted("quota_exceeded", "azure")
	m.FetchAttempt("ok")
	m.SetCooldown("azure", true)
	m.BatchFinished("partial")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.items.WithLabelValues("completed", "azure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.items.WithLabelValues("quota_exceeded", "azure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetchAttempts.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cooldown.WithLabelValues("azure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.batches.WithLabelValues("partial")))

	m.SetCooldown("azure", false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.cooldown.WithLabelValues("azure")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveTranscribe("groq", "success", 1500*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `asr_transcribe_duration_seconds_count{outcome="success",provider="groq"} 1`))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ItemCommitted("completed", "azure")
		m.ObserveTranscribe("azure", "success", time.Second)
		m.FetchAttempt("ok")
		m.SetCooldown("azure", true)
		m.BatchFinished("ok")
	})
}
