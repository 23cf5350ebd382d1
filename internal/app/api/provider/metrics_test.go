package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProviderMetrics(t *testing.T) {
	m := NewProviderMetrics()

	m.RecordSuccess("groq", 100, 1024)
	m.RecordSuccess("groq", 200, 1024)
	m.RecordFailure("groq", ErrorKindQuota)
	m.RecordFailure("azure", ErrorKindTransient)

	groq := m.GetProviderMetrics("groq")
	assert.Equal(t, int64(3), groq.TotalRequests)
	assert.Equal(t, int64(2), groq.SuccessfulRequests)
	assert.Equal(t, int64(2048), groq.TotalAudioBytes)
	assert.Equal(t, int64(1), groq.ErrorBreakdown[ErrorKindQuota])
	assert.InDelta(t, 120.0, groq.AverageLatencyMs, 0.001)
	assert.InDelta(t, 2.0/3.0, groq.SuccessRate, 0.001)

	groq.ErrorBreakdown[ErrorKindQuota] = 99
	assert.Equal(t, int64(1), m.GetProviderMetrics("groq").ErrorBreakdown[ErrorKindQuota], "returned stats are copies")

	overall := m.GetOverallMetrics()
	assert.Equal(t, 2, overall.TotalProviders)
	assert.Equal(t, int64(4), overall.TotalRequests)
	assert.Equal(t, "groq", overall.FastestProvider)

	unknown := m.GetProviderMetrics("never-used")
	assert.True(t, unknown.IsHealthy)
	assert.Zero(t, unknown.TotalRequests)
}

func TestProviderMetricsUnhealthy(t *testing.T) {
	m := NewProviderMetrics()
	for i := 0; i < 10; i++ {
		m.RecordFailure("azure", ErrorKindTransient)
	}
	assert.False(t, m.GetProviderMetrics("azure").IsHealthy)

	m.RecordSuccess("azure", 10, 1)
	assert.True(t, m.GetProviderMetrics("azure").IsHealthy)
}
