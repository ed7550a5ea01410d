package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	require.NoError(t, m.Track("catalog:warmup").End(nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("catalog:warmup").End(boom), boom)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.runs.WithLabelValues("catalog:warmup", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.runs.WithLabelValues("catalog:warmup", "failure")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.failures.WithLabelValues("catalog:warmup")))

	m.SetCatalogSize(12)
	assert.Equal(t, float64(12), testutil.ToFloat64(m.catalogSize))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NoError(t, m.Track("x").End(nil))
	m.SetCatalogSize(3)
}
