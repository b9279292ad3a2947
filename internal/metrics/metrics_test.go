package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.IncrementOccurrencesCreated()
	m.IncrementOccurrencesCreated()
	m.ObserveRender(true, 20*time.Millisecond)
	m.ObserveRender(false, time.Millisecond)
	m.IncrementExports("xlsx")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.OccurrencesCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReportsRendered.WithLabelValues(ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReportsRendered.WithLabelValues(ResultError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Exports.WithLabelValues("xlsx")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Exports.WithLabelValues("csv")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["urbfisc_report_render_seconds"])
}

func TestSeparateRegistries(t *testing.T) {
	// registering twice on fresh registries must not panic
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
