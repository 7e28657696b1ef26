package oauth

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewPrometheusCollector(reg)
	require.NoError(t, err)

	c.RecordAuthorize("fb", OutcomeRedirected, 2*time.Millisecond)
	c.RecordAuthorize("fb", OutcomeDropped, time.Millisecond)
	c.RecordExchange("fb", OutcomeStored, 300*time.Millisecond)
	c.RecordExchange("fb", OutcomeStored, 200*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.requests.WithLabelValues("fb", "authorize", OutcomeRedirected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requests.WithLabelValues("fb", "authorize", OutcomeDropped)))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.requests.WithLabelValues("fb", "callback", OutcomeStored)))

	n, err := testutil.GatherAndCount(reg, "beaver_connect_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "one histogram per integration and phase")

	_, err = NewPrometheusCollector(reg)
	assert.Error(t, err, "registering twice fails")
}

func TestNoopCollector(t *testing.T) {
	var c MetricsCollector = NoopCollector{}
	c.RecordAuthorize("fb", OutcomeRedirected, time.Second)
	c.RecordExchange("fb", OutcomeStored, time.Second)
}
