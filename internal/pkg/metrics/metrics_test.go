package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordTask("tutor", "completed")
	c.RecordTask("tutor", "completed")
	c.RecordTask("homework", "failed")
	c.RecordCreditConsumed()
	c.RecordIntent("BTC", "created")
	c.RecordRateFetch("fallback")

	assert.Equal(t, float64(2), testutil.ToFloat64(c.tasks.WithLabelValues("tutor", "completed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.tasks.WithLabelValues("homework", "failed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.creditsConsumed))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.intents.WithLabelValues("BTC", "created")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.rateFetches.WithLabelValues("fallback")))
}

func TestCollector_Histograms(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ObserveHTTP("POST", "/api/v1/tasks", 200, 30*time.Millisecond)
	c.ObserveProvider(time.Second, nil)
	c.ObserveProvider(time.Second, errors.New("boom"))

	assert.Equal(t, float64(1), testutil.ToFloat64(c.httpRequests.WithLabelValues("POST", "/api/v1/tasks", "200")))
	assert.Equal(t, 2, testutil.CollectAndCount(c.providerLatency))
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector

	assert.NotPanics(t, func() {
		c.RecordTask("tutor", "completed")
		c.RecordCreditConsumed()
		c.RecordIntent("BTC", "created")
		c.ObserveHTTP("GET", "/", 200, time.Millisecond)
		c.ObserveProvider(time.Millisecond, nil)
		c.RecordRateFetch("feed")
	})
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordCreditConsumed()

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "prep_credits_consumed_total 1")
}
