package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	m := New()
	m.ObserveProcessed("YOUTUBE", OutcomeCompleted, 2*time.Second)
	m.ObserveProcessed("YOUTUBE", OutcomeCompleted, time.Second)
	m.ObserveProcessed("RUMBLE", OutcomeFailed, time.Second)
	m.AddClaimed(3)
	m.AddClaimed(0)
	m.AddRequeued(1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.processed.WithLabelValues("YOUTUBE", OutcomeCompleted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.processed.WithLabelValues("RUMBLE", OutcomeFailed)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.claimed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requeued))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.AddClaimed(2)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body, _ := io.ReadAll(w.Body)
	assert.Contains(t, string(body), "publish_jobs_claimed_total 2")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveProcessed("YOUTUBE", OutcomeRetrying, time.Second)
		m.AddClaimed(1)
		m.AddRequeued(1)
	})
}
