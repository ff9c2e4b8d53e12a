package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordScore(t *testing.T) {
	m := NewMetrics()
	m.RecordScore(95, "A")
	m.RecordScore(40, "F")
	m.RecordFailure()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RecordsTotal.WithLabelValues(OutcomeProcessed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RecordsTotal.WithLabelValues(OutcomeFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Grades.WithLabelValues("A")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Grades.WithLabelValues("F")))
}

func TestBatchLifecycle(t *testing.T) {
	m := NewMetrics()
	m.BatchStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BatchInProgress))

	m.BatchFinished(2*time.Second, nil)
	m.BatchFinished(time.Second, errors.New("catalog down"))

	assert.Equal(t, 0.0, testutil.ToFloat64(m.BatchInProgress))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BatchesTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BatchesTotal.WithLabelValues("error")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordScore(10, "F")
		m.RecordFailure()
		m.RecordAugment(AugmentError)
		m.BatchStarted()
		m.BatchFinished(time.Second, nil)
	})
}

func TestHandler(t *testing.T) {
	m := NewMetrics()
	m.RecordAugment(AugmentAccepted)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `seoaudit_augment_requests_total{result="accepted"} 1`)
}
