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

func TestOperations(t *testing.T) {
	m := New()
	m.OperationsInc("predict")
	m.OperationsInc("predict")
	m.OperationsErrorsInc("predict")
	m.OperationsLatencyObserve("predict", time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("predict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsErrorsTotal.WithLabelValues("predict")))
}

func TestTraining(t *testing.T) {
	m := New()
	m.TrainStarted()
	m.TrainEpoch(-0.69)
	m.TrainEpoch(-1.09)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.trainRunning))
	assert.Equal(t, -1.09, testutil.ToFloat64(m.trainLoss))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.trainEpochsTotal))

	m.TrainFinished("done")
	assert.Equal(t, 0.0, testutil.ToFloat64(m.trainRunning))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.trainRunsTotal.WithLabelValues("done")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.OperationsInc("get_metadata")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `demoapp_operations_total{operation="get_metadata"} 1`)
}
