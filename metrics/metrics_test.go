package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_NilRegistry(t *testing.T) {
	m := New(nil)
	assert.Nil(t, m)

	assert.NotPanics(t, func() {
		m.ObserveOperation("uploadPart", time.Second, nil)
		m.RecordBytes(DirectionUpload, 10)
		m.ObservePart(10)
		m.SessionFinished(OutcomeCommitted)
	})
}

func TestMetrics_ObserveOperation(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	require.NotNil(t, m)

	m.ObserveOperation("uploadPart", 20*time.Millisecond, nil)
	m.ObserveOperation("uploadPart", 20*time.Millisecond, nil)
	m.ObserveOperation("uploadPart", 20*time.Millisecond, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("uploadPart", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("uploadPart", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.operationDuration))
}

func TestMetrics_RecordBytes(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordBytes(DirectionDownload, 30)
	m.RecordBytes(DirectionDownload, 0)
	m.RecordBytes(DirectionDownload, -4)
	m.RecordBytes(DirectionDownload, 10)

	assert.Equal(t, 40.0, testutil.ToFloat64(m.bytesTransferred.WithLabelValues(DirectionDownload)))
}

func TestMetrics_Sessions(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.SessionFinished(OutcomeCommitted)
	m.SessionFinished(OutcomeEmpty)
	m.SessionFinished(OutcomeEmpty)
	m.ObservePart(5 * 1024 * 1024)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionsTotal.WithLabelValues(OutcomeCommitted)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.sessionsTotal.WithLabelValues(OutcomeEmpty)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.partSize))
}
