package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRateLimit(t *testing.T) {
	m := New()

	m.RecordRateLimit("upload", true)
	m.RecordRateLimit("upload", true)
	m.RecordRateLimit("upload", false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.rateLimitChecks.WithLabelValues("upload", "allowed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimitChecks.WithLabelValues("upload", "rejected")))
}

func TestRecordUsageDeltaDirections(t *testing.T) {
	m := New()

	m.RecordUsageDelta("storage", 12)
	m.RecordUsageDelta("storage", -12)
	m.RecordUsageDelta("storage", 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.usageDeltas.WithLabelValues("storage", "increment")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.usageDeltas.WithLabelValues("storage", "decrement")))
}

func TestRecordReconciliation(t *testing.T) {
	m := New()

	m.RecordReconciliation(nil, -3, 1)
	m.RecordReconciliation(errors.New("db down"), 0, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.reconciliations.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reconciliations.WithLabelValues("error")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.ObserveHTTP("GET", "/api/usage", 200, 15*time.Millisecond)
	m.RecordQuotaRejection("storage")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "media_quota_http_request_duration_seconds")
	assert.Contains(t, body, `media_quota_quota_rejections_total{resource="storage"} 1`)
}
