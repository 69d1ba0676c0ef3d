package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Clark-Hu/certavg/internal/domain"
)

func TestRecorderCounts(t *testing.T) {
	r := New()
	r.RowScanned()
	r.RowScanned()
	r.RowSkipped(domain.SkipRatingOutOfRange)
	r.ScanFinished("ok", 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.rows))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.skipped.WithLabelValues(string(domain.SkipRatingOutOfRange))))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.scans.WithLabelValues("ok")))
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	r.RowScanned()
	r.RowSkipped(domain.SkipTooFewFields)
	r.ScanFinished("ok", time.Second)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerExposesCounters(t *testing.T) {
	r := New()
	r.RowScanned()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "certavg_rows_scanned_total 1")
}
