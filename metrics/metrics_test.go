package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dcmtag2table/dicom"
)

func TestResult(t *testing.T) {
	t.Parallel()
	wrap := func(kind error) error {
		return &dicom.LoadError{Path: "x", Kind: kind, Err: errors.New("detail")}
	}
	assert.Equal(t, "ok", Result(nil))
	assert.Equal(t, "not_found", Result(wrap(dicom.ErrNotFound)))
	assert.Equal(t, "not_readable", Result(wrap(dicom.ErrNotReadable)))
	assert.Equal(t, "invalid_format", Result(fmt.Errorf("ctx: %w", wrap(dicom.ErrInvalidFormat))))
	assert.Equal(t, "pixel_data_error", Result(wrap(dicom.ErrPixelData)))
	assert.Equal(t, "error", Result(errors.New("other")))
}

func TestObserveLoad(t *testing.T) {
	t.Parallel()
	m := New()

	m.ObserveLoad(time.Now(), nil)
	m.ObserveLoad(time.Now(), nil)
	m.ObserveLoad(time.Now(), &dicom.LoadError{Kind: dicom.ErrInvalidFormat})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LoadsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoadsTotal.WithLabelValues("invalid_format")))

	var nilMetrics *Metrics
	nilMetrics.ObserveLoad(time.Now(), nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `dcmtag2table_loads_total{result="ok"} 2`)
}
