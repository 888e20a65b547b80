// Package metrics exposes Prometheus instrumentation for DICOM loads.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dcmtag2table/dicom"
)

// Metrics holds the collectors of one registry.
type Metrics struct {
	registry *prometheus.Registry

	LoadsTotal   *prometheus.CounterVec
	LoadDuration prometheus.Histogram
	RowsExported prometheus.Counter
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		LoadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dcmtag2table_loads_total",
				Help: "DICOM files loaded, by outcome",
			},
			[]string{"result"},
		),
		LoadDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dcmtag2table_load_duration_seconds",
				Help:    "Time spent loading a DICOM file",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
			},
		),
		RowsExported: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "dcmtag2table_rows_exported_total",
				Help: "Table rows produced by tag extraction",
			},
		),
	}
	m.registry.MustRegister(m.LoadsTotal, m.LoadDuration, m.RowsExported)
	return m
}

// ObserveLoad records the outcome of one load started at start.
func (m *Metrics) ObserveLoad(start time.Time, err error) {
	if m == nil {
		return
	}
	m.LoadDuration.Observe(time.Since(start).Seconds())
	m.LoadsTotal.WithLabelValues(Result(err)).Inc()
}

// Result maps a load error onto the result label.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, dicom.ErrNotFound):
		return "not_found"
	case errors.Is(err, dicom.ErrNotReadable):
		return "not_readable"
	case errors.Is(err, dicom.ErrInvalidFormat):
		return "invalid_format"
	case errors.Is(err, dicom.ErrPixelData):
		return "pixel_data_error"
	}
	return "error"
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
