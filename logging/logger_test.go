package logging

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_Level(t *testing.T) {
	viper.Set("log_level", "debug")
	defer viper.Set("log_level", nil)

	logger := NewLogger()
	assert.Equal(t, logrus.DebugLevel, logger.Level)
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	viper.Set("log_level", "loud")
	assert.Equal(t, logrus.ErrorLevel, NewLogger().Level)
}

func TestStructuredLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logrus.New()
	logger.Out = buf
	logger.Formatter = &logrus.JSONFormatter{DisableTimestamp: true}
	logger.Level = logrus.InfoLevel

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(NewStructuredLogger(logger))
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		LogEntrySetField(r, "file", "a.dcm")
		GetLogEntry(r).Info("handled")
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)

	var lines []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var line map[string]any
		require.NoError(t, dec.Decode(&line))
		lines = append(lines, line)
	}
	require.Len(t, lines, 3)
	assert.Equal(t, "request started", lines[0]["msg"])
	assert.Equal(t, "handled", lines[1]["msg"])
	assert.Equal(t, "a.dcm", lines[1]["file"])
	assert.Equal(t, "request complete", lines[2]["msg"])
	assert.EqualValues(t, http.StatusTeapot, lines[2]["resp_status"])
	assert.NotEmpty(t, lines[2]["req_id"])
}

func TestGetLogEntry_WithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.NotNil(t, GetLogEntry(req))
}
