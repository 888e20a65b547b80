// Package app serves tag extraction and previews for uploaded DICOM files.
package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"dcmtag2table/dicom"
	"dcmtag2table/logging"
	"dcmtag2table/metrics"
)

// DefaultMaxUploadSize bounds request bodies when no limit is configured.
const DefaultMaxUploadSize = 64 << 20

// Loader loads one DICOM file.
type Loader interface {
	Load(path string, decodePixelData bool) (*dicom.Object, error)
}

// API provides application resources and handlers.
type API struct {
	Upload *UploadResource
}

// NewAPI configures and returns application API. A nil loader uses the
// default DICOM loader.
func NewAPI(loader Loader, m *metrics.Metrics, maxUploadSize int64) (*API, error) {
	if loader == nil {
		loader = dicom.NewLoader(nil)
	}
	if maxUploadSize <= 0 {
		maxUploadSize = DefaultMaxUploadSize
	}

	api := &API{
		Upload: NewUploadResource(loader, m, maxUploadSize),
	}
	return api, nil
}

// Router provides application routes.
func (a *API) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(a.Upload.ctx)
		r.Post("/tags", a.Upload.tags)
		r.Post("/preview", a.Upload.preview)
	})

	return r
}

func log(r *http.Request) logrus.FieldLogger {
	return logging.GetLogEntry(r)
}
