// Package api configures an http server for tag extraction and catalog resources.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"dcmtag2table/api/app"
	"dcmtag2table/api/catalog"
	"dcmtag2table/logging"
	"dcmtag2table/metrics"
)

// Options configures the resources served by New.
type Options struct {
	EnableCORS    bool
	Timeout       time.Duration
	MaxUploadSize int64

	Logger  *logrus.Logger
	Loader  app.Loader
	Metrics *metrics.Metrics

	// Catalog stores; the /catalog routes are mounted only when all are set.
	Studies   catalog.StudyStore
	Series    catalog.SeriesStore
	Instances catalog.InstanceStore
}

// New configures application resources and routes.
func New(opts Options) (*chi.Mux, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}

	appAPI, err := app.NewAPI(opts.Loader, opts.Metrics, opts.MaxUploadSize)
	if err != nil {
		logger.WithField("module", "app").Error(err)
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(opts.Timeout))

	r.Use(logging.NewStructuredLogger(logger))
	r.Use(render.SetContentType(render.ContentTypeJSON))

	// use CORS middleware if client is not served by this api, e.g. from other domain or CDN
	if opts.EnableCORS {
		r.Use(corsConfig().Handler)
	}

	r.Mount("/", appAPI.Router())

	if opts.Studies != nil && opts.Series != nil && opts.Instances != nil {
		catalogAPI, err := catalog.NewAPI(opts.Studies, opts.Series, opts.Instances)
		if err != nil {
			logger.WithField("module", "catalog").Error(err)
			return nil, err
		}
		r.Mount("/catalog", catalogAPI.Router())
	} else {
		logger.WithField("module", "catalog").Info("no database configured, catalog routes disabled")
	}

	r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})

	return r, nil
}

func corsConfig() *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Pixel-Count"},
		AllowCredentials: false,
		MaxAge:           86400, // Maximum value not ignored by any of major browsers
	})
}
