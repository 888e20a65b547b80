// Package catalog serves the imported study, series and instance records.
package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-pg/pg"
	"github.com/sirupsen/logrus"

	"dcmtag2table/database"
	"dcmtag2table/logging"
	"dcmtag2table/models"
)

type ctxKey int

const (
	ctxStudy ctxKey = iota
	ctxSeries
)

// API provides catalog resources and handlers.
type API struct {
	Query   *QueryResource
	Summary *SummaryResource
}

type StudyStore interface {
	FindBy(fields map[string]any, options *database.SelectQueryOptions, tx *pg.Tx) ([]*models.Study, error)
	CountBy(fields map[string]any, tx *pg.Tx) (int, error)
	CountPatients(tx *pg.Tx) (int, error)
}
type SeriesStore interface {
	FindBy(fields map[string]any, options *database.SelectQueryOptions, tx *pg.Tx) ([]*models.Series, error)
	CountBy(fields map[string]any, tx *pg.Tx) (int, error)
}
type InstanceStore interface {
	FindBy(fields map[string]any, options *database.SelectQueryOptions, tx *pg.Tx) ([]*models.Instance, error)
	FindByUID(uid string, tx *pg.Tx) (*models.Instance, error)
	CountBy(fields map[string]any, tx *pg.Tx) (int, error)
}

// NewAPI configures and returns catalog API.
func NewAPI(studyStore StudyStore, seriesStore SeriesStore, instanceStore InstanceStore) (*API, error) {
	api := &API{
		Query:   NewQueryResource(studyStore, seriesStore, instanceStore),
		Summary: NewSummaryResource(studyStore, seriesStore, instanceStore),
	}
	return api, nil
}

// Router provides catalog routes.
func (a *API) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Get("/summary", a.Summary.getSummary)

	r.Group(func(r chi.Router) {
		r.Use(a.Query.ctx)
		r.Get("/studies", a.Query.studies)
		r.Get("/studies/{studyUID}/series", a.Query.series)
		r.Get("/studies/{studyUID}/series/{seriesUID}/instances", a.Query.instances)
	})

	r.Get("/instances/{instanceUID}/tags", a.Query.instanceTags)

	return r
}

func log(r *http.Request) logrus.FieldLogger {
	return logging.GetLogEntry(r)
}
