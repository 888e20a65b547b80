package catalog

import (
	"net/http"

	"github.com/go-chi/render"
)

type SummaryResource struct {
	StudyStore    StudyStore
	SeriesStore   SeriesStore
	InstanceStore InstanceStore
}

func NewSummaryResource(studyStore StudyStore, seriesStore SeriesStore, instanceStore InstanceStore) *SummaryResource {
	return &SummaryResource{
		StudyStore:    studyStore,
		SeriesStore:   seriesStore,
		InstanceStore: instanceStore,
	}
}

type SummaryResponse struct {
	StudyCount    int `json:"studyCount"`
	SeriesCount   int `json:"seriesCount"`
	InstanceCount int `json:"instanceCount"`
	PatientsCount int `json:"patientsCount"`
}

func (rs *SummaryResource) getSummary(w http.ResponseWriter, r *http.Request) {
	var summary SummaryResponse
	var err error

	if summary.StudyCount, err = rs.StudyStore.CountBy(nil, nil); err != nil {
		rs.fail(w, r, err)
		return
	}
	if summary.SeriesCount, err = rs.SeriesStore.CountBy(nil, nil); err != nil {
		rs.fail(w, r, err)
		return
	}
	if summary.InstanceCount, err = rs.InstanceStore.CountBy(nil, nil); err != nil {
		rs.fail(w, r, err)
		return
	}
	if summary.PatientsCount, err = rs.StudyStore.CountPatients(nil); err != nil {
		rs.fail(w, r, err)
		return
	}

	render.Respond(w, r, summary)
}

func (rs *SummaryResource) fail(w http.ResponseWriter, r *http.Request, err error) {
	log(r).WithError(err).Error("catalog summary")
	render.Render(w, r, ErrInternalServerError)
}
