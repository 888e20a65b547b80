package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"dcmtag2table/database"
	"dcmtag2table/dicom"
	"dcmtag2table/logging"
	"dcmtag2table/models"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// QueryResource lists catalog records.
type QueryResource struct {
	StudyStore    StudyStore
	SeriesStore   SeriesStore
	InstanceStore InstanceStore
}

// NewQueryResource creates and returns a QueryResource.
func NewQueryResource(studyStore StudyStore, seriesStore SeriesStore, instanceStore InstanceStore) *QueryResource {
	return &QueryResource{
		StudyStore:    studyStore,
		SeriesStore:   seriesStore,
		InstanceStore: instanceStore,
	}
}

// ctx resolves the study and series named in the URL.
func (rs *QueryResource) ctx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		studyUID := chi.URLParam(r, "studyUID")
		if studyUID != "" {
			fields := map[string]any{(&models.Study{}).GetObjectIdFieldTag().Keyword(): studyUID}
			studyList, err := rs.StudyStore.FindBy(fields, &database.SelectQueryOptions{Limit: 1}, nil)
			if err != nil {
				log(r).WithError(err).Error("find study")
				render.Render(w, r, ErrInternalServerError)
				return
			}
			if len(studyList) != 1 {
				render.Render(w, r, ErrNotFound)
				return
			}
			ctx = context.WithValue(ctx, ctxStudy, studyList[0])
		}

		seriesUID := chi.URLParam(r, "seriesUID")
		if seriesUID != "" {
			study, ok := ctx.Value(ctxStudy).(*models.Study)
			if !ok {
				render.Render(w, r, ErrInternalServerError)
				return
			}
			fields := map[string]any{
				(&models.Series{}).GetObjectIdFieldTag().Keyword(): seriesUID,
				"StudyId": study.ID,
			}
			seriesList, err := rs.SeriesStore.FindBy(fields, &database.SelectQueryOptions{Limit: 1}, nil)
			if err != nil {
				log(r).WithError(err).Error("find series")
				render.Render(w, r, ErrInternalServerError)
				return
			}
			if len(seriesList) != 1 {
				render.Render(w, r, ErrNotFound)
				return
			}
			ctx = context.WithValue(ctx, ctxSeries, seriesList[0])
		}

		logging.LogEntrySetFields(r, map[string]interface{}{
			"study_uid":  studyUID,
			"series_uid": seriesUID,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ListRequest is a parsed list query: pagination, ordering and equality
// filters on record fields named by DICOM keyword or tag code.
type ListRequest struct {
	Options *database.SelectQueryOptions
	Fields  map[string]any
}

func getListRequest(r *http.Request, object models.DicomObject) (*ListRequest, error) {
	data := &ListRequest{
		Options: &database.SelectQueryOptions{Limit: defaultLimit},
		Fields:  map[string]any{},
	}

	for key, value := range r.URL.Query() {
		switch key {
		case "limit":
			limit, err := strconv.Atoi(value[0])
			if err != nil || limit < 1 {
				return nil, fmt.Errorf("invalid limit %q", value[0])
			}
			if limit > maxLimit {
				limit = maxLimit
			}
			data.Options.Limit = limit
		case "offset":
			offset, err := strconv.Atoi(value[0])
			if err != nil || offset < 0 {
				return nil, fmt.Errorf("invalid offset %q", value[0])
			}
			data.Options.Offset = offset
		case "orderby":
			field, err := fieldName(object, value[0])
			if err != nil {
				return nil, err
			}
			data.Options.OrderBy = field
		case "desc":
			desc, err := strconv.ParseBool(value[0])
			if err != nil {
				return nil, fmt.Errorf("invalid desc %q", value[0])
			}
			if desc {
				data.Options.OrderDirection = "DESC"
			}
		default:
			field, err := fieldName(object, key)
			if err != nil {
				return nil, err
			}
			data.Fields[field] = value[0]
		}
	}
	return data, nil
}

// fieldName returns the field of object holding the attribute nameOrCode.
func fieldName(object models.DicomObject, nameOrCode string) (string, error) {
	t, err := dicom.ParseTag(nameOrCode)
	if err != nil {
		return "", err
	}
	keyword := t.Keyword()
	reflection := reflect.TypeOf(object).Elem()
	for i := 0; i < reflection.NumField(); i++ {
		field := reflection.Field(i)
		if keyword != "" && field.Tag.Get("dicom") == keyword {
			return field.Name, nil
		}
	}
	return "", fmt.Errorf("%s is not a %s attribute", nameOrCode, reflection.Name())
}

func (rs *QueryResource) studies(w http.ResponseWriter, r *http.Request) {
	requestData, err := getListRequest(r, &models.Study{})
	if err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	studyList, err := rs.StudyStore.FindBy(requestData.Fields, requestData.Options, nil)
	if err != nil {
		log(r).WithError(err).Error("list studies")
		render.Render(w, r, ErrInternalServerError)
		return
	}
	if studyList == nil {
		studyList = []*models.Study{}
	}
	render.Respond(w, r, studyList)
}

func (rs *QueryResource) series(w http.ResponseWriter, r *http.Request) {
	requestData, err := getListRequest(r, &models.Series{})
	if err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	study := r.Context().Value(ctxStudy).(*models.Study)
	requestData.Fields["StudyId"] = study.ID

	seriesList, err := rs.SeriesStore.FindBy(requestData.Fields, requestData.Options, nil)
	if err != nil {
		log(r).WithError(err).Error("list series")
		render.Render(w, r, ErrInternalServerError)
		return
	}
	if seriesList == nil {
		seriesList = []*models.Series{}
	}
	render.Respond(w, r, seriesList)
}

func (rs *QueryResource) instances(w http.ResponseWriter, r *http.Request) {
	requestData, err := getListRequest(r, &models.Instance{})
	if err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	series := r.Context().Value(ctxSeries).(*models.Series)
	requestData.Fields["SeriesId"] = series.ID

	instanceList, err := rs.InstanceStore.FindBy(requestData.Fields, requestData.Options, nil)
	if err != nil {
		log(r).WithError(err).Error("list instances")
		render.Render(w, r, ErrInternalServerError)
		return
	}
	if instanceList == nil {
		instanceList = []*models.Instance{}
	}
	render.Respond(w, r, instanceList)
}

func (rs *QueryResource) instanceTags(w http.ResponseWriter, r *http.Request) {
	instance, err := rs.InstanceStore.FindByUID(chi.URLParam(r, "instanceUID"), nil)
	if err == database.ErrNotFound {
		render.Render(w, r, ErrNotFound)
		return
	}
	if err != nil {
		log(r).WithError(err).Error("find instance")
		render.Render(w, r, ErrInternalServerError)
		return
	}
	render.JSON(w, r, json.RawMessage(instance.Tags))
}
