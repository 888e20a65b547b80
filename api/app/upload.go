package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/jpeg"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/render"
	"github.com/google/uuid"

	"dcmtag2table/dicom"
	"dcmtag2table/logging"
	"dcmtag2table/metrics"
	"dcmtag2table/utils"
)

type ctxKey int

const (
	ctxUpload ctxKey = iota
)

var errEmptyBody = errors.New("empty request body")

// upload is a request body spooled to a temporary file.
type upload struct {
	ID   string
	Path string
	Size int64
}

// UploadResource loads DICOM files posted as request bodies.
type UploadResource struct {
	Loader        Loader
	Metrics       *metrics.Metrics
	MaxUploadSize int64
}

// NewUploadResource creates and returns an UploadResource.
func NewUploadResource(loader Loader, m *metrics.Metrics, maxUploadSize int64) *UploadResource {
	return &UploadResource{
		Loader:        loader,
		Metrics:       m,
		MaxUploadSize: maxUploadSize,
	}
}

// ctx spools the request body and removes it once the handler returns.
func (rs *UploadResource) ctx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > rs.MaxUploadSize {
			render.Render(w, r, ErrTooLarge(rs.MaxUploadSize))
			return
		}

		up, err := rs.spool(w, r)
		if err != nil {
			var tooLarge *http.MaxBytesError
			switch {
			case errors.As(err, &tooLarge):
				render.Render(w, r, ErrTooLarge(rs.MaxUploadSize))
			case errors.Is(err, errEmptyBody):
				render.Render(w, r, ErrInvalidRequest(err))
			default:
				log(r).WithError(err).Error("spool upload")
				render.Render(w, r, ErrInternalServerError)
			}
			return
		}
		defer os.Remove(up.Path)

		logging.LogEntrySetField(r, "upload", up.ID)
		log(r).WithField("size", up.Size).Debug("upload spooled")
		ctx := context.WithValue(r.Context(), ctxUpload, up)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (rs *UploadResource) spool(w http.ResponseWriter, r *http.Request) (*upload, error) {
	body := http.MaxBytesReader(w, r.Body, rs.MaxUploadSize)
	defer body.Close()

	id := uuid.NewString()
	file, err := os.CreateTemp("", "dcmtag2table-"+id+"-*.dcm")
	if err != nil {
		return nil, err
	}
	size, err := io.Copy(file, body)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err == nil && size == 0 {
		err = errEmptyBody
	}
	if err != nil {
		os.Remove(file.Name())
		return nil, err
	}
	return &upload{ID: id, Path: file.Name(), Size: size}, nil
}

// load reads the spooled upload of r.
func (rs *UploadResource) load(r *http.Request, decodePixelData bool) (*dicom.Object, error) {
	up, ok := r.Context().Value(ctxUpload).(*upload)
	if !ok {
		return nil, errEmptyBody
	}
	start := time.Now()
	obj, err := rs.Loader.Load(up.Path, decodePixelData)
	rs.Metrics.ObserveLoad(start, err)
	return obj, err
}

func (rs *UploadResource) tags(w http.ResponseWriter, r *http.Request) {
	decodePixelData, err := boolParam(r, "pixels")
	if err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	obj, err := rs.load(r, decodePixelData)
	if err != nil {
		render.Render(w, r, ErrLoad(r, err))
		return
	}

	if decodePixelData {
		stats := obj.PixelData().Stats()
		w.Header().Set("X-Pixel-Count", strconv.Itoa(stats.Count))
	}
	render.JSON(w, r, obj)
}

func (rs *UploadResource) preview(w http.ResponseWriter, r *http.Request) {
	params, frameIndex, err := windowParams(r)
	if err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	obj, err := rs.load(r, true)
	if err != nil {
		render.Render(w, r, ErrLoad(r, err))
		return
	}

	frames := obj.PixelData().Frames
	if frameIndex >= len(frames) {
		render.Render(w, r, ErrInvalidRequest(fmt.Errorf("frame %d out of range, file has %d", frameIndex, len(frames))))
		return
	}
	img, err := utils.RenderFrame(frames[frameIndex], params)
	if err != nil {
		render.Render(w, r, ErrUnprocessable(err))
		return
	}

	buffer := new(bytes.Buffer)
	if err := jpeg.Encode(buffer, img, nil); err != nil {
		render.Render(w, r, ErrInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Write(buffer.Bytes())
}

func windowParams(r *http.Request) (utils.RenderImageWindowParameters, int, error) {
	params := utils.RenderImageWindowParameters{Function: utils.Linear}
	query := r.URL.Query()

	var err error
	if v := query.Get("center"); v != "" {
		if params.WindowCenter, err = strconv.ParseFloat(v, 64); err != nil {
			return params, 0, fmt.Errorf("invalid center %q", v)
		}
	}
	if v := query.Get("width"); v != "" {
		if params.WindowWidth, err = strconv.ParseFloat(v, 64); err != nil {
			return params, 0, fmt.Errorf("invalid width %q", v)
		}
	}
	switch f := query.Get("function"); f {
	case "", "linear":
	case "linear_exact":
		params.Function = utils.LinearExact
	case "sigmoid":
		params.Function = utils.Sigmoid
	default:
		return params, 0, fmt.Errorf("unknown function %q", f)
	}
	if params.Invert, err = boolParam(r, "invert"); err != nil {
		return params, 0, err
	}

	frame := 0
	if v := query.Get("frame"); v != "" {
		if frame, err = strconv.Atoi(v); err != nil || frame < 0 {
			return params, 0, fmt.Errorf("invalid frame %q", v)
		}
	}
	return params, frame, nil
}

func boolParam(r *http.Request, name string) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q", name, v)
	}
	return b, nil
}
