package app

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"

	"dcmtag2table/dicom"
)

// ErrResponse renderer type for handling all sorts of errors.
type ErrResponse struct {
	Err            error `json:"-"` // low-level runtime error
	HTTPStatusCode int   `json:"-"` // http response status code

	StatusText string `json:"status"`          // user-level status message
	ErrorText  string `json:"error,omitempty"` // application-level error message, for debugging
}

// Render sets the response status.
func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func newErrResponse(status int, err error) *ErrResponse {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: status,
		StatusText:     http.StatusText(status),
		ErrorText:      err.Error(),
	}
}

// ErrInvalidRequest returns status 400 Bad Request for malformed request body.
func ErrInvalidRequest(err error) render.Renderer {
	return newErrResponse(http.StatusBadRequest, err)
}

// ErrUnprocessable returns status 422 Unprocessable Entity.
func ErrUnprocessable(err error) render.Renderer {
	return newErrResponse(http.StatusUnprocessableEntity, err)
}

// ErrTooLarge returns status 413 Request Entity Too Large.
func ErrTooLarge(limit int64) render.Renderer {
	return newErrResponse(http.StatusRequestEntityTooLarge, fmt.Errorf("request body exceeds %d bytes", limit))
}

// ErrLoad maps a DICOM load failure of an upload to its response. The
// spool path is left out of the message.
func ErrLoad(r *http.Request, err error) render.Renderer {
	var loadErr *dicom.LoadError
	if errors.As(err, &loadErr) {
		err = loadErr.Kind
		if loadErr.Err != nil {
			err = fmt.Errorf("%w: %v", loadErr.Kind, loadErr.Err)
		}
	}
	switch {
	case errors.Is(err, dicom.ErrInvalidFormat):
		return ErrInvalidRequest(err)
	case errors.Is(err, dicom.ErrPixelData):
		return ErrUnprocessable(err)
	}
	log(r).WithError(err).Error("load upload")
	return ErrInternalServerError
}

var (
	// ErrInternalServerError returns status 500 Internal Server Error.
	ErrInternalServerError = &ErrResponse{HTTPStatusCode: http.StatusInternalServerError, StatusText: http.StatusText(http.StatusInternalServerError)}
)
