package dicom

import (
	"errors"
	"fmt"
)

// Failure kinds reported by Loader.Load. Match them with errors.Is.
var (
	ErrNotFound      = errors.New("file not found")
	ErrNotReadable   = errors.New("file not readable")
	ErrInvalidFormat = errors.New("not a valid DICOM stream")
	ErrPixelData     = errors.New("pixel data error")
)

var (
	errNotRegular     = errors.New("not a regular file")
	errNoMagic        = errors.New("missing 128-byte preamble or DICM magic word")
	errTruncated      = errors.New("stream ends inside an element")
	errNoPixelElement = errors.New("pixel data element absent")
	errNoFrames       = errors.New("pixel data contains no frames")
)

// LoadError is the failure returned by Loader.Load.
type LoadError struct {
	Path string
	// Kind is one of ErrNotFound, ErrNotReadable, ErrInvalidFormat or ErrPixelData.
	Kind error
	Err  error
}

func newLoadError(kind error, path string, err error) *LoadError {
	return &LoadError{Path: path, Kind: kind, Err: err}
}

func (e *LoadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("load %s: %v", e.Path, e.Kind)
	}
	return fmt.Sprintf("load %s: %v: %v", e.Path, e.Kind, e.Err)
}

func (e *LoadError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
