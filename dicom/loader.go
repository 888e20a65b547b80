package dicom

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	godicom "github.com/suyashkumar/dicom"
)

const (
	preambleLength = 128
	magicWord      = "DICM"
)

// Decoder turns a DICOM stream of the given size into a data set.
type Decoder interface {
	Decode(r io.Reader, size int64, skipPixelData bool) (godicom.Dataset, error)
}

// LibraryDecoder decodes with github.com/suyashkumar/dicom.
type LibraryDecoder struct{}

func (LibraryDecoder) Decode(r io.Reader, size int64, skipPixelData bool) (ds godicom.Dataset, err error) {
	// The decoder panics on some malformed streams.
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("decoder panic: %v", p)
		}
	}()

	var opts []godicom.ParseOption
	if skipPixelData {
		opts = append(opts, godicom.SkipPixelData())
	}
	parser, err := godicom.NewParser(r, size, nil, opts...)
	if err != nil {
		return godicom.Dataset{}, err
	}
	ds.Elements = append([]*godicom.Element(nil), parser.GetMetadata().Elements...)

	// godicom.Parse treats io.EOF inside an element as the end of the data
	// set. The stream has to end exactly at an element boundary.
	for {
		element, err := parser.Next()
		if errors.Is(err, godicom.ErrorEndOfDICOM) {
			return ds, nil
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return godicom.Dataset{}, fmt.Errorf("%w: %v", errTruncated, err)
		}
		if err != nil {
			return godicom.Dataset{}, err
		}
		ds.Elements = append(ds.Elements, element)
	}
}

// Loader reads DICOM files into Objects. It holds no mutable state and is
// safe for concurrent use.
type Loader struct {
	decoder Decoder
}

// NewLoader returns a Loader backed by the given decoder, or by
// LibraryDecoder when decoder is nil.
func NewLoader(decoder Decoder) *Loader {
	if decoder == nil {
		decoder = LibraryDecoder{}
	}
	return &Loader{decoder: decoder}
}

var defaultLoader = NewLoader(nil)

// Load reads path with the default loader.
func Load(path string, decodePixelData bool) (*Object, error) {
	return defaultLoader.Load(path, decodePixelData)
}

// Load reads the DICOM file at path. Pixel data is decoded only when
// decodePixelData is set. On failure the returned error is a *LoadError and
// no object is returned.
func (l *Loader) Load(path string, decodePixelData bool) (*Object, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, newLoadError(ErrNotFound, path, err)
		}
		return nil, newLoadError(ErrNotReadable, path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, newLoadError(ErrNotReadable, path, errNotRegular)
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, newLoadError(ErrNotFound, path, err)
		}
		return nil, newLoadError(ErrNotReadable, path, err)
	}
	defer file.Close()

	if err := checkMagic(file, path); err != nil {
		return nil, err
	}

	dataset, err := l.decode(file, info.Size(), !decodePixelData)
	if err != nil {
		if !decodePixelData {
			return nil, newLoadError(ErrInvalidFormat, path, err)
		}
		// A stream that decodes once pixel data is skipped has a broken pixel
		// data element rather than a broken structure.
		if _, metaErr := l.decode(file, info.Size(), true); metaErr == nil {
			return nil, newLoadError(ErrPixelData, path, err)
		}
		return nil, newLoadError(ErrInvalidFormat, path, err)
	}

	return buildObject(path, dataset, decodePixelData)
}

func (l *Loader) decode(file *os.File, size int64, skipPixelData bool) (godicom.Dataset, error) {
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return godicom.Dataset{}, err
	}
	return l.decoder.Decode(file, size, skipPixelData)
}

func checkMagic(r io.Reader, path string) error {
	header := make([]byte, preambleLength+len(magicWord))
	if _, err := io.ReadFull(r, header); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return newLoadError(ErrInvalidFormat, path, errNoMagic)
		}
		return newLoadError(ErrNotReadable, path, err)
	}
	if !bytes.Equal(header[preambleLength:], []byte(magicWord)) {
		return newLoadError(ErrInvalidFormat, path, errNoMagic)
	}
	return nil
}

func buildObject(path string, dataset godicom.Dataset, decodePixelData bool) (*Object, error) {
	elements := convertElements(dataset.Elements)

	present := make(map[TagID]bool, len(elements))
	for _, e := range elements {
		present[e.Tag] = true
	}
	for _, required := range requiredTopLevelTags {
		if !present[required] {
			return nil, newLoadError(ErrInvalidFormat, path, fmt.Errorf("required element %s missing", required))
		}
	}

	var pixels *PixelData
	if decodePixelData {
		element, err := dataset.FindElementByTag(TagPixelData.library())
		if err != nil {
			return nil, newLoadError(ErrPixelData, path, errNoPixelElement)
		}
		pixels, err = convertPixelData(element)
		if err != nil {
			return nil, newLoadError(ErrPixelData, path, err)
		}
	}

	object, err := NewObject(path, decodePixelData, elements, pixels)
	if err != nil {
		return nil, newLoadError(ErrInvalidFormat, path, err)
	}
	return object, nil
}
