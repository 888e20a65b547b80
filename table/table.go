// Package table tabulates chosen DICOM tags across many files.
package table

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"dcmtag2table/dicom"
	"dcmtag2table/metrics"
)

const (
	FilenameHeader = "Filename"
	NotFound       = "Not found"
)

// Loader loads one DICOM file.
type Loader interface {
	Load(path string, decodePixelData bool) (*dicom.Object, error)
}

// Skipped is a file that could not be tabulated.
type Skipped struct {
	Path string
	Err  error
}

// Table holds one row per loaded file, sorted by filename.
type Table struct {
	Header  []string
	Rows    [][]string
	Skipped []Skipped
}

// Extractor loads files concurrently and collects their tag values.
type Extractor struct {
	Loader  Loader
	Workers int
	Logger  logrus.FieldLogger
	Metrics *metrics.Metrics
}

// NewExtractor returns an Extractor using the default DICOM loader.
func NewExtractor(workers int, logger logrus.FieldLogger, m *metrics.Metrics) *Extractor {
	return &Extractor{
		Loader:  dicom.NewLoader(nil),
		Workers: workers,
		Logger:  logger,
		Metrics: m,
	}
}

// Extract tabulates tags over files. Files that fail to load are skipped
// and listed in Table.Skipped. Extraction stops early only when ctx is
// cancelled.
func (e *Extractor) Extract(ctx context.Context, files []string, tags []string) (*Table, error) {
	columns, err := ResolveColumns(tags)
	if err != nil {
		return nil, err
	}

	header := make([]string, 0, len(columns)+1)
	header = append(header, FilenameHeader)
	for _, c := range columns {
		header = append(header, c.Header)
	}
	table := &Table{Header: header, Rows: [][]string{}}

	var paths []string
	for _, f := range files {
		if f != "" {
			paths = append(paths, f)
		}
	}
	if len(paths) == 0 {
		return table, nil
	}

	workers := e.Workers
	if workers < 1 {
		workers = 1
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, path := range paths {
		path := path
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			row, err := e.row(path, columns)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				e.logger().WithField("file", path).WithError(err).Warn("skipping non-DICOM or unreadable file")
				table.Skipped = append(table.Skipped, Skipped{Path: path, Err: err})
				return nil
			}
			table.Rows = append(table.Rows, row)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(table.Rows, func(i, j int) bool { return table.Rows[i][0] < table.Rows[j][0] })
	sort.Slice(table.Skipped, func(i, j int) bool { return table.Skipped[i].Path < table.Skipped[j].Path })
	if e.Metrics != nil {
		e.Metrics.RowsExported.Add(float64(len(table.Rows)))
	}
	return table, nil
}

func (e *Extractor) row(path string, columns []Column) ([]string, error) {
	start := time.Now()
	obj, err := e.Loader.Load(path, false)
	e.Metrics.ObserveLoad(start, err)
	if err != nil {
		return nil, err
	}

	row := make([]string, 0, len(columns)+1)
	row = append(row, path)
	for _, c := range columns {
		element, ok := obj.Find(c.Tag)
		if !ok {
			row = append(row, NotFound)
			continue
		}
		row = append(row, element.String())
	}
	return row, nil
}

func (e *Extractor) logger() logrus.FieldLogger {
	if e.Logger == nil {
		return logrus.StandardLogger()
	}
	return e.Logger
}

// WriteCSV writes the header and rows.
func (t *Table) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Header); err != nil {
		return err
	}
	if err := writer.WriteAll(t.Rows); err != nil {
		return err
	}
	return writer.Error()
}

// OutputPath returns the timestamped CSV path inside dir.
func OutputPath(dir string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("dcmtag2table_%s.csv", now.Format("20060102_150405")))
}
