package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"

	"dcmtag2table/utils"
)

var errEmptyTable = errors.New("table has no header")

// Summary counts what an exported table covers. Counts of a column absent
// from the table are zero.
type Summary struct {
	Files      int            `json:"files"`
	Patients   int            `json:"patients"`
	Studies    int            `json:"studies"`
	Series     int            `json:"series"`
	Modalities map[string]int `json:"modalities"`
	// AgeMin and AgeMax are in years and only set when Ages > 0.
	Ages   int `json:"ages"`
	AgeMin int `json:"ageMin,omitempty"`
	AgeMax int `json:"ageMax,omitempty"`
}

func missing(value string) bool {
	return value == "" || value == NotFound
}

// ReadCSV reads a table written by WriteCSV.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errEmptyTable
	}
	return &Table{Header: records[0], Rows: records[1:]}, nil
}

// column returns the values of the named column, or nil when the table has
// no such column.
func (t *Table) column(name string) []string {
	idx := slices.Index(t.Header, name)
	if idx < 0 {
		return nil
	}
	values := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		if idx < len(row) {
			values = append(values, row[idx])
		} else {
			values = append(values, "")
		}
	}
	return values
}

func distinct(values []string) int {
	seen := map[string]bool{}
	for _, v := range values {
		if !missing(v) {
			seen[v] = true
		}
	}
	return len(seen)
}

// Summarize counts files, distinct patients, studies and series, files per
// modality and the range of patient ages.
func (t *Table) Summarize() Summary {
	s := Summary{
		Files:      len(t.Rows),
		Patients:   distinct(t.column("PatientID")),
		Studies:    distinct(t.column("StudyInstanceUID")),
		Series:     distinct(t.column("SeriesInstanceUID")),
		Modalities: map[string]int{},
	}
	for _, modality := range t.column("Modality") {
		if !missing(modality) {
			s.Modalities[modality]++
		}
	}
	for _, age := range t.column("PatientAge") {
		years, err := utils.AgeStringToYears(age)
		if err != nil {
			continue
		}
		if s.Ages == 0 || years < s.AgeMin {
			s.AgeMin = years
		}
		if s.Ages == 0 || years > s.AgeMax {
			s.AgeMax = years
		}
		s.Ages++
	}
	return s
}

// UniqueValues returns, per column other than Filename, the sorted distinct
// values present in the table.
func (t *Table) UniqueValues() map[string][]string {
	out := make(map[string][]string, len(t.Header))
	for _, name := range t.Header {
		if name == FilenameHeader {
			continue
		}
		seen := map[string]bool{}
		values := []string{}
		for _, v := range t.column(name) {
			if missing(v) || seen[v] {
				continue
			}
			seen[v] = true
			values = append(values, v)
		}
		sort.Strings(values)
		out[name] = values
	}
	return out
}

// AppendCSV appends the rows to the table at path, creating it with a header
// when it does not exist or is empty. An existing table must have the same
// header.
func (t *Table) AppendCSV(path string) error {
	info, err := os.Stat(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err != nil || info.Size() == 0 {
		out, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := t.WriteCSV(out); err != nil {
			out.Close()
			return err
		}
		return out.Close()
	}

	in, err := os.Open(path)
	if err != nil {
		return err
	}
	header, err := csv.NewReader(in).Read()
	in.Close()
	if err != nil {
		return fmt.Errorf("read header of %s: %w", path, err)
	}
	if !slices.Equal(header, t.Header) {
		return fmt.Errorf("header of %s differs from the exported columns", path)
	}

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return err
	}
	writer := csv.NewWriter(out)
	if err := writer.WriteAll(t.Rows); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
