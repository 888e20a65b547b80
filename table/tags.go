package table

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"dcmtag2table/dicom"
)

// DefaultTags are tabulated when no tag list is given.
var DefaultTags = []string{
	"StudyInstanceUID",
	"StudyDescription",
	"StudyDate",
	"StudyTime",
	"AccessionNumber",
	"PatientID",
	"PatientName",
	"PatientSex",
	"PatientAge",
	"Modality",
	"SeriesInstanceUID",
	"SeriesDescription",
	"SeriesNumber",
	"ProtocolName",
	"BodyPartExamined",
	"Manufacturer",
	"ManufacturerModelName",
	"StationName",
}

// Column is one requested tag: the header as written by the user and the
// tag it resolves to.
type Column struct {
	Header string
	Tag    dicom.TagID
}

// ResolveColumns parses tag keywords or codes into columns.
func ResolveColumns(tags []string) ([]Column, error) {
	columns := make([]Column, 0, len(tags))
	for _, name := range tags {
		t, err := dicom.ParseTag(name)
		if err != nil {
			return nil, err
		}
		columns = append(columns, Column{Header: strings.TrimSpace(name), Tag: t})
	}
	return columns, nil
}

// LoadTagList reads one tag per line, skipping blank lines and lines
// starting with '#'. An empty path, a missing file or a file without tags
// yields DefaultTags.
func LoadTagList(path string) ([]string, error) {
	if path == "" {
		return DefaultTags, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultTags, nil
		}
		return nil, fmt.Errorf("open tags file: %w", err)
	}
	defer file.Close()

	tags, err := ReadTagList(bufio.NewScanner(file))
	if err != nil {
		return nil, fmt.Errorf("read tags file %s: %w", path, err)
	}
	if len(tags) == 0 {
		return DefaultTags, nil
	}
	return tags, nil
}

// ReadTagList collects the tag lines produced by scanner.
func ReadTagList(scanner *bufio.Scanner) ([]string, error) {
	var tags []string
	for scanner.Scan() {
		trimmed := strings.TrimSpace(scanner.Text())
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		tags = append(tags, trimmed)
	}
	return tags, scanner.Err()
}
