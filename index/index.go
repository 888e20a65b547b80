// Package index builds inverted indexes over an exported tag table: for each
// tag, every observed value maps to the key column values of the rows that
// carry it.
package index

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"dcmtag2table/fs"
	"dcmtag2table/utils"
)

// DefaultKeyColumn identifies rows when no key column is given.
const DefaultKeyColumn = "StudyInstanceUID"

// IndexFile lists every written per-tag file.
const IndexFile = "index.json"

// DefaultMissing are cell values treated as absent.
var DefaultMissing = []string{"", "Not found", "None", "none", "NULL", "null", "nan", "NaN"}

var ErrNoHeader = errors.New("table has no header")

// Index maps a cell value to the sorted, unique key values of its rows.
type Index map[string][]string

// Build reads a CSV table from r and returns one Index per tag. Values in
// extraMissing are treated as absent in addition to DefaultMissing. Rows
// whose key is absent are skipped.
func Build(r io.Reader, tags []string, keyColumn string, extraMissing ...string) (map[string]Index, error) {
	if keyColumn == "" {
		keyColumn = DefaultKeyColumn
	}
	missing := make(map[string]bool, len(DefaultMissing)+len(extraMissing))
	for _, token := range append(append([]string{}, DefaultMissing...), extraMissing...) {
		missing[strings.TrimSpace(token)] = true
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}

	keyIdx, ok := columns[keyColumn]
	if !ok {
		return nil, fmt.Errorf("key column %q not in table", keyColumn)
	}
	var absent []string
	tagIdx := make([]int, len(tags))
	for i, tag := range tags {
		idx, ok := columns[tag]
		if !ok {
			absent = append(absent, tag)
			continue
		}
		tagIdx[i] = idx
	}
	if len(absent) > 0 {
		return nil, fmt.Errorf("tags not in table: %s", strings.Join(absent, ", "))
	}

	sets := make(map[string]map[string]map[string]struct{}, len(tags))
	for _, tag := range tags {
		sets[tag] = map[string]map[string]struct{}{}
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		key := cell(record, keyIdx)
		if missing[key] {
			continue
		}
		for i, tag := range tags {
			value := cell(record, tagIdx[i])
			if missing[value] {
				continue
			}
			keys, ok := sets[tag][value]
			if !ok {
				keys = map[string]struct{}{}
				sets[tag][value] = keys
			}
			keys[key] = struct{}{}
		}
	}

	indexes := make(map[string]Index, len(tags))
	for tag, values := range sets {
		index := make(Index, len(values))
		for value, keys := range values {
			list := make([]string, 0, len(keys))
			for k := range keys {
				list = append(list, k)
			}
			sort.Strings(list)
			index[value] = list
		}
		indexes[tag] = index
	}
	return indexes, nil
}

func cell(record []string, idx int) string {
	if idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// Write stores each index as dir/<tag>.json and a summary IndexFile mapping
// file names to the values they hold. It returns the written paths, summary
// last.
func Write(dir string, indexes map[string]Index) ([]string, error) {
	tags := make([]string, 0, len(indexes))
	for tag := range indexes {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	var written []string
	summary := make(map[string][]string, len(tags))
	for _, tag := range tags {
		name := utils.SanitizeFilename(tag) + ".json"
		path := filepath.Join(dir, name)
		if err := writeJSON(path, indexes[tag]); err != nil {
			return written, err
		}
		written = append(written, path)

		values := make([]string, 0, len(indexes[tag]))
		for value := range indexes[tag] {
			values = append(values, value)
		}
		sort.Strings(values)
		summary[name] = values
	}

	path := filepath.Join(dir, IndexFile)
	if err := writeJSON(path, summary); err != nil {
		return written, err
	}
	return append(written, path), nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := fs.Save(path, append(data, '\n')); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
