package table

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var errEmptyManifest = errors.New("manifest does not contain any series entries")

// LoadManifest reads the list of files to tabulate from a JSON manifest.
// The document is either an array or an object holding the array under
// "series", "files" or "entries". Entries are paths or objects with a
// "file_path", "path" or "filePath" member. Relative paths are resolved
// against the manifest directory.
func LoadManifest(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	entries, err := manifestEntries(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}

	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}

	var files []string
	for _, raw := range entries {
		entryPath := entryFilePath(raw)
		if entryPath == "" {
			continue
		}
		if !filepath.IsAbs(entryPath) {
			entryPath = filepath.Join(dir, entryPath)
		}
		files = append(files, filepath.Clean(entryPath))
	}
	return files, nil
}

func manifestEntries(data []byte) ([]json.RawMessage, error) {
	var document any
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, err
	}

	var entries []json.RawMessage
	switch document.(type) {
	case []any:
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, err
		}
	case map[string]any:
		var object map[string]json.RawMessage
		if err := json.Unmarshal(data, &object); err != nil {
			return nil, err
		}
		for _, key := range []string{"series", "files", "entries"} {
			raw, ok := object[key]
			if !ok {
				continue
			}
			var list []json.RawMessage
			if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
				entries = list
				break
			}
		}
	}
	if len(entries) == 0 {
		return nil, errEmptyManifest
	}
	return entries, nil
}

func entryFilePath(raw json.RawMessage) string {
	var path string
	if err := json.Unmarshal(raw, &path); err == nil {
		return path
	}
	var entry struct {
		FilePath      string `json:"file_path"`
		Path          string `json:"path"`
		FilePathCamel string `json:"filePath"`
	}
	if err := json.Unmarshal(raw, &entry); err != nil {
		return ""
	}
	switch {
	case entry.FilePath != "":
		return entry.FilePath
	case entry.Path != "":
		return entry.Path
	}
	return entry.FilePathCamel
}
