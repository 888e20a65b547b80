package fs

import (
	"crypto/sha1"
	"dcmtag2table/models"
	"dcmtag2table/utils"
	"encoding/hex"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sort"
)

const UPLOADS_DIR = "uploads"
const DICOM_PREFIX = "dicom"
const DICOM_EXT = ".dcm"

// Save writes data to path, creating parent directories as needed.
func Save(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// GetDicomPath returns where an uploaded instance is stored below root.
func GetDicomPath(root string, study *models.Study, series *models.Series, instance *models.Instance) string {
	studyId := getDicomObjectPathString(study)
	seriesId := getDicomObjectPathString(series)
	instanceId := getDicomObjectPathString(instance)

	return filepath.Join(root, UPLOADS_DIR, DICOM_PREFIX, studyId, seriesId, instanceId+DICOM_EXT)
}

func getDicomObjectPathString(object models.DicomObject) string {
	id := utils.GetObjectID(object)

	hash := sha1.New()
	hash.Write([]byte(id))

	return hex.EncodeToString(hash.Sum(nil))
}

// ListFiles returns every regular file below dir, sorted. Hidden
// directories are skipped.
func ListFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && len(d.Name()) > 1 && d.Name()[0] == '.' {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// FolderSize returns the total size in bytes of the regular files below dir.
func FolderSize(dir string) (int64, error) {
	var size int64
	err := filepath.WalkDir(dir, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		size += info.Size()
		return nil
	})
	return size, err
}

// Exists reports whether path names an existing file or directory.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
