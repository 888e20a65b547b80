package fs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dcmtag2table/models"
)

func TestSaveAndListFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	require.NoError(t, Save(filepath.Join(dir, "b", "2.dcm"), []byte("22")))
	require.NoError(t, Save(filepath.Join(dir, "a", "1.dcm"), []byte("1")))
	require.NoError(t, Save(filepath.Join(dir, ".git", "HEAD"), []byte("ref")))
	require.NoError(t, Save(filepath.Join(dir, "c.dcm"), []byte("333")))

	files, err := ListFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a", "1.dcm"),
		filepath.Join(dir, "b", "2.dcm"),
		filepath.Join(dir, "c.dcm"),
	}, files)

	size, err := FolderSize(dir)
	require.NoError(t, err)
	assert.Equal(t, int64(1+2+3+3), size)

	assert.True(t, Exists(filepath.Join(dir, "c.dcm")))
	assert.False(t, Exists(filepath.Join(dir, "missing")))
}

func TestListFiles_MissingDir(t *testing.T) {
	t.Parallel()
	_, err := ListFiles(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestGetDicomPath(t *testing.T) {
	t.Parallel()
	study := &models.Study{StudyInstanceUID: "1.2"}
	series := &models.Series{SeriesInstanceUID: "1.2.3"}
	instance := &models.Instance{SOPInstanceUID: "1.2.3.4"}

	path := GetDicomPath("/srv", study, series, instance)
	assert.True(t, strings.HasPrefix(path, filepath.Join("/srv", UPLOADS_DIR, DICOM_PREFIX)))
	assert.True(t, strings.HasSuffix(path, DICOM_EXT))
	assert.Equal(t, path, GetDicomPath("/srv", study, series, instance), "path is stable")

	other := GetDicomPath("/srv", study, series, &models.Instance{SOPInstanceUID: "1.2.3.5"})
	assert.NotEqual(t, path, other)
}
