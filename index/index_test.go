package index

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const table = `Filename,StudyInstanceUID,Modality,PatientSex
a.dcm,1.1,MR, F
b.dcm,1.2,CT,M
c.dcm,1.1,MR,Not found
d.dcm,Not found,US,F
e.dcm,1.3,nan,custom
`

func TestBuild(t *testing.T) {
	t.Parallel()
	indexes, err := Build(strings.NewReader(table), []string{"Modality", "PatientSex"}, "", "custom")
	require.NoError(t, err)

	want := map[string]Index{
		"Modality":   {"MR": {"1.1"}, "CT": {"1.2"}},
		"PatientSex": {"F": {"1.1"}, "M": {"1.2"}},
	}
	if diff := cmp.Diff(want, indexes); diff != "" {
		t.Errorf("Build() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_KeyColumn(t *testing.T) {
	t.Parallel()
	indexes, err := Build(strings.NewReader(table), []string{"Modality"}, "Filename")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.dcm", "c.dcm"}, indexes["Modality"]["MR"])
	assert.Equal(t, []string{"d.dcm"}, indexes["Modality"]["US"])
}

func TestBuild_Errors(t *testing.T) {
	t.Parallel()
	_, err := Build(strings.NewReader(""), []string{"Modality"}, "")
	assert.ErrorIs(t, err, ErrNoHeader)

	_, err = Build(strings.NewReader(table), []string{"Modality", "BodyPartExamined", "StationName"}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BodyPartExamined, StationName")

	_, err = Build(strings.NewReader(table), []string{"Modality"}, "AccessionNumber")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AccessionNumber")
}

func TestWrite(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "out")
	indexes := map[string]Index{
		"Modality":    {"MR": {"1.1"}, "CT": {"1.2"}},
		"(0010,0040)": {"F": {"1.1"}},
	}

	paths, err := Write(dir, indexes)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "0010_0040.json"),
		filepath.Join(dir, "Modality.json"),
		filepath.Join(dir, IndexFile),
	}, paths)

	data, err := os.ReadFile(filepath.Join(dir, "Modality.json"))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"CT\": [\n    \"1.2\"\n  ],\n  \"MR\": [\n    \"1.1\"\n  ]\n}\n", string(data))

	data, err = os.ReadFile(filepath.Join(dir, IndexFile))
	require.NoError(t, err)
	var summary map[string][]string
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.Equal(t, map[string][]string{
		"0010_0040.json": {"F"},
		"Modality.json":  {"CT", "MR"},
	}, summary)
}
