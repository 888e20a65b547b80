package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dcmtag2table/dicom/dicomtest"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	root := NewRootCmd()
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetArgs(append([]string{"--config", writeConfig(t)}, args...))
	err := root.Execute()
	return out.String(), err
}

// writeConfig isolates each run from any config file in $HOME.
func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: error\n"), 0o644))
	return path
}

func writeStudy(t *testing.T, dir, name, sop, modality string) string {
	t.Helper()
	return dicomtest.NewFile(
		dicomtest.Str(0x0008, 0x0018, "UI", sop),
		dicomtest.Str(0x0008, 0x0060, "CS", modality),
		dicomtest.Str(0x0020, 0x000d, "UI", "1.2."+sop[len(sop)-1:]),
	).Write(t, dir, name)
}

// output parses the KEY=value lines printed by a command.
func output(s string) map[string]string {
	values := map[string]string{}
	for _, line := range strings.Split(strings.TrimSpace(s), "\n") {
		if key, value, ok := strings.Cut(line, "="); ok {
			values[key] = value
		}
	}
	return values
}

func TestTagsCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeStudy(t, dir, "a.dcm", "1.2.3.1", "MR")

	out, err := execute(t, "tags", path)
	require.NoError(t, err)

	var attrs map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &attrs), out)
	assert.Equal(t, []any{"MR"}, attrs["00080060"]["Value"])

	_, err = execute(t, "tags", filepath.Join(dir, "missing.dcm"))
	assert.Error(t, err)
}

func TestExportAndIndexCommands(t *testing.T) {
	input := filepath.Join(t.TempDir(), "input")
	writeStudy(t, input, "b/2.dcm", "1.2.3.2", "CT")
	writeStudy(t, input, "a/1.dcm", "1.2.3.1", "MR")
	dicomtest.WriteBytes(t, input, "README.txt", []byte("not dicom"))

	work := t.TempDir()
	tagsFile := filepath.Join(work, "dicomtags.txt")
	require.NoError(t, os.WriteFile(tagsFile, []byte("StudyInstanceUID\nModality\nPatientID\n"), 0o644))

	out, err := execute(t, "export", "--dir", input, "--tags-file", tagsFile, "--output-dir", filepath.Join(work, "out"), "--max-workers", "2")
	require.NoError(t, err)
	values := output(out)
	assert.Equal(t, "2", values["ROW_COUNT"])

	csvPath := values["CSV_OUTPUT"]
	require.FileExists(t, csvPath)
	assert.Regexp(t, `dcmtag2table_\d{8}_\d{6}\.csv$`, csvPath)
	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t,
		"Filename,StudyInstanceUID,Modality,PatientID\n"+
			filepath.Join(input, "a", "1.dcm")+",1.2.1,MR,Not found\n"+
			filepath.Join(input, "b", "2.dcm")+",1.2.2,CT,Not found\n",
		string(data))

	indexDir := filepath.Join(work, "index")
	out, err = execute(t, "index", csvPath, "--output-dir", indexDir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(indexDir, "Modality.json"),
		filepath.Join(indexDir, "PatientID.json"),
		filepath.Join(indexDir, "index.json"),
	}, strings.Fields(out))

	var modality map[string][]string
	data, err = os.ReadFile(filepath.Join(indexDir, "Modality.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &modality))
	assert.Equal(t, map[string][]string{"CT": {"1.2.2"}, "MR": {"1.2.1"}}, modality)

	out, err = execute(t, "index", csvPath, "--tags", "Filename", "--key", "Modality", "--output-dir", indexDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Filename.json")

	uniquePath := filepath.Join(work, "unique.json")
	out, err = execute(t, "summary", csvPath, "--unique-values", uniquePath)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"FILES":      "2",
		"PATIENTS":   "0",
		"STUDIES":    "2",
		"SERIES":     "0",
		"MODALITIES": "CT:1,MR:1",
	}, output(out))

	var unique map[string][]string
	data, err = os.ReadFile(uniquePath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &unique))
	assert.Equal(t, map[string][]string{
		"StudyInstanceUID": {"1.2.1", "1.2.2"},
		"Modality":         {"CT", "MR"},
		"PatientID":        {},
	}, unique)
}

func TestExportCommand_Append(t *testing.T) {
	work := t.TempDir()
	first := filepath.Join(work, "first")
	second := filepath.Join(work, "second")
	writeStudy(t, first, "1.dcm", "1.2.3.1", "MR")
	writeStudy(t, second, "2.dcm", "1.2.3.2", "CT")
	tagsFile := filepath.Join(work, "dicomtags.txt")
	require.NoError(t, os.WriteFile(tagsFile, []byte("Modality\n"), 0o644))
	combined := filepath.Join(work, "all.csv")

	for _, dir := range []string{first, second} {
		out, err := execute(t, "export", "--dir", dir, "--tags-file", tagsFile, "--append", combined)
		require.NoError(t, err)
		assert.Equal(t, combined, output(out)["CSV_OUTPUT"])
		assert.Equal(t, "1", output(out)["ROW_COUNT"])
	}

	data, err := os.ReadFile(combined)
	require.NoError(t, err)
	assert.Equal(t,
		"Filename,Modality\n"+
			filepath.Join(first, "1.dcm")+",MR\n"+
			filepath.Join(second, "2.dcm")+",CT\n",
		string(data))
}

func TestExportCommand_Manifest(t *testing.T) {
	work := t.TempDir()
	writeStudy(t, work, "series/1.dcm", "1.2.3.1", "US")
	manifest := filepath.Join(work, "manifest.json")
	require.NoError(t, os.WriteFile(manifest, []byte(`{"series": [{"file_path": "series/1.dcm"}]}`), 0o644))

	out, err := execute(t, "export", "--manifest", manifest, "--output-dir", work)
	require.NoError(t, err)
	assert.Equal(t, "1", output(out)["ROW_COUNT"])
}

func TestExportCommand_NoInput(t *testing.T) {
	_, err := execute(t, "export")
	assert.ErrorIs(t, err, errNoInput)

	_, err = execute(t, "export", "--dir", filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}
