package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dcmtag2table/dicom"
)

func TestStudy_Validate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		study   Study
		wantErr string
	}{
		{name: "valid", study: Study{StudyInstanceUID: "1.2.840.113619.2.55"}},
		{name: "missing uid", study: Study{}, wantErr: "study_instance_uid"},
		{name: "letters in uid", study: Study{StudyInstanceUID: "1.2.abc"}, wantErr: "digits separated by dots"},
		{name: "uid too long", study: Study{StudyInstanceUID: strings.Repeat("1", 65)}, wantErr: "study_instance_uid"},
		{name: "bad sex", study: Study{StudyInstanceUID: "1.2", PatientSex: "X"}, wantErr: "patient_sex"},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := tc.study.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestSeriesAndInstance_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, (&Series{SeriesInstanceUID: "1.2.3", Modality: "CT"}).Validate())
	require.Error(t, (&Series{Modality: "CT"}).Validate())

	require.NoError(t, (&Instance{SOPInstanceUID: "1.2.3.4", SOPClassUID: "1.2", FilePath: "a.dcm"}).Validate())
	require.Error(t, (&Instance{SOPInstanceUID: "1.2.3.4"}).Validate(), "file path is required")
	require.Error(t, (&Instance{SOPInstanceUID: "1.2.3.4", SOPClassUID: "x", FilePath: "a.dcm"}).Validate())
}

func TestGetObjectIdFieldTag(t *testing.T) {
	t.Parallel()
	assert.Equal(t, dicom.TagStudyInstanceUID, (&Study{}).GetObjectIdFieldTag())
	assert.Equal(t, dicom.TagSeriesInstanceUID, (&Series{}).GetObjectIdFieldTag())
	assert.Equal(t, dicom.TagSOPInstanceUID, (&Instance{}).GetObjectIdFieldTag())
}
