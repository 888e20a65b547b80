package dicom_test

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	godicom "github.com/suyashkumar/dicom"

	"dcmtag2table/dicom"
	"dcmtag2table/dicom/dicomtest"
)

var (
	tagReferencedSeriesSequence = dicom.TagID{Group: 0x0008, Element: 0x1115}
	tagInstanceNumber           = dicom.TagID{Group: 0x0020, Element: 0x0013}
	tagPixelSpacing             = dicom.TagID{Group: 0x0028, Element: 0x0030}
)

// studyElements returns a data set in ascending tag order with a nested
// sequence and numeric strings.
func studyElements() []dicomtest.Element {
	return []dicomtest.Element{
		dicomtest.Str(0x0008, 0x0016, "UI", dicomtest.SecondaryCaptureClass),
		dicomtest.Str(0x0008, 0x0018, "UI", "1.2.3.4.5.6"),
		dicomtest.Str(0x0008, 0x0060, "CS", "CT"),
		dicomtest.Seq(0x0008, 0x1115,
			[]dicomtest.Element{dicomtest.Str(0x0020, 0x000e, "UI", "9.8.7")},
			[]dicomtest.Element{dicomtest.Str(0x0020, 0x000e, "UI", "9.8.7.6")},
		),
		dicomtest.Str(0x0010, 0x0010, "PN", "Doe^Jane"),
		dicomtest.Str(0x0010, 0x0020, "LO", "PAT-001"),
		dicomtest.Str(0x0020, 0x000d, "UI", "1.2.3.4"),
		dicomtest.Str(0x0020, 0x000e, "UI", "1.2.3.4.5"),
		dicomtest.Str(0x0020, 0x0013, "IS", "7"),
		dicomtest.Str(0x0028, 0x0030, "DS", `0.5\0.25`),
	}
}

func imageElements(withGeometry bool, pixel ...dicomtest.Element) []dicomtest.Element {
	elements := dicomtest.Patient("1.2.3.4.5.6")
	if withGeometry {
		elements = append(elements, dicomtest.ImageGeometry(2, 2)...)
	}
	return append(elements, pixel...)
}

func TestLoad_TagsInFileOrder(t *testing.T) {
	t.Parallel()
	path := dicomtest.NewFile(studyElements()...).Write(t, t.TempDir(), "study.dcm")

	obj, err := dicom.Load(path, false)
	require.NoError(t, err)

	assert.Equal(t, path, obj.Path())
	assert.False(t, obj.DecodedPixelData())
	assert.Nil(t, obj.PixelData())

	sop, ok := obj.FindString(dicom.TagSOPInstanceUID)
	require.True(t, ok, "SOPInstanceUID must be present")
	assert.Equal(t, "1.2.3.4.5.6", sop)

	ts, ok := obj.FindString(dicom.TagTransferSyntaxUID)
	require.True(t, ok)
	assert.Equal(t, dicomtest.ExplicitVRLittleEndian, ts)

	elements := obj.Elements()
	for i := 1; i < len(elements); i++ {
		prev, cur := elements[i-1].Tag, elements[i].Tag
		require.True(t, prev.Group < cur.Group || (prev.Group == cur.Group && prev.Element < cur.Element),
			"elements out of file order: %s before %s", prev, cur)
	}

	name, ok := obj.Find(dicom.TagPatientName)
	require.True(t, ok)
	assert.Equal(t, "PatientName", name.Name)
	assert.Equal(t, "PN", name.VR)
	assert.Equal(t, dicom.StringValue("Doe^Jane"), name.Value)
}

func TestLoad_NumericStrings(t *testing.T) {
	t.Parallel()
	path := dicomtest.NewFile(studyElements()...).Write(t, t.TempDir(), "study.dcm")

	obj, err := dicom.Load(path, false)
	require.NoError(t, err)

	number, ok := obj.Find(tagInstanceNumber)
	require.True(t, ok)
	assert.Equal(t, dicom.KindInteger, number.Value.Kind)
	assert.Equal(t, []int64{7}, number.Value.Integers)

	spacing, ok := obj.Find(tagPixelSpacing)
	require.True(t, ok)
	assert.Equal(t, dicom.KindDecimal, spacing.Value.Kind)
	assert.Equal(t, []float64{0.5, 0.25}, spacing.Value.Decimals)
	assert.Equal(t, `0.5\0.25`, spacing.String())
}

func TestLoad_NumericStringsKeepFileText(t *testing.T) {
	t.Parallel()
	tagWindowCenter := dicom.TagID{Group: 0x0028, Element: 0x1050}
	elements := append(dicomtest.Patient("1.2.3.4.5.6"),
		dicomtest.Str(0x0020, 0x0013, "IS", "007"),
		dicomtest.Str(0x0028, 0x0030, "DS", `NaN\Inf`),
		dicomtest.Str(0x0028, 0x1050, "DS", "40.50"),
	)
	path := dicomtest.NewFile(elements...).Write(t, t.TempDir(), "numbers.dcm")

	obj, err := dicom.Load(path, false)
	require.NoError(t, err)

	number, ok := obj.Find(tagInstanceNumber)
	require.True(t, ok)
	assert.Equal(t, []int64{7}, number.Value.Integers)
	assert.Equal(t, "007", number.String())

	center, ok := obj.Find(tagWindowCenter)
	require.True(t, ok)
	assert.Equal(t, []float64{40.5}, center.Value.Decimals)
	assert.Equal(t, "40.50", center.String())

	spacing, ok := obj.Find(tagPixelSpacing)
	require.True(t, ok)
	assert.Equal(t, dicom.StringValue("NaN", "Inf"), spacing.Value, "non-finite decimals stay strings")

	data, err := json.Marshal(obj)
	require.NoError(t, err)
	var decoded map[string]struct {
		Value []any `json:"Value"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, []any{"NaN", "Inf"}, decoded["00280030"].Value)
	assert.Equal(t, []any{40.5}, decoded["00281050"].Value)
}

func TestObject_MarshalJSON_NonFiniteDecimals(t *testing.T) {
	t.Parallel()
	elements := []dicom.Element{
		{Tag: dicom.TagSOPInstanceUID, VR: "UI", Value: dicom.StringValue("1.2")},
		{Tag: tagPixelSpacing, VR: "FD", Value: dicom.DecimalValue(math.NaN(), math.Inf(1), 2)},
	}
	obj, err := dicom.NewObject("a.dcm", false, elements, nil)
	require.NoError(t, err)

	data, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.JSONEq(t, `{"00080018":{"vr":"UI","Value":["1.2"]},"00280030":{"vr":"FD","Value":["NaN","+Inf",2]}}`, string(data))
}

func TestLoad_NestedSequence(t *testing.T) {
	t.Parallel()
	path := dicomtest.NewFile(studyElements()...).Write(t, t.TempDir(), "study.dcm")

	obj, err := dicom.Load(path, false)
	require.NoError(t, err)

	seq, ok := obj.Find(tagReferencedSeriesSequence)
	require.True(t, ok)
	require.Equal(t, dicom.KindSequence, seq.Value.Kind)
	require.Len(t, seq.Value.Items, 2)

	first, ok := seq.Value.Items[0].Find(dicom.TagSeriesInstanceUID)
	require.True(t, ok)
	assert.Equal(t, dicom.StringValue("9.8.7"), first.Value)

	var nested []string
	err = obj.Walk(func(depth int, e dicom.Element) error {
		if depth > 0 {
			nested = append(nested, e.Value.String())
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"9.8.7", "9.8.7.6"}, nested)
}

func TestLoad_ImplicitVR(t *testing.T) {
	t.Parallel()
	path := dicomtest.NewFile(studyElements()...).Implicit().Write(t, t.TempDir(), "implicit.dcm")

	obj, err := dicom.Load(path, false)
	require.NoError(t, err)

	id, ok := obj.FindString(dicom.MustParseTag("PatientID"))
	require.True(t, ok)
	assert.Equal(t, "PAT-001", id)

	seq, ok := obj.Find(tagReferencedSeriesSequence)
	require.True(t, ok)
	assert.Len(t, seq.Value.Items, 2)
}

func TestLoad_PixelData(t *testing.T) {
	t.Parallel()
	file := dicomtest.NewFile(imageElements(true, dicomtest.PixelData(1, 2, 3, 4000))...)
	path := file.Write(t, t.TempDir(), "image.dcm")

	obj, err := dicom.Load(path, true)
	require.NoError(t, err)
	require.True(t, obj.DecodedPixelData())

	pixels := obj.PixelData()
	require.NotNil(t, pixels)
	require.Len(t, pixels.Frames, 1)
	assert.Equal(t, 2, pixels.Frames[0].Rows)
	assert.Equal(t, 2, pixels.Frames[0].Cols)
	assert.Equal(t, []int{1, 2, 3, 4000}, pixels.Frames[0].Samples)

	stats := pixels.Stats()
	assert.Equal(t, 4, stats.Count)
	assert.Equal(t, 1, stats.Min)
	assert.Equal(t, 4000, stats.Max)
	assert.InDelta(t, 1001.5, stats.Mean, 1e-9)
}

func TestLoad_PixelDataSkipped(t *testing.T) {
	t.Parallel()
	file := dicomtest.NewFile(imageElements(true, dicomtest.PixelData(1, 2, 3, 4))...)
	path := file.Write(t, t.TempDir(), "image.dcm")

	obj, err := dicom.Load(path, false)
	require.NoError(t, err)
	assert.False(t, obj.DecodedPixelData())
	assert.Nil(t, obj.PixelData())

	element, ok := obj.Find(dicom.TagPixelData)
	require.True(t, ok, "pixel data element is still listed")
	assert.Equal(t, dicom.KindBinary, element.Value.Kind)
	assert.Empty(t, element.Value.Bytes)
	assert.Equal(t, "<pixel data>", element.String())
}

func TestLoad_Failures(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	textFile := dicomtest.WriteBytes(t, dir, "notes.txt", []byte("this is a plain text file, not a DICOM stream\n"))
	emptyFile := dicomtest.WriteBytes(t, dir, "empty.dcm", nil)
	longText := make([]byte, 512)
	for i := range longText {
		longText[i] = 'a'
	}
	longTextFile := dicomtest.WriteBytes(t, dir, "long.txt", longText)
	magicOnly := dicomtest.WriteBytes(t, dir, "magic.dcm", append(make([]byte, 128), []byte("DICM")...))

	noSOP := dicomtest.NewFile(
		dicomtest.Str(0x0008, 0x0060, "CS", "CT"),
		dicomtest.Str(0x0010, 0x0020, "LO", "PAT-001"),
	).Write(t, dir, "nosop.dcm")

	noTS := dicomtest.NewFile(dicomtest.Patient("1.2.3")...)
	noTS.OmitTransferSyntax = true
	noTSPath := noTS.Write(t, dir, "nots.dcm")

	complete := dicomtest.NewFile(dicomtest.Patient("1.2.3")...).Bytes()
	// Tag and VR of StudyDescription without length or value.
	danglingHeader := dicomtest.WriteBytes(t, dir, "dangling.dcm",
		append(append([]byte(nil), complete...), 0x08, 0x00, 0x30, 0x10, 'L', 'O'))
	// Keeps only the tag of the last element, SeriesInstanceUID.
	cutInHeader := dicomtest.WriteBytes(t, dir, "cutheader.dcm", complete[:len(complete)-14])
	cutInValue := dicomtest.WriteBytes(t, dir, "cutvalue.dcm", complete[:len(complete)-3])

	noPixels := dicomtest.NewFile(dicomtest.Patient("1.2.3")...).Write(t, dir, "nopixels.dcm")
	noGeometry := dicomtest.NewFile(imageElements(false, dicomtest.PixelData(1, 2, 3, 4))...).Write(t, dir, "nogeometry.dcm")

	testCases := []struct {
		name   string
		path   string
		decode bool
		want   error
	}{
		{name: "missing file", path: filepath.Join(dir, "absent.dcm"), want: dicom.ErrNotFound},
		{name: "directory", path: dir, want: dicom.ErrNotReadable},
		{name: "zero bytes", path: emptyFile, want: dicom.ErrInvalidFormat},
		{name: "plain text", path: textFile, want: dicom.ErrInvalidFormat},
		{name: "text past preamble length", path: longTextFile, want: dicom.ErrInvalidFormat},
		{name: "magic without meta group", path: magicOnly, want: dicom.ErrInvalidFormat},
		{name: "missing SOPInstanceUID", path: noSOP, want: dicom.ErrInvalidFormat},
		{name: "missing transfer syntax", path: noTSPath, want: dicom.ErrInvalidFormat},
		{name: "dangling element header", path: danglingHeader, want: dicom.ErrInvalidFormat},
		{name: "cut inside element header", path: cutInHeader, want: dicom.ErrInvalidFormat},
		{name: "cut inside element header with pixels", path: cutInHeader, decode: true, want: dicom.ErrInvalidFormat},
		{name: "cut inside element value", path: cutInValue, want: dicom.ErrInvalidFormat},
		{name: "pixels requested but absent", path: noPixels, decode: true, want: dicom.ErrPixelData},
		{name: "pixels without geometry", path: noGeometry, decode: true, want: dicom.ErrPixelData},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			obj, err := dicom.Load(tc.path, tc.decode)
			require.Error(t, err)
			assert.Nil(t, obj, "no partial object on failure")
			assert.ErrorIs(t, err, tc.want)

			var loadErr *dicom.LoadError
			require.True(t, errors.As(err, &loadErr))
			assert.Equal(t, tc.path, loadErr.Path)
			assert.Equal(t, tc.want, loadErr.Kind)
		})
	}
}

func TestLoad_CorruptPixelsStillLoadWithoutDecoding(t *testing.T) {
	t.Parallel()
	path := dicomtest.NewFile(imageElements(false, dicomtest.PixelData(1, 2, 3, 4))...).Write(t, t.TempDir(), "image.dcm")

	_, err := dicom.Load(path, true)
	require.ErrorIs(t, err, dicom.ErrPixelData)

	obj, err := dicom.Load(path, false)
	require.NoError(t, err)
	assert.False(t, obj.DecodedPixelData())
}

func TestLoad_Idempotent(t *testing.T) {
	t.Parallel()
	path := dicomtest.NewFile(studyElements()...).Write(t, t.TempDir(), "study.dcm")

	first, err := dicom.Load(path, false)
	require.NoError(t, err)
	second, err := dicom.Load(path, false)
	require.NoError(t, err)

	if diff := cmp.Diff(first.Elements(), second.Elements()); diff != "" {
		t.Errorf("repeated loads differ (-first +second):\n%s", diff)
	}
}

func TestLoad_Concurrent(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	paths := make([]string, 8)
	for i := range paths {
		paths[i] = dicomtest.NewFile(studyElements()...).Write(t, dir, filepath.Join("series", string(rune('a'+i))+".dcm"))
	}

	loader := dicom.NewLoader(nil)
	var wg sync.WaitGroup
	errs := make([]error, len(paths)*2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = loader.Load(paths[i%len(paths)], false)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
}

type failingDecoder struct{}

func (failingDecoder) Decode(io.Reader, int64, bool) (godicom.Dataset, error) {
	return godicom.Dataset{}, errors.New("boom")
}

func TestLoader_DecoderFailureIsInvalidFormat(t *testing.T) {
	t.Parallel()
	path := dicomtest.NewFile(studyElements()...).Write(t, t.TempDir(), "study.dcm")

	_, err := dicom.NewLoader(failingDecoder{}).Load(path, true)
	require.ErrorIs(t, err, dicom.ErrInvalidFormat)
	assert.Contains(t, err.Error(), "boom")
}

func TestObject_ElementsIsACopy(t *testing.T) {
	t.Parallel()
	path := dicomtest.NewFile(studyElements()...).Write(t, t.TempDir(), "study.dcm")

	obj, err := dicom.Load(path, false)
	require.NoError(t, err)

	elements := obj.Elements()
	elements[0] = dicom.Element{}
	assert.NotEqual(t, dicom.Element{}, obj.Elements()[0])

	sop, ok := obj.Find(dicom.TagSOPInstanceUID)
	require.True(t, ok)
	sop.Value.Strings[0] = "changed"
	got, _ := obj.FindString(dicom.TagSOPInstanceUID)
	assert.Equal(t, "1.2.3.4.5.6", got)

	for _, e := range obj.Elements() {
		if e.Tag == tagReferencedSeriesSequence {
			e.Value.Items[0].Elements[0].Value.Strings[0] = "changed"
			e.Value.Items[1] = dicom.Item{}
		}
	}
	seq, ok := obj.Find(tagReferencedSeriesSequence)
	require.True(t, ok)
	require.Len(t, seq.Value.Items, 2)
	assert.Equal(t, "9.8.7", seq.Value.Items[0].Elements[0].Value.String())
	assert.Equal(t, "9.8.7.6", seq.Value.Items[1].Elements[0].Value.String())

	err = obj.Walk(func(depth int, e dicom.Element) error {
		if e.Value.Kind == dicom.KindString && len(e.Value.Strings) > 0 {
			e.Value.Strings[0] = "walked"
		}
		return nil
	})
	require.NoError(t, err)
	got, _ = obj.FindString(dicom.TagPatientName)
	assert.Equal(t, "Doe^Jane", got)
}

func TestObject_PixelDataIsACopy(t *testing.T) {
	t.Parallel()
	path := dicomtest.NewFile(imageElements(true, dicomtest.PixelData(1, 2, 3, 4))...).Write(t, t.TempDir(), "image.dcm")

	obj, err := dicom.Load(path, true)
	require.NoError(t, err)

	obj.PixelData().Frames[0].Samples[0] = 99
	assert.Equal(t, []int{1, 2, 3, 4}, obj.PixelData().Frames[0].Samples)
}
