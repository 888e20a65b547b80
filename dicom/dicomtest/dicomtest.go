// Package dicomtest writes byte-exact DICOM Part 10 files for tests,
// including malformed ones.
package dicomtest

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
)

const (
	ExplicitVRLittleEndian = "1.2.840.10008.1.2.1"
	ImplicitVRLittleEndian = "1.2.840.10008.1.2"
	SecondaryCaptureClass  = "1.2.840.10008.5.1.4.1.1.7"
)

// VRs encoded with a reserved field and 32-bit length in explicit VR syntaxes.
var longLengthVRs = map[string]bool{
	"OB": true, "OD": true, "OF": true, "OL": true, "OW": true,
	"SQ": true, "UC": true, "UN": true, "UR": true, "UT": true,
}

// Element is one data element to encode.
type Element struct {
	Group   uint16
	Element uint16
	VR      string
	Value   []byte
	Items   [][]Element
}

func Str(group, element uint16, vr string, value string) Element {
	return Element{Group: group, Element: element, VR: vr, Value: pad(vr, []byte(value))}
}

func US(group, element uint16, values ...uint16) Element {
	buf := make([]byte, 2*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint16(buf[2*i:], v)
	}
	return Element{Group: group, Element: element, VR: "US", Value: buf}
}

func UL(group, element uint16, values ...uint32) Element {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[4*i:], v)
	}
	return Element{Group: group, Element: element, VR: "UL", Value: buf}
}

func FD(group, element uint16, values ...float64) Element {
	buf := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
	}
	return Element{Group: group, Element: element, VR: "FD", Value: buf}
}

func Raw(group, element uint16, vr string, value []byte) Element {
	return Element{Group: group, Element: element, VR: vr, Value: pad(vr, value)}
}

func Seq(group, element uint16, items ...[]Element) Element {
	return Element{Group: group, Element: element, VR: "SQ", Items: items}
}

// PixelData returns a native 16-bit pixel data element.
func PixelData(samples ...uint16) Element {
	buf := make([]byte, 2*len(samples))
	for i, v := range samples {
		binary.LittleEndian.PutUint16(buf[2*i:], v)
	}
	return Element{Group: 0x7fe0, Element: 0x0010, VR: "OW", Value: buf}
}

// ImageGeometry returns the image pixel module attributes for a single
// 16-bit monochrome frame.
func ImageGeometry(rows, cols uint16) []Element {
	return []Element{
		US(0x0028, 0x0002, 1),
		Str(0x0028, 0x0004, "CS", "MONOCHROME2"),
		US(0x0028, 0x0010, rows),
		US(0x0028, 0x0011, cols),
		US(0x0028, 0x0100, 16),
		US(0x0028, 0x0101, 16),
		US(0x0028, 0x0102, 15),
		US(0x0028, 0x0103, 0),
	}
}

// Patient returns a small set of study level attributes.
func Patient(sopInstanceUID string) []Element {
	return []Element{
		Str(0x0008, 0x0016, "UI", SecondaryCaptureClass),
		Str(0x0008, 0x0018, "UI", sopInstanceUID),
		Str(0x0008, 0x0020, "DA", "20240102"),
		Str(0x0008, 0x0060, "CS", "OT"),
		Str(0x0010, 0x0010, "PN", "Doe^Jane"),
		Str(0x0010, 0x0020, "LO", "PAT-001"),
		Str(0x0020, 0x000d, "UI", "1.2.3.4"),
		Str(0x0020, 0x000e, "UI", "1.2.3.4.5"),
	}
}

// File is a DICOM Part 10 file under construction.
type File struct {
	TransferSyntax string
	SOPInstanceUID string
	Elements       []Element
	// OmitTransferSyntax drops (0002,0010) from the file meta group.
	OmitTransferSyntax bool
}

// NewFile returns an explicit VR little endian file with the given data set
// elements, which must be in ascending tag order.
func NewFile(elements ...Element) *File {
	return &File{
		TransferSyntax: ExplicitVRLittleEndian,
		SOPInstanceUID: "1.2.3.4.5.6",
		Elements:       elements,
	}
}

// Implicit switches the data set to implicit VR little endian.
func (f *File) Implicit() *File {
	f.TransferSyntax = ImplicitVRLittleEndian
	return f
}

// Bytes encodes the file.
func (f *File) Bytes() []byte {
	var meta bytes.Buffer
	for _, e := range f.meta() {
		encode(&meta, e, true)
	}

	var out bytes.Buffer
	out.Write(make([]byte, 128))
	out.WriteString("DICM")
	encode(&out, UL(0x0002, 0x0000, uint32(meta.Len())), true)
	out.Write(meta.Bytes())

	explicit := f.TransferSyntax != ImplicitVRLittleEndian
	for _, e := range f.Elements {
		encode(&out, e, explicit)
	}
	return out.Bytes()
}

// Write encodes the file into dir/name and returns its path.
func (f *File) Write(t testing.TB, dir, name string) string {
	t.Helper()
	return WriteBytes(t, dir, name, f.Bytes())
}

// WriteBytes writes data into dir/name and returns its path.
func WriteBytes(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func (f *File) meta() []Element {
	meta := []Element{
		Raw(0x0002, 0x0001, "OB", []byte{0x00, 0x01}),
		Str(0x0002, 0x0002, "UI", SecondaryCaptureClass),
		Str(0x0002, 0x0003, "UI", f.SOPInstanceUID),
	}
	if !f.OmitTransferSyntax {
		meta = append(meta, Str(0x0002, 0x0010, "UI", f.TransferSyntax))
	}
	return meta
}

func encode(buf *bytes.Buffer, e Element, explicit bool) {
	value := e.Value
	if e.VR == "SQ" {
		var items bytes.Buffer
		for _, item := range e.Items {
			var body bytes.Buffer
			for _, nested := range item {
				encode(&body, nested, explicit)
			}
			writeUint16(&items, 0xfffe)
			writeUint16(&items, 0xe000)
			writeUint32(&items, uint32(body.Len()))
			items.Write(body.Bytes())
		}
		value = items.Bytes()
	}

	writeUint16(buf, e.Group)
	writeUint16(buf, e.Element)
	switch {
	case !explicit:
		writeUint32(buf, uint32(len(value)))
	case longLengthVRs[e.VR]:
		buf.WriteString(e.VR)
		writeUint16(buf, 0)
		writeUint32(buf, uint32(len(value)))
	default:
		buf.WriteString(e.VR)
		writeUint16(buf, uint16(len(value)))
	}
	buf.Write(value)
}

func pad(vr string, value []byte) []byte {
	if len(value)%2 == 0 {
		return value
	}
	switch vr {
	case "UI", "OB", "UN":
		return append(value, 0x00)
	}
	return append(value, ' ')
}

func writeUint16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}
