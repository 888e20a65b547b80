package dicom

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom/pkg/tag"
)

// TagID identifies a data element by its group and element numbers.
type TagID struct {
	Group   uint16
	Element uint16
}

var (
	TagTransferSyntaxUID  = fromLibrary(tag.TransferSyntaxUID)
	TagSOPClassUID        = fromLibrary(tag.SOPClassUID)
	TagSOPInstanceUID     = fromLibrary(tag.SOPInstanceUID)
	TagStudyInstanceUID   = fromLibrary(tag.StudyInstanceUID)
	TagSeriesInstanceUID  = fromLibrary(tag.SeriesInstanceUID)
	TagPixelData          = fromLibrary(tag.PixelData)
	TagPatientName        = fromLibrary(tag.PatientName)
	TagItem               = TagID{Group: 0xfffe, Element: 0xe000}
	requiredTopLevelTags  = []TagID{TagTransferSyntaxUID, TagSOPInstanceUID}
	tagCodePattern        = regexp.MustCompile(`^[0-9a-fA-F]{8}$`)
	tagCodeSeparatorChars = "(), "
)

func fromLibrary(t tag.Tag) TagID {
	return TagID{Group: t.Group, Element: t.Element}
}

func (t TagID) library() tag.Tag {
	return tag.Tag{Group: t.Group, Element: t.Element}
}

// String renders the tag as (gggg,eeee).
func (t TagID) String() string {
	return fmt.Sprintf("(%04x,%04x)", t.Group, t.Element)
}

// Code renders the tag as the eight hex digits used by the DICOM JSON model.
func (t TagID) Code() string {
	return fmt.Sprintf("%04X%04X", t.Group, t.Element)
}

// Keyword returns the dictionary keyword of the tag, or "" for private and
// unknown tags.
func (t TagID) Keyword() string {
	info, err := tag.Find(t.library())
	if err != nil {
		return ""
	}
	return info.Name
}

// IsPrivate reports whether the tag belongs to an odd (private) group.
func (t TagID) IsPrivate() bool {
	return t.Group%2 == 1
}

// ParseTag resolves a keyword such as "PatientID" or a tag code such as
// "00100020", "0010,0020" or "(0010,0020)".
func ParseTag(nameOrCode string) (TagID, error) {
	trimmed := strings.TrimSpace(nameOrCode)
	code := strings.Map(func(r rune) rune {
		if strings.ContainsRune(tagCodeSeparatorChars, r) {
			return -1
		}
		return r
	}, trimmed)

	if tagCodePattern.MatchString(code) {
		group, err := strconv.ParseUint(code[0:4], 16, 16)
		if err != nil {
			return TagID{}, fmt.Errorf("invalid tag name or code %q", nameOrCode)
		}
		elem, err := strconv.ParseUint(code[4:], 16, 16)
		if err != nil {
			return TagID{}, fmt.Errorf("invalid tag name or code %q", nameOrCode)
		}
		return TagID{Group: uint16(group), Element: uint16(elem)}, nil
	}

	info, err := tag.FindByName(trimmed)
	if err != nil {
		return TagID{}, fmt.Errorf("invalid tag name or code %q", nameOrCode)
	}
	return fromLibrary(info.Tag), nil
}

// MustParseTag is like ParseTag but panics on error.
func MustParseTag(nameOrCode string) TagID {
	t, err := ParseTag(nameOrCode)
	if err != nil {
		panic(err)
	}
	return t
}
