package models

import "dcmtag2table/dicom"

// DicomObject is a catalog record identified by one DICOM UID.
type DicomObject interface {
	GetObjectIdFieldTag() dicom.TagID
}
