package models

import (
	"time"

	"dcmtag2table/dicom"

	"github.com/go-ozzo/ozzo-validation"
	"github.com/go-pg/pg/orm"
)

type Series struct {
	tableName struct{} `sql:"series,alias:series"`

	ID        int       `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	StudyId   int       `json:"-"`
	Study     *Study    `json:"study,omitempty"`

	Modality          string `json:"modality" dicom:"Modality"`
	SeriesInstanceUID string `json:"series_instance_uid" dicom:"SeriesInstanceUID"`
	SeriesNumber      string `json:"series_number" dicom:"SeriesNumber"`
	SeriesDescription string `json:"series_description" dicom:"SeriesDescription"`
	ProtocolName      string `json:"protocol_name" dicom:"ProtocolName"`
	BodyPartExamined  string `json:"body_part_examined" dicom:"BodyPartExamined"`
	Manufacturer      string `json:"manufacturer" dicom:"Manufacturer"`
	StationName       string `json:"station_name" dicom:"StationName"`
}

func (s *Series) GetObjectIdFieldTag() dicom.TagID {
	return dicom.TagSeriesInstanceUID
}

// BeforeInsert hook executed before database insert operation.
func (s *Series) BeforeInsert(db orm.DB) error {
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now
	return s.Validate()
}

// BeforeUpdate hook executed before database update operation.
func (s *Series) BeforeUpdate(db orm.DB) error {
	s.UpdatedAt = time.Now()
	return s.Validate()
}

// Validate validates Series struct and returns validation errors.
func (s *Series) Validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.SeriesInstanceUID, uidRules...),
		validation.Field(&s.Modality, validation.Length(0, 16)),
	)
}
