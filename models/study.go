package models

import (
	"time"

	"dcmtag2table/dicom"

	"github.com/go-ozzo/ozzo-validation"
	"github.com/go-pg/pg/orm"
)

type Study struct {
	tableName struct{} `sql:"study,alias:study"`

	ID        int       `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	StudyDate        string `json:"study_date" dicom:"StudyDate"`
	StudyTime        string `json:"study_time" dicom:"StudyTime"`
	StudyDescription string `json:"study_description" dicom:"StudyDescription"`
	AccessionNumber  string `json:"accession_number" dicom:"AccessionNumber"`
	PatientName      string `json:"patient_name" dicom:"PatientName"`
	PatientID        string `json:"patient_id" dicom:"PatientID"`
	PatientSex       string `json:"patient_sex" dicom:"PatientSex"`
	PatientAge       string `json:"patient_age" dicom:"PatientAge"`
	StudyInstanceUID string `json:"study_instance_uid" dicom:"StudyInstanceUID"`
	StudyID          string `json:"study_id" dicom:"StudyID"`
}

func (s *Study) GetObjectIdFieldTag() dicom.TagID {
	return dicom.TagStudyInstanceUID
}

// BeforeInsert hook executed before database insert operation.
func (s *Study) BeforeInsert(db orm.DB) error {
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now
	return s.Validate()
}

// BeforeUpdate hook executed before database update operation.
func (s *Study) BeforeUpdate(db orm.DB) error {
	s.UpdatedAt = time.Now()
	return s.Validate()
}

// Validate validates Study struct and returns validation errors.
func (s *Study) Validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.StudyInstanceUID, uidRules...),
		validation.Field(&s.PatientSex, validation.In("M", "F", "O", "")),
	)
}
