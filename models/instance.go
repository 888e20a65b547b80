package models

import (
	"time"

	"dcmtag2table/dicom"

	"github.com/go-ozzo/ozzo-validation"
	"github.com/go-pg/pg/orm"
)

type Instance struct {
	tableName struct{} `sql:"instance,alias:instance"`

	ID        int       `json:"-" sql:",pk"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	SeriesId  int       `json:"-"`
	Series    *Series   `json:"series,omitempty"`

	SOPClassUID    string `json:"sop_class_uid" dicom:"SOPClassUID"`
	SOPInstanceUID string `json:"sop_instance_uid" dicom:"SOPInstanceUID"`
	InstanceNumber string `json:"instance_number" dicom:"InstanceNumber"`

	FilePath string `json:"file_path"`
	// Tags holds the DICOM JSON dump of the file, pixel data excluded.
	Tags string `json:"-" sql:"tags,type:jsonb"`
}

func (i *Instance) GetObjectIdFieldTag() dicom.TagID {
	return dicom.TagSOPInstanceUID
}

// BeforeInsert hook executed before database insert operation.
func (i *Instance) BeforeInsert(db orm.DB) error {
	now := time.Now()
	i.CreatedAt = now
	i.UpdatedAt = now
	return i.Validate()
}

// BeforeUpdate hook executed before database update operation.
func (i *Instance) BeforeUpdate(db orm.DB) error {
	i.UpdatedAt = time.Now()
	return i.Validate()
}

// Validate validates Instance struct and returns validation errors.
func (i *Instance) Validate() error {
	return validation.ValidateStruct(i,
		validation.Field(&i.SOPInstanceUID, uidRules...),
		validation.Field(&i.SOPClassUID, validation.Match(uidPattern)),
		validation.Field(&i.FilePath, validation.Required),
	)
}
