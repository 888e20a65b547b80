package utils

import (
	"dcmtag2table/dicom"
	"dcmtag2table/models"
	"fmt"
	"reflect"
)

// ExtractDicomObject copies the values of obj into the string fields of
// object tagged with `dicom:"Keyword"`. Elements missing from obj leave the
// field untouched.
func ExtractDicomObject(obj *dicom.Object, object models.DicomObject) error {
	target := reflect.ValueOf(object)
	if target.Kind() != reflect.Ptr || target.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("extract into %T: want pointer to struct", object)
	}
	reflection := target.Elem().Type()

	for i := 0; i < reflection.NumField(); i++ {
		field := reflection.Field(i)
		keyword := field.Tag.Get("dicom")
		if keyword == "" || field.Type.Kind() != reflect.String {
			continue
		}
		tagID, err := dicom.ParseTag(keyword)
		if err != nil {
			return fmt.Errorf("field %s: %w", field.Name, err)
		}
		element, ok := obj.Find(tagID)
		if !ok {
			continue
		}
		target.Elem().FieldByIndex(field.Index).SetString(element.String())
	}

	return nil
}

// GetObjectID returns the value of the identifying field of object, the one
// whose dicom tag matches GetObjectIdFieldTag.
func GetObjectID(object models.DicomObject) string {
	keyword := object.GetObjectIdFieldTag().Keyword()
	target := reflect.ValueOf(object)
	if target.Kind() == reflect.Ptr {
		target = target.Elem()
	}
	reflection := target.Type()
	for i := 0; i < reflection.NumField(); i++ {
		if reflection.Field(i).Tag.Get("dicom") == keyword {
			return target.Field(i).String()
		}
	}
	return ""
}
