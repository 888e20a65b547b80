package models

import (
	"regexp"

	"github.com/go-ozzo/ozzo-validation"
)

var uidPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)*$`)

// uidRules validate a DICOM UID: digits separated by dots, at most 64 chars.
var uidRules = []validation.Rule{
	validation.Required,
	validation.Length(1, 64),
	validation.Match(uidPattern).Error("must be digits separated by dots"),
}
