package dicom

import (
	"encoding/base64"
	"encoding/json"
)

// attribute is one entry of the DICOM JSON model (PS3.18 Annex F).
type attribute struct {
	VR           string `json:"vr"`
	Value        []any  `json:"Value,omitempty"`
	InlineBinary string `json:"InlineBinary,omitempty"`
}

type personName struct {
	Alphabetic string `json:",omitempty"`
}

// MarshalJSON encodes the object in the DICOM JSON model. Pixel data is
// omitted.
func (o *Object) MarshalJSON() ([]byte, error) {
	return json.Marshal(attributes(o.elements))
}

func attributes(elements []Element) map[string]attribute {
	out := make(map[string]attribute, len(elements))
	for _, e := range elements {
		if e.Tag == TagPixelData {
			continue
		}
		out[e.Tag.Code()] = toAttribute(e)
	}
	return out
}

func toAttribute(e Element) attribute {
	a := attribute{VR: e.VR}
	v := e.Value
	switch v.Kind {
	case KindString:
		for _, s := range v.Strings {
			if e.VR == "PN" {
				a.Value = append(a.Value, personName{Alphabetic: s})
				continue
			}
			a.Value = append(a.Value, s)
		}
	case KindInteger:
		for _, n := range v.Integers {
			a.Value = append(a.Value, n)
		}
	case KindDecimal:
		for _, f := range v.Decimals {
			a.Value = append(a.Value, jsonDecimal(f))
		}
	case KindSequence:
		for _, item := range v.Items {
			a.Value = append(a.Value, attributes(item.Elements))
		}
	case KindBinary:
		if len(v.Bytes) > 0 {
			a.InlineBinary = base64.StdEncoding.EncodeToString(v.Bytes)
		}
	}
	return a
}
