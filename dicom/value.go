package dicom

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	godicom "github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// Kind discriminates the payload carried by a Value.
type Kind int

const (
	KindString Kind = iota
	KindInteger
	KindDecimal
	KindSequence
	KindBinary
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindDecimal:
		return "decimal"
	case KindSequence:
		return "sequence"
	case KindBinary:
		return "binary"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Value is a tagged union over the value representations of DICOM. Only the
// payload matching Kind is set.
type Value struct {
	Kind     Kind
	Strings  []string
	Integers []int64
	Decimals []float64
	Items    []Item
	Bytes    []byte
	// Text is the file's text of a numeric string (DS, IS) value.
	Text []string
}

func StringValue(values ...string) Value {
	return Value{Kind: KindString, Strings: values}
}

func IntegerValue(values ...int64) Value {
	return Value{Kind: KindInteger, Integers: values}
}

func DecimalValue(values ...float64) Value {
	return Value{Kind: KindDecimal, Decimals: values}
}

func SequenceValue(items ...Item) Value {
	return Value{Kind: KindSequence, Items: items}
}

func BinaryValue(data []byte) Value {
	return Value{Kind: KindBinary, Bytes: data}
}

// Len returns the value multiplicity (number of items for sequences,
// number of bytes for binary values).
func (v Value) Len() int {
	switch v.Kind {
	case KindString:
		return len(v.Strings)
	case KindInteger:
		return len(v.Integers)
	case KindDecimal:
		return len(v.Decimals)
	case KindSequence:
		return len(v.Items)
	case KindBinary:
		return len(v.Bytes)
	}
	return 0
}

// clone returns a copy sharing no memory with v.
func (v Value) clone() Value {
	out := Value{
		Kind:     v.Kind,
		Strings:  slices.Clone(v.Strings),
		Integers: slices.Clone(v.Integers),
		Decimals: slices.Clone(v.Decimals),
		Bytes:    slices.Clone(v.Bytes),
		Text:     slices.Clone(v.Text),
	}
	if v.Items != nil {
		out.Items = make([]Item, len(v.Items))
		for i, item := range v.Items {
			out.Items[i] = Item{Elements: cloneElements(item.Elements)}
		}
	}
	return out
}

func (e Element) clone() Element {
	e.Value = e.Value.clone()
	return e
}

func cloneElements(elements []Element) []Element {
	if elements == nil {
		return nil
	}
	out := make([]Element, len(elements))
	for i, e := range elements {
		out[i] = e.clone()
	}
	return out
}

// String renders the value as a single cell: multiple values joined by a
// backslash, sequences as JSON, binary payloads by their size. Numeric
// strings keep the text found in the file.
func (v Value) String() string {
	if len(v.Text) > 0 && (v.Kind == KindInteger || v.Kind == KindDecimal) {
		return strings.Join(v.Text, `\`)
	}
	switch v.Kind {
	case KindString:
		return strings.Join(v.Strings, `\`)
	case KindInteger:
		parts := make([]string, len(v.Integers))
		for i, n := range v.Integers {
			parts[i] = strconv.FormatInt(n, 10)
		}
		return strings.Join(parts, `\`)
	case KindDecimal:
		parts := make([]string, len(v.Decimals))
		for i, f := range v.Decimals {
			parts[i] = strconv.FormatFloat(f, 'f', -1, 64)
		}
		return strings.Join(parts, `\`)
	case KindSequence:
		b, err := json.Marshal(plainItems(v.Items))
		if err != nil {
			return fmt.Sprintf("<sequence of %d items>", len(v.Items))
		}
		return string(b)
	case KindBinary:
		return fmt.Sprintf("<%d bytes>", len(v.Bytes))
	}
	return ""
}

// plain converts a value into JSON-friendly Go values, unwrapping
// single-valued payloads.
func (v Value) plain() any {
	var values []any
	switch v.Kind {
	case KindString:
		for _, s := range v.Strings {
			values = append(values, s)
		}
	case KindInteger:
		for _, n := range v.Integers {
			values = append(values, n)
		}
	case KindDecimal:
		for _, f := range v.Decimals {
			values = append(values, jsonDecimal(f))
		}
	case KindSequence:
		return plainItems(v.Items)
	case KindBinary:
		return v.String()
	}
	if len(values) == 1 {
		return values[0]
	}
	return values
}

func plainItems(items []Item) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		m := make(map[string]any, len(item.Elements))
		for _, e := range item.Elements {
			key := e.Name
			if key == "" {
				key = e.Tag.Code()
			}
			m[key] = e.Value.plain()
		}
		out = append(out, m)
	}
	return out
}

func convertElements(elements []*godicom.Element) []Element {
	out := make([]Element, 0, len(elements))
	for _, element := range elements {
		if element == nil {
			continue
		}
		out = append(out, convertElement(element))
	}
	return out
}

func convertElement(element *godicom.Element) Element {
	e := Element{
		Tag: fromLibrary(element.Tag),
		VR:  element.RawValueRepresentation,
	}
	if info, err := tag.Find(element.Tag); err == nil {
		e.Name = info.Name
		if e.VR == "" {
			e.VR = info.VR
		}
	}
	if element.Value == nil {
		e.Value = BinaryValue(nil)
		return e
	}

	switch v := element.Value.GetValue().(type) {
	case []string:
		e.Value = stringsValue(e.VR, trimPadding(v))
	case []int:
		ints := make([]int64, len(v))
		for i, n := range v {
			ints[i] = int64(n)
		}
		e.Value = IntegerValue(ints...)
	case []float64:
		e.Value = DecimalValue(append([]float64(nil), v...)...)
	case []byte:
		e.Value = BinaryValue(append([]byte(nil), v...))
	case []*godicom.SequenceItemValue:
		items := make([]Item, 0, len(v))
		for _, item := range v {
			nested, _ := item.GetValue().([]*godicom.Element)
			items = append(items, Item{Elements: convertElements(nested)})
		}
		e.Value = SequenceValue(items...)
	case []*godicom.Element:
		e.Value = SequenceValue(Item{Elements: convertElements(v)})
	default:
		// Pixel data and anything the decoder does not expose as a slice.
		e.Value = BinaryValue(nil)
	}
	return e
}

// stringsValue keeps textual values as strings except for decimal (DS) and
// integer (IS) strings whose every component parses to a finite number.
func stringsValue(vr string, values []string) Value {
	if len(values) == 0 {
		return StringValue()
	}
	text := make([]string, len(values))
	for i, s := range values {
		text[i] = strings.TrimSpace(s)
	}
	switch vr {
	case "DS":
		decimals := make([]float64, len(text))
		for i, s := range text {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
				return StringValue(values...)
			}
			decimals[i] = f
		}
		v := DecimalValue(decimals...)
		v.Text = text
		return v
	case "IS":
		ints := make([]int64, len(text))
		for i, s := range text {
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return StringValue(values...)
			}
			ints[i] = n
		}
		v := IntegerValue(ints...)
		v.Text = text
		return v
	}
	return StringValue(values...)
}

// jsonDecimal returns f, or its text when JSON has no number for it.
func jsonDecimal(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return f
}

func trimPadding(values []string) []string {
	out := make([]string, len(values))
	for i, s := range values {
		out[i] = strings.TrimRight(s, " \x00")
	}
	return out
}
