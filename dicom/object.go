// Package dicom loads DICOM files into immutable, ordered tag sets.
//
// Decoding of the binary stream is delegated to github.com/suyashkumar/dicom;
// this package classifies failures and converts the decoded data set into a
// small tagged-union value model suited for tabulation.
package dicom

import (
	"fmt"
)

// Element is one data element of an Object.
type Element struct {
	Tag TagID
	// Name is the dictionary keyword, empty for private and unknown tags.
	Name  string
	VR    string
	Value Value
}

// String renders the element value for tabulation.
func (e Element) String() string {
	if e.Tag == TagPixelData {
		return "<pixel data>"
	}
	return e.Value.String()
}

// Item is one item of a sequence value.
type Item struct {
	Elements []Element
}

// Find returns the element with the given tag in the item.
func (i Item) Find(t TagID) (Element, bool) {
	for _, e := range i.Elements {
		if e.Tag == t {
			return e, true
		}
	}
	return Element{}, false
}

// Object is one decoded DICOM file. It is never modified after
// construction: every accessor returns a copy.
type Object struct {
	path             string
	decodedPixelData bool
	elements         []Element
	index            map[TagID]int
	pixels           *PixelData
}

// NewObject assembles an Object from top-level elements in file order.
// Pixel data may only be supplied together with decodedPixelData.
func NewObject(path string, decodedPixelData bool, elements []Element, pixels *PixelData) (*Object, error) {
	if pixels != nil && !decodedPixelData {
		return nil, fmt.Errorf("pixel data supplied for %s without decoding", path)
	}
	index := make(map[TagID]int, len(elements))
	for i, e := range elements {
		if _, dup := index[e.Tag]; dup {
			return nil, fmt.Errorf("duplicate element %s", e.Tag)
		}
		index[e.Tag] = i
	}
	return &Object{
		path:             path,
		decodedPixelData: decodedPixelData,
		elements:         cloneElements(elements),
		index:            index,
		pixels:           pixels.clone(),
	}, nil
}

func (o *Object) Path() string {
	return o.path
}

func (o *Object) DecodedPixelData() bool {
	return o.decodedPixelData
}

// Elements returns the top-level elements in file order.
func (o *Object) Elements() []Element {
	if len(o.elements) == 0 {
		return []Element{}
	}
	return cloneElements(o.elements)
}

// Len returns the number of top-level elements.
func (o *Object) Len() int {
	return len(o.elements)
}

// Find returns the top-level element with the given tag.
func (o *Object) Find(t TagID) (Element, bool) {
	i, ok := o.index[t]
	if !ok {
		return Element{}, false
	}
	return o.elements[i].clone(), true
}

// FindString returns the first string value of a top-level element.
func (o *Object) FindString(t TagID) (string, bool) {
	e, ok := o.Find(t)
	if !ok {
		return "", false
	}
	if e.Value.Kind == KindString {
		if len(e.Value.Strings) == 0 {
			return "", true
		}
		return e.Value.Strings[0], true
	}
	return e.Value.String(), true
}

// PixelData returns the decoded pixel data, nil unless the object was
// loaded with pixel decoding.
func (o *Object) PixelData() *PixelData {
	return o.pixels.clone()
}

// WalkFunc is called for every element visited by Walk. depth is 0 for
// top-level elements. Returning a non-nil error stops the walk.
type WalkFunc func(depth int, e Element) error

// Walk visits every top-level and nested element depth-first in file order.
func (o *Object) Walk(fn WalkFunc) error {
	return walk(o.elements, 0, fn)
}

func walk(elements []Element, depth int, fn WalkFunc) error {
	for _, e := range elements {
		if err := fn(depth, e.clone()); err != nil {
			return err
		}
		if e.Value.Kind != KindSequence {
			continue
		}
		for _, item := range e.Value.Items {
			if err := walk(item.Elements, depth+1, fn); err != nil {
				return err
			}
		}
	}
	return nil
}
