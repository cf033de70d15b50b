package analysis

import (
	"errors"
	"fmt"
)

// ErrNoCategories is returned when a radar chart is requested without any category.
var ErrNoCategories = errors.New("at least one category is required")

// EmptyRangeError indicates that no entity of the reference population has a
// usable value for Attribute, so no range can be derived for it.
type EmptyRangeError struct {
	Attribute  string
	Population string
}

func (e *EmptyRangeError) Error() string {
	if e.Population == "" {
		return fmt.Sprintf("no usable values for attribute %q", e.Attribute)
	}
	return fmt.Sprintf("no usable values for attribute %q in population %q", e.Attribute, e.Population)
}

// MissingAttributeError reports one (entity, attribute) pair without a value.
type MissingAttributeError struct {
	Entity    string
	Attribute string
}

func (e *MissingAttributeError) Error() string {
	return fmt.Sprintf("entity %q has no value for attribute %q", e.Entity, e.Attribute)
}

// LengthMismatchError is a contract violation between the category list and a value vector.
type LengthMismatchError struct {
	Categories int
	Values     int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("value vector has %d entries, expected %d categories", e.Values, e.Categories)
}

// MissingAttributes collects every MissingAttributeError contained in err,
// including the ones joined with errors.Join.
func MissingAttributes(err error) []*MissingAttributeError {
	var out []*MissingAttributeError
	walkErrors(err, func(e error) {
		if m, ok := e.(*MissingAttributeError); ok {
			out = append(out, m)
		}
	})
	return out
}

// EmptyRanges collects every EmptyRangeError contained in err.
func EmptyRanges(err error) []*EmptyRangeError {
	var out []*EmptyRangeError
	walkErrors(err, func(e error) {
		if r, ok := e.(*EmptyRangeError); ok {
			out = append(out, r)
		}
	})
	return out
}

func walkErrors(err error, fn func(error)) {
	if err == nil {
		return
	}
	fn(err)
	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		for _, e := range u.Unwrap() {
			walkErrors(e, fn)
		}
	case interface{ Unwrap() error }:
		walkErrors(u.Unwrap(), fn)
	}
}
