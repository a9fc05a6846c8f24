package cot

import (
	"errors"
	"fmt"
)

var ErrInvalidNumber = errors.New("cot: invalid numeric field")

// FieldError reports an attribute that was present but could not be parsed.
type FieldError struct {
	Element string
	Attr    string
	Value   string
	Err     error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("cot: %s@%s=%q: %v", e.Element, e.Attr, e.Value, e.Err)
}

func (e *FieldError) Unwrap() []error { return []error{ErrInvalidNumber, e.Err} }
