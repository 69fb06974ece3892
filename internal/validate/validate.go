// Package validate holds the boundary check shared by every free-text input:
// values are opaque strings and only non-emptiness is enforced.
package validate

import (
	"errors"
	"strings"
)

var ErrValidation = errors.New("validation failed")

// Error names the offending field. Reason defaults to "is required".
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	if e.Reason != "" {
		return e.Field + " " + e.Reason
	}
	return e.Field + " is required"
}

func (e *Error) Is(target error) bool { return target == ErrValidation }

// Field pairs a field name with its submitted value.
type Field struct {
	Name  string
	Value string
}

// Required returns an *Error for the first field whose value is blank.
func Required(fields ...Field) error {
	for _, f := range fields {
		if strings.TrimSpace(f.Value) == "" {
			return &Error{Field: f.Name}
		}
	}
	return nil
}
