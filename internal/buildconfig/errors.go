package buildconfig

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig classifies every load and validation failure.
// Use errors.Is(err, ErrInvalidConfig) instead of string matching.
var ErrInvalidConfig = errors.New("invalid configuration")

// FieldError describes a single problem with a configuration field
type FieldError struct {
	Field   string
	Message string
}

func (f FieldError) String() string {
	return fmt.Sprintf("%s: %s", f.Field, f.Message)
}

// ValidationError collects all field problems found in one configuration
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	return fmt.Sprintf("%s: %s", ErrInvalidConfig, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

func (e *ValidationError) add(field, format string, args ...any) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
