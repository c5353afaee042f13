package codec

import "fmt"

// FieldMissingError is returned when a required column is absent (or nil) in a SiteRecord.
type FieldMissingError struct {
	Field string
}

func (e *FieldMissingError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

// TypeConversionError is returned when a column value cannot be coerced to its payload type.
type TypeConversionError struct {
	Field  string
	Value  any
	Target string
	Err    error
}

func (e *TypeConversionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("field %q: cannot convert %v (%T) to %s: %v", e.Field, e.Value, e.Value, e.Target, e.Err)
	}
	return fmt.Sprintf("field %q: cannot convert %v (%T) to %s", e.Field, e.Value, e.Value, e.Target)
}

func (e *TypeConversionError) Unwrap() error { return e.Err }
