package args

import (
	"fmt"
	"strings"
)

// MissingFieldError reports required fields absent from every accepted
// payload shape.
type MissingFieldError struct {
	Fields []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field(s): %s", strings.Join(e.Fields, ", "))
}

// MalformedPayloadError reports a payload that could not be parsed into any
// recognized shape.
type MalformedPayloadError struct {
	Reason string
	Err    error
}

func (e *MalformedPayloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed payload: %s: %v", e.Reason, e.Err)
	}
	return "malformed payload: " + e.Reason
}

func (e *MalformedPayloadError) Unwrap() error { return e.Err }

// OutOfRangeError reports a value that failed coercion into its valid range,
// such as a non-numeric priority string.
type OutOfRangeError struct {
	Field string
	Value string
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("value %q for field %q is out of range or not coercible", e.Value, e.Field)
}
