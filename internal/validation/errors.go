package validation

import "strings"

const (
	ReasonRequired  = "is required"
	ReasonImmutable = "cannot be changed after creation"
)

type FieldError struct {
	Field  string
	Reason string
}

// Error is returned for missing or malformed input. It never wraps a store error.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "invalid input"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Reason)
	}
	return strings.Join(parts, "; ")
}

// Missing lists the required fields that were absent.
func (e *Error) Missing() []string {
	var out []string
	for _, f := range e.Fields {
		if f.Reason == ReasonRequired {
			out = append(out, f.Field)
		}
	}
	return out
}

// Immutable reports an attempt to change a write-once field.
func Immutable(field string) error {
	return &Error{Fields: []FieldError{{Field: field, Reason: ReasonImmutable}}}
}

type collector struct {
	fields []FieldError
}

func (c *collector) missing(field string) {
	c.fields = append(c.fields, FieldError{Field: field, Reason: ReasonRequired})
}

func (c *collector) invalid(field, reason string) {
	c.fields = append(c.fields, FieldError{Field: field, Reason: reason})
}

func (c *collector) err() error {
	if len(c.fields) == 0 {
		return nil
	}
	return &Error{Fields: c.fields}
}
