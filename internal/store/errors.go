package store

import (
	"errors"
	"fmt"
)

var (
	ErrConflict = errors.New("conflict")
	ErrNotFound = errors.New("not found")
)

// Kind names a persisted entity type.
type Kind string

const (
	KindClient      Kind = "client"
	KindService     Kind = "service"
	KindStaffUser   Kind = "staff_user"
	KindAppointment Kind = "appointment"
)

// NotFoundError identifies the record that could not be resolved.
type NotFoundError struct {
	Kind Kind
	ID   int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func NotFound(kind Kind, id int64) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// ReferencedError rejects deleting a record that appointments still point at.
type ReferencedError struct {
	Kind  Kind
	ID    int64
	Count int
}

func (e *ReferencedError) Error() string {
	return fmt.Sprintf("%s %d is referenced by %d appointment(s)", e.Kind, e.ID, e.Count)
}

func (e *ReferencedError) Is(target error) bool {
	return target == ErrConflict
}

// DuplicateError reports a unique constraint violation on field.
type DuplicateError struct {
	Kind  Kind
	Field string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s with this %s already exists", e.Kind, e.Field)
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrConflict
}
