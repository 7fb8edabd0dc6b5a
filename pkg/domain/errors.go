package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every ValidationError via errors.Is.
	ErrValidation = errors.New("validation failed")
	// ErrMissing matches every ErrNotFound via errors.Is.
	ErrMissing = errors.New("not found")
)

// ValidationKind names the rule a record failed.
type ValidationKind string

// Validation kinds, one per commit rule.
const (
	KindMissingPictures ValidationKind = "missing_pictures"
	KindMissingLocation ValidationKind = "missing_location"
	KindBlankText       ValidationKind = "blank_text"
	KindInvalidDates    ValidationKind = "invalid_dates"
	// KindTooManyPictures is only reported for records arriving from outside a
	// draft (imports, stored blobs); drafts cap pictures on attach.
	KindTooManyPictures ValidationKind = "too_many_pictures"
)

// ValidationError is a user-correctable rejection of a record.
type ValidationError struct {
	Kind  ValidationKind
	Field string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation: %s", e.Kind)
	}
	return fmt.Sprintf("validation: %s (%s)", e.Kind, e.Field)
}

// Is lets callers test for any validation failure with errors.Is(err, ErrValidation).
func (e ValidationError) Is(target error) bool { return target == ErrValidation }

// ErrNotFound is returned when a referenced record or picture no longer exists.
type ErrNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// Is lets callers test with errors.Is(err, ErrMissing).
func (e ErrNotFound) Is(target error) bool { return target == ErrMissing }

// StorageError wraps a failure of the underlying key-value primitive.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// CorruptStateError reports a persisted blob that cannot be trusted. It is
// distinct from an absent key, which simply means no records exist yet.
type CorruptStateError struct {
	Key string
	Err error
}

func (e *CorruptStateError) Error() string {
	return fmt.Sprintf("corrupt state under %q: %v", e.Key, e.Err)
}

func (e *CorruptStateError) Unwrap() error { return e.Err }
