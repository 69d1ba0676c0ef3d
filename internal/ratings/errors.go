package ratings

import (
	"errors"
	"fmt"
)

// Kind classifies a failed scan. The set is closed.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindSchema            Kind = "schema_error"
	KindNoMatchingRecords Kind = "no_matching_records"
	KindUnexpected        Kind = "unexpected"
)

// Sentinels matched by errors.Is against any *Error of the same kind.
var (
	ErrNotFound          = errors.New("ratings: dataset not found")
	ErrSchema            = errors.New("ratings: required columns missing")
	ErrNoMatchingRecords = errors.New("ratings: no matching records")
	ErrUnexpected        = errors.New("ratings: unexpected failure")
)

// Error is the only error type returned by Scan and AverageRating.
type Error struct {
	Kind        Kind
	Path        string
	Certificate string
	Err         error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindNotFound:
		return fmt.Sprintf("the file at %s was not found", e.Path)
	case KindSchema:
		return "the dataset does not contain the required columns"
	case KindNoMatchingRecords:
		return fmt.Sprintf("no movies found with certificate: %s", e.Certificate)
	default:
		if e.Err != nil {
			return fmt.Sprintf("an error occurred: %v", e.Err)
		}
		return "an error occurred"
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	switch e.Kind {
	case KindNotFound:
		return target == ErrNotFound
	case KindSchema:
		return target == ErrSchema
	case KindNoMatchingRecords:
		return target == ErrNoMatchingRecords
	case KindUnexpected:
		return target == ErrUnexpected
	}
	return false
}

// KindOf extracts the kind from err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func notFound(path string, err error) *Error {
	return &Error{Kind: KindNotFound, Path: path, Err: err}
}

func unexpected(path string, err error) *Error {
	return &Error{Kind: KindUnexpected, Path: path, Err: err}
}
