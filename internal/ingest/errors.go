package ingest

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure that aborts a load.
type Kind string

const (
	// SourceUnavailable means the extract could not be opened, read or decoded.
	SourceUnavailable Kind = "SourceUnavailable"
	// StoreWriteError means a batch insert or delete-all failed.
	StoreWriteError Kind = "StoreWriteError"
	// StoreReadError means the seed guard's count query failed.
	StoreReadError Kind = "StoreReadError"
)

// Error is the typed failure returned by Loader operations.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("ingest %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// IsKind reports whether err (or any error in its chain) is an *Error of kind.
func IsKind(err error, kind Kind) bool {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Kind == kind
	}
	return false
}
