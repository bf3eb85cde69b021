// Package errs defines the failure categories of the training workflow so that
// callers can branch on the kind of failure instead of parsing messages.
package errs

import (
	"errors"
	"fmt"
)

type Kind int

const (
	Unknown Kind = iota
	DataSource
	MetadataStore
	Training
	Persistence
)

func (k Kind) String() string {
	switch k {
	case DataSource:
		return "DataSourceError"
	case MetadataStore:
		return "MetadataStoreError"
	case Training:
		return "TrainingError"
	case Persistence:
		return "PersistenceError"
	default:
		return "UnknownError"
	}
}

type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E wraps err with a kind and the operation that detected it. A nil err yields nil.
func E(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func Ef(kind Kind, op string, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost *Error in the chain. Wrapping an
// already kinded error with fmt.Errorf keeps the original kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		if e.Kind == Unknown {
			return KindOf(e.Err)
		}
		return e.Kind
	}
	return Unknown
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
