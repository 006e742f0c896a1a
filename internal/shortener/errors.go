package shortener

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by repositories when no record matches a lookup.
var ErrNotFound = errors.New("short link not found")

// ErrDuplicateID is returned by Insert when the short identifier already
// belongs to a different URL.
var ErrDuplicateID = errors.New("short id already in use")

// Kind classifies service failures so transports can map them to responses.
type Kind uint8

const (
	Unknown Kind = iota
	InvalidInput
	NotFound
	StorageUnavailable
)

// String returns the string representation of the error kind.
func (k Kind) String() string {
	switch k {
	case Unknown:
		return "Unknown"
	case InvalidInput:
		return "InvalidInput"
	case NotFound:
		return "NotFound"
	case StorageUnavailable:
		return "StorageUnavailable"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Error is a classified failure raised by an operation.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

// E wraps err with an operation name and kind. It returns nil for a nil err.
func E(op string, kind Kind, err error) error {
	if err == nil {
		return nil
	}

	return &Error{
		Op:   op,
		Kind: kind,
		Err:  err,
	}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op
	}

	if e.Op == "" {
		return e.Err.Error()
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return Unknown
}

// Message returns the user-facing text for err: the innermost message,
// without operation prefixes.
func Message(err error) string {
	var e *Error
	for errors.As(err, &e) {
		if e.Err == nil {
			return e.Op
		}

		err = e.Err
	}

	if err == nil {
		return ""
	}

	return err.Error()
}
