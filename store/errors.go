package store

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a store matches exactly one of these
// with errors.Is.
var (
	// ErrNotFound is returned when no record matches a key.
	ErrNotFound = errors.New("not found")
	// ErrEncodeFailed is returned when a codec can't represent a key or value.
	ErrEncodeFailed = errors.New("encode failed")
	// ErrDecodeFailed is returned when a stored payload can't be decoded.
	ErrDecodeFailed = errors.New("decode failed")
	// ErrUnavailable is returned when the backing storage can't be opened,
	// read or written.
	ErrUnavailable = errors.New("storage unavailable")
	// ErrInconsistent is returned when the stored data violates the key
	// uniqueness invariant.
	ErrInconsistent = errors.New("inconsistent storage")
	// ErrClosed is returned by operations on a closed store. It matches
	// ErrUnavailable.
	ErrClosed = fmt.Errorf("%w: store is closed", ErrUnavailable)
)

// Error describes a failed store operation.
type Error struct {
	Op   string // operation name, e.g. "get"
	Kind error  // one of the Err* kinds
	Err  error  // underlying cause, may be nil
}

// NewError returns a new Error for the op operation.
func NewError(op string, kind, cause error) *Error {
	return &Error{Op: op, Kind: kind, Err: cause}
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err)
	}
	return msg
}

// Unwrap returns the error kind and its cause, so that errors.Is and errors.As
// match both.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Wrap returns err unchanged if it's already an *Error, and otherwise wraps it
// as kind for the op operation.
func Wrap(op string, kind, err error) error {
	if err == nil {
		return nil
	}
	var serr *Error
	if errors.As(err, &serr) {
		return err
	}
	return NewError(op, kind, err)
}
