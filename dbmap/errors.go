package dbmap

import (
	"errors"

	"go.hackfix.me/dbmap/store"
)

// Error kinds returned by Map operations. See the store package.
var (
	ErrNotFound     = store.ErrNotFound
	ErrEncodeFailed = store.ErrEncodeFailed
	ErrDecodeFailed = store.ErrDecodeFailed
	ErrUnavailable  = store.ErrUnavailable
	ErrInconsistent = store.ErrInconsistent
	ErrClosed       = store.ErrClosed
)

// Error describes a failed Map operation.
type Error = store.Error

// relabel attributes a backend error to the op Map operation. Errors not
// produced by a backend are reported as unavailable storage.
func relabel(op string, err error) error {
	var serr *store.Error
	if errors.As(err, &serr) {
		return store.NewError(op, serr.Kind, serr.Err)
	}
	return store.NewError(op, store.ErrUnavailable, err)
}
