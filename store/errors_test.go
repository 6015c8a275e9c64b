package store

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		err      error
		expMsg   string
		expKinds []error
	}{
		{
			name:     "not_found",
			err:      NewError("get", ErrNotFound, nil),
			expMsg:   "get: not found",
			expKinds: []error{ErrNotFound},
		},
		{
			name:     "with_cause",
			err:      NewError("open", ErrUnavailable, fs.ErrPermission),
			expMsg:   "open: storage unavailable: permission denied",
			expKinds: []error{ErrUnavailable, fs.ErrPermission},
		},
		{
			name:     "closed",
			err:      NewError("insert", ErrClosed, nil),
			expMsg:   "insert: storage unavailable: store is closed",
			expKinds: []error{ErrClosed, ErrUnavailable},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.EqualError(t, tc.err, tc.expMsg)
			for _, kind := range tc.expKinds {
				assert.ErrorIs(t, tc.err, kind)
			}
			assert.NotErrorIs(t, tc.err, ErrDecodeFailed)
		})
	}
}

func TestWrap(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Wrap("get", ErrUnavailable, nil))

	cause := errors.New("disk full")
	err := Wrap("insert", ErrUnavailable, cause)
	assert.EqualError(t, err, "insert: storage unavailable: disk full")

	inner := NewError("get", ErrNotFound, nil)
	assert.Same(t, inner, Wrap("get", ErrUnavailable, inner))

	var serr *Error
	assert.ErrorAs(t, err, &serr)
	assert.Equal(t, "insert", serr.Op)
}
