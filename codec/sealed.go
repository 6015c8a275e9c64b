package codec

import (
	"go.hackfix.me/dbmap/crypto"
)

type sealedCodec[T any] struct {
	inner Codec[T]
	key   *[crypto.KeySize]byte
}

// Sealed returns a binary codec that encrypts the payloads of inner with key.
// Encryption is deterministic, so equal values keep producing equal payloads
// and both forward and reverse lookups work on sealed data.
func Sealed[T any](inner Codec[T], key *[crypto.KeySize]byte) Codec[T] {
	return sealedCodec[T]{inner: inner, key: key}
}

func (sealedCodec[T]) Format() Format { return FormatBinary }

func (c sealedCodec[T]) Encode(v T) ([]byte, error) {
	data, err := c.inner.Encode(v)
	if err != nil {
		return nil, err
	}
	return crypto.Seal(data, c.key), nil
}

func (c sealedCodec[T]) Decode(data []byte) (T, error) {
	plain, err := crypto.Open(data, c.key)
	if err != nil {
		var zero T
		return zero, err
	}
	return c.inner.Decode(plain)
}
