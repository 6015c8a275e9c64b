package codec

import (
	"encoding"
	"encoding/binary"
	"fmt"
)

type bytesCodec struct{}

// Bytes returns a binary codec storing byte slices as they are.
func Bytes() Codec[[]byte] { return bytesCodec{} }

func (bytesCodec) Format() Format { return FormatBinary }

func (bytesCodec) Encode(v []byte) ([]byte, error) {
	if v == nil {
		return []byte{}, nil
	}
	return v, nil
}

func (bytesCodec) Decode(data []byte) ([]byte, error) {
	return append([]byte{}, data...), nil
}

type uint64Codec struct{}

// Uint64 returns a binary codec storing uint64 values as 8 big endian bytes,
// so that payload order matches numeric order.
func Uint64() Codec[uint64] { return uint64Codec{} }

func (uint64Codec) Format() Format { return FormatBinary }

func (uint64Codec) Encode(v uint64) ([]byte, error) {
	return binary.BigEndian.AppendUint64(nil, v), nil
}

func (uint64Codec) Decode(data []byte) (uint64, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("expected payload length of 8; got %d", len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}

// BinaryValue is implemented by pointers to types with a canonical binary
// form.
type BinaryValue[T any] interface {
	*T
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

type binaryCodec[T any, PT BinaryValue[T]] struct{}

// Binary returns a binary codec for types implementing
// encoding.BinaryMarshaler and encoding.BinaryUnmarshaler.
func Binary[T any, PT BinaryValue[T]]() Codec[T] { return binaryCodec[T, PT]{} }

func (binaryCodec[T, PT]) Format() Format { return FormatBinary }

func (binaryCodec[T, PT]) Encode(v T) ([]byte, error) {
	data, err := PT(&v).MarshalBinary()
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

func (binaryCodec[T, PT]) Decode(data []byte) (T, error) {
	var v T
	if err := PT(&v).UnmarshalBinary(data); err != nil {
		return v, err
	}
	return v, nil
}
