package codec

import (
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"unicode/utf8"
)

// ErrInvalidText is returned when a text payload is not valid UTF-8.
var ErrInvalidText = errors.New("payload is not valid UTF-8")

// Signed is the set of signed integer types supported by Int.
type Signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// Unsigned is the set of unsigned integer types supported by Uint.
type Unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

type stringCodec struct{}

// String returns a text codec storing strings as they are. Strings that are
// not valid UTF-8 can't be stored in a text column and fail to encode.
func String() Codec[string] { return stringCodec{} }

func (stringCodec) Format() Format { return FormatText }

func (stringCodec) Encode(v string) ([]byte, error) {
	if !utf8.ValidString(v) {
		return nil, ErrInvalidText
	}
	return []byte(v), nil
}

func (stringCodec) Decode(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", ErrInvalidText
	}
	return string(data), nil
}

type intCodec[T Signed] struct{}

// Int returns a text codec storing signed integers in base 10.
func Int[T Signed]() Codec[T] { return intCodec[T]{} }

func (intCodec[T]) Format() Format { return FormatText }

func (intCodec[T]) Encode(v T) ([]byte, error) {
	return strconv.AppendInt(nil, int64(v), 10), nil
}

func (intCodec[T]) Decode(data []byte) (T, error) {
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, err
	}
	v := T(n)
	if int64(v) != n {
		return 0, fmt.Errorf("value %d overflows %T", n, v)
	}
	return v, nil
}

type uintCodec[T Unsigned] struct{}

// Uint returns a text codec storing unsigned integers in base 10.
func Uint[T Unsigned]() Codec[T] { return uintCodec[T]{} }

func (uintCodec[T]) Format() Format { return FormatText }

func (uintCodec[T]) Encode(v T) ([]byte, error) {
	return strconv.AppendUint(nil, uint64(v), 10), nil
}

func (uintCodec[T]) Decode(data []byte) (T, error) {
	n, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return 0, err
	}
	v := T(n)
	if uint64(v) != n {
		return 0, fmt.Errorf("value %d overflows %T", n, v)
	}
	return v, nil
}

type floatCodec[T ~float32 | ~float64] struct{}

// Float returns a text codec storing floating point numbers in their shortest
// exact decimal form.
func Float[T ~float32 | ~float64]() Codec[T] { return floatCodec[T]{} }

func (floatCodec[T]) Format() Format { return FormatText }

func (floatCodec[T]) Encode(v T) ([]byte, error) {
	return strconv.AppendFloat(nil, float64(v), 'g', -1, 64), nil
}

func (floatCodec[T]) Decode(data []byte) (T, error) {
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return 0, err
	}
	v := T(f)
	if math.IsInf(float64(v), 0) && !math.IsInf(f, 0) {
		return 0, fmt.Errorf("value %s overflows %T", data, v)
	}
	return v, nil
}

type boolCodec struct{}

// Bool returns a text codec storing booleans as "true" or "false".
func Bool() Codec[bool] { return boolCodec{} }

func (boolCodec) Format() Format { return FormatText }

func (boolCodec) Encode(v bool) ([]byte, error) {
	return strconv.AppendBool(nil, v), nil
}

func (boolCodec) Decode(data []byte) (bool, error) {
	return strconv.ParseBool(string(data))
}

// TextValue is implemented by pointers to types with a text representation,
// such as *time.Time or *netip.Addr.
type TextValue[T any] interface {
	*T
	encoding.TextMarshaler
	encoding.TextUnmarshaler
}

type textCodec[T any, PT TextValue[T]] struct{}

// Text returns a text codec for types implementing encoding.TextMarshaler and
// encoding.TextUnmarshaler. Decoding fails with the error returned by
// UnmarshalText.
func Text[T any, PT TextValue[T]]() Codec[T] { return textCodec[T, PT]{} }

func (textCodec[T, PT]) Format() Format { return FormatText }

func (textCodec[T, PT]) Encode(v T) ([]byte, error) {
	data, err := PT(&v).MarshalText()
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, ErrInvalidText
	}
	return data, nil
}

func (textCodec[T, PT]) Decode(data []byte) (T, error) {
	var v T
	if !utf8.Valid(data) {
		return v, ErrInvalidText
	}
	if err := PT(&v).UnmarshalText(data); err != nil {
		return v, err
	}
	return v, nil
}

type jsonCodec[T any] struct{}

// JSON returns a text codec storing values as JSON documents. Reverse lookups
// compare payloads byte by byte, so T should marshal deterministically.
func JSON[T any]() Codec[T] { return jsonCodec[T]{} }

func (jsonCodec[T]) Format() Format { return FormatText }

func (jsonCodec[T]) Encode(v T) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec[T]) Decode(data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return v, err
	}
	return v, nil
}
