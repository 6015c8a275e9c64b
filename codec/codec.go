// Package codec converts application values to and from the payloads stored
// in a map's key and value columns.
//
// A codec must round-trip every value the application stores:
// Decode(Encode(x)) must equal x. Stores do not verify this. Codecs that can't
// represent a value return an error from Encode, and codecs that receive a
// malformed payload return an error from Decode. They never panic.
package codec

import "fmt"

// Format is the representation of a payload in storage.
type Format int

// Payload formats.
const (
	FormatText Format = iota
	FormatBinary
)

func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatBinary:
		return "binary"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Codec encodes and decodes a value of type T to and from a payload.
type Codec[T any] interface {
	// Format reports how payloads produced by Encode are stored.
	Format() Format
	Encode(T) ([]byte, error)
	Decode([]byte) (T, error)
}

type funcCodec[T any] struct {
	format Format
	enc    func(T) ([]byte, error)
	dec    func([]byte) (T, error)
}

// Func returns a Codec using the given functions.
func Func[T any](format Format, enc func(T) ([]byte, error), dec func([]byte) (T, error)) Codec[T] {
	return funcCodec[T]{format: format, enc: enc, dec: dec}
}

func (c funcCodec[T]) Format() Format                { return c.format }
func (c funcCodec[T]) Encode(v T) ([]byte, error)    { return c.enc(v) }
func (c funcCodec[T]) Decode(data []byte) (T, error) { return c.dec(data) }
