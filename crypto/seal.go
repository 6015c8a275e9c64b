package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	// KeySize is the size of secret keys in bytes.
	KeySize   = 32
	nonceSize = 24
	// Overhead is the number of bytes Seal adds to the plaintext.
	Overhead = nonceSize + secretbox.Overhead
)

// ErrDecrypt is returned when a sealed payload fails authentication.
var ErrDecrypt = errors.New("failed decrypting payload")

// Seal encrypts and authenticates plaintext using NaCl secretbox (XSalsa20 and
// Poly1305). The nonce is a keyed BLAKE2b hash of the plaintext, so sealing
// the same plaintext with the same key always produces the same output. This
// allows equality lookups on sealed data, at the cost of revealing which
// payloads are equal.
func Seal(plaintext []byte, key *[KeySize]byte) []byte {
	nonce := deriveNonce(plaintext, key)
	return secretbox.Seal(nonce[:], plaintext, nonce, key)
}

// Open authenticates and decrypts a payload produced by Seal.
func Open(sealed []byte, key *[KeySize]byte) ([]byte, error) {
	if len(sealed) < Overhead {
		return nil, fmt.Errorf("%w: payload too short", ErrDecrypt)
	}

	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])

	plaintext, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, key)
	if !ok {
		return nil, ErrDecrypt
	}
	if plaintext == nil {
		plaintext = []byte{}
	}

	return plaintext, nil
}

func deriveNonce(plaintext []byte, key *[KeySize]byte) *[nonceSize]byte {
	// Only fails for invalid sizes or keys longer than 64 bytes.
	h, err := blake2b.New(nonceSize, key[:])
	if err != nil {
		panic(err)
	}
	h.Write([]byte("dbmap nonce"))
	h.Write(plaintext)

	nonce := new([nonceSize]byte)
	copy(nonce[:], h.Sum(nil))

	return nonce
}

// GenerateKey returns a new random secret key.
func GenerateKey() (*[KeySize]byte, error) {
	key := new([KeySize]byte)
	if _, err := io.ReadFull(rand.Reader, key[:]); err != nil {
		return nil, fmt.Errorf("failed generating key: %w", err)
	}

	return key, nil
}

// EncodeKey returns the base58 encoding of key.
func EncodeKey(key *[KeySize]byte) string {
	return base58.Encode(key[:])
}

// DecodeKey decodes and validates an encryption key.
func DecodeKey(keyEnc string) (*[KeySize]byte, error) {
	keyDec, err := base58.Decode(keyEnc)
	if err != nil {
		return nil, err
	}
	if len(keyDec) != KeySize {
		return nil, fmt.Errorf("expected key length of %d; got %d", KeySize, len(keyDec))
	}

	var key [KeySize]byte
	copy(key[:], keyDec)

	return &key, nil
}
