package dbmap

import (
	"context"
	"fmt"

	"go.hackfix.me/dbmap/codec"
	"go.hackfix.me/dbmap/store"
)

// TextMap is a Map whose keys and values are given and returned as strings.
// It allows the command line and HTTP interfaces to work with a Map without
// knowing its types.
type TextMap interface {
	Set(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, error)
	GetKeys(ctx context.Context, value string) ([]string, error)
	Keys(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

type textMap[K, V any] struct {
	m      *Map[K, V]
	keys   codec.Codec[K]
	values codec.Codec[V]
}

// NewTextMap returns a TextMap over m, which converts keys and values from
// and to strings with the keys and values codecs. Strings that the codecs
// can't parse fail with ErrEncodeFailed.
func NewTextMap[K, V any](m *Map[K, V], keys codec.Codec[K], values codec.Codec[V]) TextMap {
	return &textMap[K, V]{m: m, keys: keys, values: values}
}

func (t *textMap[K, V]) Set(ctx context.Context, key, value string) error {
	const op = "insert"
	k, err := t.keys.Decode([]byte(key))
	if err != nil {
		return parseError(op, "key", err)
	}
	v, err := t.values.Decode([]byte(value))
	if err != nil {
		return parseError(op, "value", err)
	}

	return t.m.Insert(ctx, k, v)
}

func (t *textMap[K, V]) Get(ctx context.Context, key string) (string, error) {
	const op = "get"
	k, err := t.keys.Decode([]byte(key))
	if err != nil {
		return "", parseError(op, "key", err)
	}

	v, err := t.m.Get(ctx, k)
	if err != nil {
		return "", err
	}

	text, err := t.values.Encode(v)
	if err != nil {
		return "", store.NewError(op, ErrDecodeFailed, fmt.Errorf("value: %w", err))
	}

	return string(text), nil
}

func (t *textMap[K, V]) GetKeys(ctx context.Context, value string) ([]string, error) {
	const op = "get keys"
	v, err := t.values.Decode([]byte(value))
	if err != nil {
		return nil, parseError(op, "value", err)
	}

	keys, err := t.m.GetKeys(ctx, v)
	if err != nil {
		return nil, err
	}

	return t.formatKeys(op, keys)
}

func (t *textMap[K, V]) Keys(ctx context.Context) ([]string, error) {
	keys, err := t.m.Keys(ctx)
	if err != nil {
		return nil, err
	}

	return t.formatKeys("keys", keys)
}

func (t *textMap[K, V]) Delete(ctx context.Context, key string) error {
	k, err := t.keys.Decode([]byte(key))
	if err != nil {
		return parseError("delete", "key", err)
	}

	return t.m.Delete(ctx, k)
}

func (t *textMap[K, V]) Close() error {
	return t.m.Close()
}

func (t *textMap[K, V]) formatKeys(op string, keys []K) ([]string, error) {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		text, err := t.keys.Encode(k)
		if err != nil {
			return nil, store.NewError(op, ErrDecodeFailed, fmt.Errorf("key: %w", err))
		}
		out = append(out, string(text))
	}

	return out, nil
}

func parseError(op, what string, err error) error {
	return store.NewError(op, ErrEncodeFailed, fmt.Errorf("failed parsing %s: %w", what, err))
}
