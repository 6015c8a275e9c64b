package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	actx "go.hackfix.me/dbmap/app/context"
	aerrors "go.hackfix.me/dbmap/app/errors"
	"go.hackfix.me/dbmap/codec"
	"go.hackfix.me/dbmap/crypto"
	"go.hackfix.me/dbmap/dbmap"
	"go.hackfix.me/dbmap/web/client"
)

const envEncryptionKey = "DBMAP_ENCRYPTION_KEY"

var valueTypes = []string{"string", "int", "uint", "float", "bool", "json"}

// encryptionKey returns the key set with the flag, or in the app environment.
func (c *CLI) encryptionKey(appCtx *actx.Context) string {
	if c.EncryptionKey != "" {
		return c.EncryptionKey
	}
	if appCtx.Env != nil {
		return appCtx.Env.Get(envEncryptionKey)
	}
	return ""
}

func (c *CLI) openMap(appCtx *actx.Context) (dbmap.TextMap, error) {
	var sealKey *[crypto.KeySize]byte
	if encKey := c.encryptionKey(appCtx); encKey != "" {
		var err error
		sealKey, err = crypto.DecodeKey(encKey)
		if err != nil {
			return nil, aerrors.NewRuntimeError(
				fmt.Sprintf("invalid encryption key: %s", err), err, "")
		}
	}

	if err := appCtx.FS.MkdirAll(c.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed creating data directory: %w", err)
	}

	opts := []dbmap.Option{
		dbmap.WithEngine(dbmap.Engine(c.Engine)),
		dbmap.WithLogger(appCtx.Logger),
		dbmap.WithSkipMalformed(),
	}
	m, err := openTextMap(appCtx.Ctx, c.mapPath(), c.KeyType, c.ValueType, sealKey, opts)
	if err != nil {
		var hint string
		if strings.Contains(err.Error(), "payload format mismatch") {
			hint = "the map was created with different types or encryption settings"
		}
		return nil, aerrors.NewRuntimeError(fmt.Sprintf("failed opening map: %s", err), err, hint)
	}

	appCtx.Logger.Debug("opened local map",
		"path", c.mapPath(), "engine", c.Engine, "key_type", c.KeyType,
		"value_type", c.ValueType, "encrypted", sealKey != nil)

	return m, nil
}

// selectMap returns a client of the remote server at address, or the local
// map if address is empty.
func selectMap(appCtx *actx.Context, address string) (dbmap.TextMap, error) {
	if address != "" {
		return client.New(address), nil
	}
	return appCtx.Map()
}

// openTextMap opens a map with the codecs for keyType and valueType. If
// sealKey is set, values are encrypted with it.
func openTextMap(
	ctx context.Context, path, keyType, valueType string, sealKey *[crypto.KeySize]byte,
	opts []dbmap.Option,
) (dbmap.TextMap, error) {
	switch keyType {
	case "string":
		return openWithKeys(ctx, path, codec.String(), valueType, sealKey, opts)
	case "int":
		return openWithKeys(ctx, path, codec.Int[int64](), valueType, sealKey, opts)
	case "uint":
		return openWithKeys(ctx, path, codec.Uint[uint64](), valueType, sealKey, opts)
	case "float":
		return openWithKeys(ctx, path, codec.Float[float64](), valueType, sealKey, opts)
	case "bool":
		return openWithKeys(ctx, path, codec.Bool(), valueType, sealKey, opts)
	case "json":
		return openWithKeys(ctx, path, codec.JSON[any](), valueType, sealKey, opts)
	default:
		return nil, fmt.Errorf("unsupported key type '%s'", keyType)
	}
}

func openWithKeys[K any](
	ctx context.Context, path string, keys codec.Codec[K], valueType string,
	sealKey *[crypto.KeySize]byte, opts []dbmap.Option,
) (dbmap.TextMap, error) {
	switch valueType {
	case "string":
		return openTyped(ctx, path, keys, codec.String(), sealKey, opts)
	case "int":
		return openTyped(ctx, path, keys, codec.Int[int64](), sealKey, opts)
	case "uint":
		return openTyped(ctx, path, keys, codec.Uint[uint64](), sealKey, opts)
	case "float":
		return openTyped(ctx, path, keys, codec.Float[float64](), sealKey, opts)
	case "bool":
		return openTyped(ctx, path, keys, codec.Bool(), sealKey, opts)
	case "json":
		return openTyped(ctx, path, keys, codec.JSON[any](), sealKey, opts)
	default:
		return nil, fmt.Errorf("unsupported value type '%s'", valueType)
	}
}

func openTyped[K, V any](
	ctx context.Context, path string, keys codec.Codec[K], values codec.Codec[V],
	sealKey *[crypto.KeySize]byte, opts []dbmap.Option,
) (dbmap.TextMap, error) {
	stored := values
	if sealKey != nil {
		stored = codec.Sealed(values, sealKey)
	}

	m, err := dbmap.Open(ctx, path, keys, stored, opts...)
	if err != nil {
		return nil, err
	}

	return dbmap.NewTextMap(m, keys, values), nil
}

// notFound returns the error reported to the user for a missing key, or err
// unchanged for any other failure.
func notFound(key string, err error) error {
	if errors.Is(err, dbmap.ErrNotFound) {
		return aerrors.NewRuntimeError(fmt.Sprintf("key '%s' doesn't exist", key), err, "")
	}
	return err
}
