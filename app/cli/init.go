package cli

import (
	"fmt"

	actx "go.hackfix.me/dbmap/app/context"
	aerrors "go.hackfix.me/dbmap/app/errors"
	"go.hackfix.me/dbmap/crypto"
)

// The Init command creates the local map, and optionally generates a new
// encryption key for its values.
type Init struct {
	GenKey bool `help:"Generate a new key for encrypting stored values."`
}

// Run the init command.
func (c *Init) Run(appCtx *actx.Context, cli *CLI) error {
	path := cli.mapPath()
	if _, err := appCtx.FS.Stat(path); err == nil {
		return aerrors.NewRuntimeError(
			fmt.Sprintf("dbmap is already initialized at %s", path), nil, "")
	}

	var encKey string
	if c.GenKey {
		if cli.encryptionKey(appCtx) != "" {
			return aerrors.NewRuntimeError("an encryption key is already set", nil,
				fmt.Sprintf("unset %s and --encryption-key to generate a new one", envEncryptionKey))
		}

		key, err := crypto.GenerateKey()
		if err != nil {
			return aerrors.NewRuntimeError("failed generating encryption key", err, "")
		}
		encKey = crypto.EncodeKey(key)
		cli.EncryptionKey = encKey
	}

	if _, err := appCtx.Map(); err != nil {
		return err
	}

	fmt.Fprintf(appCtx.Stdout, "Initialized %s map at %s\n", cli.Engine, path)

	if encKey != "" {
		fmt.Fprintf(appCtx.Stdout, `New encryption key: %s

Make sure to store this key in a secure location, such as a password manager.
Set it in the %s environment variable or pass it with --encryption-key.

It will only be shown once, and you won't be able to read values without it!
`, encKey, envEncryptionKey)
	}

	return nil
}
