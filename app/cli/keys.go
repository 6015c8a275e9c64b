package cli

import (
	"fmt"
	"slices"

	actx "go.hackfix.me/dbmap/app/context"
)

// The Keys command prints the keys that store a value.
type Keys struct {
	Value string `arg:"" help:"The value to look up."`

	Remote string `help:"Address of a dbmap server to query instead of the local map."`
}

// Run the keys command.
func (c *Keys) Run(appCtx *actx.Context) error {
	m, err := selectMap(appCtx, c.Remote)
	if err != nil {
		return err
	}

	keys, err := m.GetKeys(appCtx.Ctx, c.Value)
	if err != nil {
		return err
	}

	slices.Sort(keys)
	for _, key := range keys {
		fmt.Fprintf(appCtx.Stdout, "%s\n", key)
	}

	return nil
}
