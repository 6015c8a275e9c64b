package cli

import (
	"fmt"

	actx "go.hackfix.me/dbmap/app/context"
)

// The Get command retrieves and prints the value of a key.
type Get struct {
	Key string `arg:"" help:"The unique key associated with the value."`

	Remote string `help:"Address of a dbmap server to query instead of the local map."`
}

// Run the get command.
func (c *Get) Run(appCtx *actx.Context) error {
	m, err := selectMap(appCtx, c.Remote)
	if err != nil {
		return err
	}

	val, err := m.Get(appCtx.Ctx, c.Key)
	if err != nil {
		return notFound(c.Key, err)
	}

	fmt.Fprintf(appCtx.Stdout, "%s\n", val)

	return nil
}
