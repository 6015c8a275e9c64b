package cli

import (
	actx "go.hackfix.me/dbmap/app/context"
)

// The Rm command deletes a key.
type Rm struct {
	Key string `arg:"" help:"The key to delete."`
}

// Run the rm command.
func (c *Rm) Run(appCtx *actx.Context) error {
	m, err := appCtx.Map()
	if err != nil {
		return err
	}

	return notFound(c.Key, m.Delete(appCtx.Ctx, c.Key))
}
