package cli

import (
	actx "go.hackfix.me/dbmap/app/context"
)

// The Set command stores the value of a key.
type Set struct {
	Key   string `arg:"" help:"The unique key that identifies the value."`
	Value string `arg:"" help:"The value."`
}

// Run the set command.
func (c *Set) Run(appCtx *actx.Context) error {
	m, err := appCtx.Map()
	if err != nil {
		return err
	}

	return m.Set(appCtx.Ctx, c.Key, c.Value)
}
