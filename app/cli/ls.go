package cli

import (
	"errors"
	"io"
	"slices"

	"github.com/olekukonko/tablewriter"

	actx "go.hackfix.me/dbmap/app/context"
	"go.hackfix.me/dbmap/dbmap"
)

// The Ls command prints all keys and their values.
type Ls struct {
	Remote string `help:"Address of a dbmap server to query instead of the local map."`
}

// Run the ls command.
func (c *Ls) Run(appCtx *actx.Context) error {
	m, err := selectMap(appCtx, c.Remote)
	if err != nil {
		return err
	}

	keys, err := m.Keys(appCtx.Ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	slices.Sort(keys)

	data := make([][]string, 0, len(keys))
	for _, key := range keys {
		val, err := m.Get(appCtx.Ctx, key)
		if errors.Is(err, dbmap.ErrNotFound) {
			// Deleted since listing.
			continue
		} else if errors.Is(err, dbmap.ErrDecodeFailed) {
			appCtx.Logger.Warn("skipping malformed value", "key", key, "error", err)
			continue
		} else if err != nil {
			return err
		}
		data = append(data, []string{key, val})
	}

	renderTable(appCtx.Stdout, []string{"Key", "Value"}, data)

	return nil
}

// renderTable writes data as left-aligned columns without borders.
func renderTable(w io.Writer, header []string, data [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("   ")
	table.SetNoWhiteSpace(true)
	table.AppendBulk(data)
	table.Render()
}
