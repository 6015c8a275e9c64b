package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	actx "go.hackfix.me/dbmap/app/context"
	"go.hackfix.me/dbmap/dbmap"
)

// CLI is the command line interface of dbmap.
type CLI struct {
	ctx *kong.Context

	Init  Init  `kong:"cmd,help='Create the local map and optionally generate an encryption key.'"`
	Set   Set   `kong:"cmd,help='Set the value of a key.'"`
	Get   Get   `kong:"cmd,help='Get the value of a key.'"`
	Keys  Keys  `kong:"cmd,help='Print the keys that store a value.'"`
	Rm    Rm    `kong:"cmd,help='Delete a key.'"`
	Ls    Ls    `kong:"cmd,help='List all keys and their values.'"`
	Serve Serve `kong:"cmd,help='Start the HTTP API server.'"`

	DataDir       string     `kong:"default='${dataDir}',help='Directory to store the local map in.'"`
	Engine        string     `kong:"enum='sqlite,badger',default='sqlite',help='Storage engine of the local map (${enum}).'"`
	KeyType       string     `kong:"enum='${types}',default='string',help='Type of keys (${enum}).'"`
	ValueType     string     `kong:"enum='${types}',default='string',help='Type of values (${enum}).'"`
	EncryptionKey string     `kong:"help='Base58-encoded key used for encrypting stored values. Generate one with init --gen-key.'"`
	LogLevel      slog.Level `kong:"default='INFO',help='Set the app logging level.'"`

	Version kong.VersionFlag `kong:"help='Output dbmap version and exit.'"`
}

// Setup the command-line interface.
func (c *CLI) Setup(appCtx *actx.Context, dataDir string, args []string, exit func(int)) error {
	kparser, err := kong.New(c,
		kong.Name("dbmap"),
		kong.Description("A persistent, strongly-typed map."),
		kong.UsageOnError(),
		kong.DefaultEnvars("DBMAP"),
		kong.Exit(exit),
		kong.Writers(appCtx.Stdout, appCtx.Stderr),
		kong.Vars{
			"dataDir": dataDir,
			"types":   strings.Join(valueTypes, ","),
			"version": appCtx.Version,
		},
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
	)
	if err != nil {
		return err
	}

	c.ctx, err = kparser.Parse(args)
	if err != nil {
		return err
	}

	appCtx.DataDir = c.DataDir
	appCtx.OpenMap = func() (dbmap.TextMap, error) {
		return c.openMap(appCtx)
	}

	return nil
}

// Run the selected command.
func (c *CLI) Run(appCtx *actx.Context) error {
	if c.ctx == nil {
		return fmt.Errorf("no command selected")
	}
	return c.ctx.Run(appCtx, c)
}

// mapPath returns the location of the local map for the selected engine.
func (c *CLI) mapPath() string {
	if c.Engine == string(dbmap.EngineBadger) {
		return filepath.Join(c.DataDir, "badger")
	}
	return filepath.Join(c.DataDir, "dbmap.db")
}
