package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.hackfix.me/dbmap/app/cli"
	actx "go.hackfix.me/dbmap/app/context"
	aerrors "go.hackfix.me/dbmap/app/errors"
)

// App is the application.
type App struct {
	ctx      *actx.Context
	dataDir  string
	logLevel *slog.LevelVar

	Exit func(int)
}

// New initializes a new application. dataDir is the default directory of the
// local map, used unless the --data-dir flag is set.
func New(dataDir string, opts ...Option) (*App, error) {
	version, err := actx.GetVersion()
	if err != nil {
		return nil, err
	}

	defaultCtx := &actx.Context{
		Ctx:     context.Background(),
		Version: version.String(),
		Logger:  slog.Default(),
	}
	app := &App{
		ctx:      defaultCtx,
		dataDir:  dataDir,
		logLevel: &slog.LevelVar{},
		Exit:     func(int) {},
	}

	for _, opt := range opts {
		opt(app)
	}

	if app.ctx.FS == nil {
		return nil, errors.New("filesystem is not set")
	}

	return app, nil
}

// Run parses args and runs the selected command. The local map, if opened
// by the command, is closed before Run returns.
func (app *App) Run(args []string) (err error) {
	c := &cli.CLI{}
	if err = c.Setup(app.ctx, app.dataDir, args, app.Exit); err != nil {
		return err
	}
	app.logLevel.Set(c.LogLevel)

	defer func() {
		if cerr := app.ctx.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed closing map: %w", cerr)
		}
	}()

	return c.Run(app.ctx)
}

// FatalIfErrorf terminates the application with an error message if err != nil.
func (app *App) FatalIfErrorf(err error, args ...interface{}) {
	if err == nil {
		return
	}

	var errCause aerrors.WithCause
	if errors.As(err, &errCause) && errCause.Cause() != nil {
		args = append(args, "cause", errCause.Cause())
	}
	var errHint aerrors.WithHint
	if errors.As(err, &errHint) && errHint.Hint() != "" {
		args = append(args, "hint", errHint.Hint())
	}

	app.ctx.Logger.Error(err.Error(), args...)
	app.Exit(1)
}
