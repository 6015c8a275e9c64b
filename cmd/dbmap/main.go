package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"go.hackfix.me/dbmap/app"
	actx "go.hackfix.me/dbmap/app/context"
)

func main() {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	isStderrTTY := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())

	a, err := app.New(
		filepath.Join(xdg.DataHome, "dbmap"),
		app.WithContext(ctx),
		app.WithFS(osfs.New()),
		app.WithEnv(osEnv{}),
		app.WithFDs(os.Stdin, colorable.NewColorableStdout(), colorable.NewColorableStderr()),
		app.WithLogger(isStderrTTY),
		app.WithExit(os.Exit),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed initializing app: %s\n", err)
		os.Exit(1)
	}

	a.FatalIfErrorf(a.Run(os.Args[1:]))
}

type osEnv struct{}

var _ actx.Environment = &osEnv{}

func (e osEnv) Get(key string) string {
	return os.Getenv(key)
}

func (e osEnv) Set(key, val string) error {
	return os.Setenv(key, val)
}
