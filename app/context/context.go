package context

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/mandelsoft/vfs/pkg/vfs"

	"go.hackfix.me/dbmap/dbmap"
)

// Context contains common objects used by the application. It is passed around
// the application to avoid direct dependencies on external systems, and make
// testing easier.
type Context struct {
	Ctx     context.Context
	Version string // The static app version in the binary
	FS      vfs.FileSystem
	Env     Environment
	Logger  *slog.Logger

	// Standard streams
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// DataDir is the directory the local map is stored in.
	DataDir string
	// OpenMap opens the local map. It is set after the command line flags
	// are parsed, since they determine the map's engine and types.
	OpenMap func() (dbmap.TextMap, error)

	mapMx sync.Mutex
	tmap  dbmap.TextMap
}

// Map returns the local map, opening it on first use.
func (c *Context) Map() (dbmap.TextMap, error) {
	c.mapMx.Lock()
	defer c.mapMx.Unlock()

	if c.tmap != nil {
		return c.tmap, nil
	}
	if c.OpenMap == nil {
		return nil, errors.New("local map is not configured")
	}

	m, err := c.OpenMap()
	if err != nil {
		return nil, err
	}
	c.tmap = m

	return m, nil
}

// Close closes the local map if it was opened.
func (c *Context) Close() error {
	c.mapMx.Lock()
	defer c.mapMx.Unlock()

	if c.tmap == nil {
		return nil
	}
	err := c.tmap.Close()
	c.tmap = nil

	return err
}

// Environment is the interface to the process environment.
type Environment interface {
	Get(string) string
	Set(string, string) error
}
