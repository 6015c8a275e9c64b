package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	actx "go.hackfix.me/dbmap/app/context"
	"go.hackfix.me/dbmap/web/server"
)

// The Serve command starts the HTTP API server.
type Serve struct {
	Address string `help:"[host]:port to listen on." default:":2020"`
}

// Run the serve command.
func (s *Serve) Run(appCtx *actx.Context) error {
	m, err := appCtx.Map()
	if err != nil {
		return err
	}

	srv := server.New(appCtx, m, s.Address)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-appCtx.Ctx.Done():
		case <-done:
			return
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			appCtx.Logger.Error("failed shutting down web server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	appCtx.Logger.Info("stopped web server")

	return nil
}
