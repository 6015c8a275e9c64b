package server

import (
	"net"
	"net/http"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	actx "go.hackfix.me/dbmap/app/context"
	"go.hackfix.me/dbmap/dbmap"
	apiv1 "go.hackfix.me/dbmap/web/server/api/v1"
)

// Server is a wrapper around http.Server with some custom behavior.
type Server struct {
	*http.Server
	appCtx *actx.Context
}

// New returns a new Server instance serving the m map.
func New(appCtx *actx.Context, m dbmap.TextMap, addr string) *Server {
	return &Server{
		appCtx: appCtx,
		Server: &http.Server{
			Handler:           NewRouter(appCtx, m),
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      time.Minute,
		},
	}
}

// ListenAndServe is a replacement of http.ListenAndServe to ensure we set the
// correct server address to be used in logs.
// This is needed when starting the server with address ':0'.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}

	s.Addr = ln.Addr().String()
	s.appCtx.Logger.Info("started web server", "address", s.Addr)

	return s.Serve(ln)
}

// NewRouter returns the handler of all server endpoints.
func NewRouter(appCtx *actx.Context, m dbmap.TextMap) chi.Router {
	r := chi.NewRouter()
	set := metrics.NewSet()

	r.Use(middleware.RealIP)
	r.Use(requestLogger(appCtx.Logger))
	r.Use(requestMetrics(set))
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(middleware.Recoverer)

	r.Get("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		set.WritePrometheus(w)
	})
	r.Mount("/api/v1", apiv1.Router(m, appCtx.Logger))

	return r
}
