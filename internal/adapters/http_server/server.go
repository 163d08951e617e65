package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

const (
	defaultRequestTimeout = 15 * time.Second
	readHeaderTimeout     = 10 * time.Second
	idleTimeout           = 60 * time.Second
)

// Options tunes the router and the listener built around it.
type Options struct {
	// RequestTimeout bounds every handler; slower requests get a 503.
	RequestTimeout time.Duration
}

type Server struct {
	mux  *chi.Mux
	opts Options
}

func New(o Options) *Server {
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = defaultRequestTimeout
	}
	m := chi.NewRouter()

	// middlewares must be registered before any route
	m.Use(chimw.RequestID)
	m.Use(chimw.Recoverer)
	m.Use(Timeout(o.RequestTimeout))
	m.Use(Metrics)
	m.Use(Logger(log.Logger))

	// clients of the API only ever see problem+json
	m.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, http.StatusNotFound, "Not Found", "no route for "+r.URL.Path)
	})
	m.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, http.StatusMethodNotAllowed, "Method Not Allowed", r.Method+" is not supported here")
	})

	return &Server{mux: m, opts: o}
}

func (s *Server) Mux() http.Handler { return s.mux }

// Mount attaches a handler outside the API routes, such as /metrics.
func (s *Server) Mount(path string, h http.Handler) {
	s.mux.Handle(path, h)
}

// HTTPServer returns a listener for addr. Its write deadline leaves room
// for the handler timeout to answer first.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       s.opts.RequestTimeout,
		WriteTimeout:      s.opts.RequestTimeout + 5*time.Second,
		IdleTimeout:       idleTimeout,
	}
}
