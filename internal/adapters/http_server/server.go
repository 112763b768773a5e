package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Server struct{ mux *chi.Mux }

type Options struct {
	Logger  *zerolog.Logger
	Timeout time.Duration
	// RateLimitRPS <= 0 disables the limiter.
	RateLimitRPS float64
}

func New(opts Options) *Server {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	l := log.Logger
	if opts.Logger != nil {
		l = *opts.Logger
	}

	m := chi.NewRouter()

	// Middlewares must be registered before any route.
	m.Use(chimw.RealIP)
	m.Use(chimw.RequestID)
	m.Use(chimw.Recoverer)
	m.Use(Timeout(opts.Timeout))
	m.Use(Metrics)
	m.Use(Logger(l))
	if opts.RateLimitRPS > 0 {
		m.Use(RateLimit(opts.RateLimitRPS, int(opts.RateLimitRPS)*2+1))
	}

	return &Server{mux: m}
}

func (s *Server) Mux() http.Handler { return s.mux }

// Mount attaches any extra handler (e.g., /metrics) to the router.
func (s *Server) Mount(path string, h http.Handler) {
	s.mux.Handle(path, h)
}
