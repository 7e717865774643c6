// Package http serves the report operations as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"finreport/internal/core"
	"finreport/internal/log"
	"finreport/internal/middleware/ratelimit"
	"finreport/internal/middleware/security"
	"finreport/internal/middleware/trace"
	"finreport/internal/report"
	"finreport/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// TableLoader reads the transaction table; nil asOf means the full table.
type TableLoader interface {
	Load(ctx context.Context, asOf *time.Time) (*core.Table, error)
}

// HomeBuilder renders the home document.
type HomeBuilder interface {
	Build(ctx context.Context, asOf time.Time) (string, error)
}

// HistoryLister lists recorded quote snapshots.
type HistoryLister interface {
	History(ctx context.Context, f storage.HistoryFilter) ([]storage.Snapshot, error)
}

// Deps are the services behind the routes. History may be nil, in which
// case the history endpoint answers 503.
type Deps struct {
	Loader  TableLoader
	Home    HomeBuilder
	Reports *report.Writer
	History HistoryLister
}

// Options tune the server.
type Options struct {
	RequestsPerMinute int
	RequestTimeout    time.Duration
}

// Server is an http.Server with its routes and middleware wired.
type Server struct {
	http.Server
	deps        Deps
	logger      *log.Logger
	rateLimiter *ratelimit.Limiter
	tracer      *trace.Middleware
	now         func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps, opts Options, logger *log.Logger) *Server {
	logger = log.OrDiscard(logger).WithComponent(log.ComponentHTTP)
	clientIP := security.NewClientIP()

	s := &Server{
		deps:   deps,
		logger: logger,
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RequestsPerMinute,
		}),
		tracer: trace.NewMiddleware(logger, clientIP.Extract),
		now:    time.Now,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.tracer.Middleware)
	r.Use(security.Headers(security.DefaultHeadersConfig()))

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.rateLimiter.Middleware(clientIP.Extract, func(w http.ResponseWriter, r *http.Request) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded")
			writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded")
		}))
		if opts.RequestTimeout > 0 {
			r.Use(middleware.Timeout(opts.RequestTimeout))
		}
		r.Get("/home", s.handleHome)
		r.Get("/reports/spending", s.handleSpending)
		r.Get("/reports/cashback", s.handleCashback)
		r.Get("/quotes/history", s.handleHistory)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// WithClock replaces the clock used for default dates.
func (s *Server) WithClock(now func() time.Time) *Server {
	s.now = now
	return s
}

// Shutdown gracefully shuts down the server and the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
