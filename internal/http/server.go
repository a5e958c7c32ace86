// Package http exposes the ledger and the account registry as a JSON API.
package http

import (
	"context"
	"io"
	"net/http"
	"time"

	"financeiro/internal/core"
	"financeiro/internal/export"
	applog "financeiro/internal/log"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// MovementService is the ledger as seen by the API.
type MovementService interface {
	Add(ctx context.Context, date string, kind core.Kind, account string, amount decimal.Decimal, note string) (int64, error)
	Update(ctx context.Context, id int64, date string, kind core.Kind, account string, amount decimal.Decimal, note string) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (core.Movement, error)
	Query(ctx context.Context, f core.Filter) ([]core.Movement, error)
	Total(ctx context.Context, kind core.Kind) (decimal.Decimal, error)
	Summary(ctx context.Context) (core.Summary, error)
	ExportTo(ctx context.Context, w io.Writer, format export.Format, f core.Filter) error
	Import(ctx context.Context, r io.Reader) (int, error)
}

// AccountService is the account registry as seen by the API.
type AccountService interface {
	Add(ctx context.Context, name string) (int64, error)
	Remove(ctx context.Context, name string) (int64, error)
	List(ctx context.Context) ([]string, error)
}

// Pinger reports whether a dependency is reachable. Used by /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	http.Server
	movements   MovementService
	accounts    AccountService
	ready       Pinger
	logger      *applog.Logger
	validate    *validator.Validate
	rateLimiter *rateLimiter

	allowedOrigins []string
	requestsPerMin int
	maxImportBytes int64
}

type Option func(*Server)

func WithLogger(l *applog.Logger) Option {
	return func(s *Server) { s.logger = l.WithComponent(applog.ComponentHTTP) }
}

// WithReadiness makes /readyz ping p.
func WithReadiness(p Pinger) Option {
	return func(s *Server) { s.ready = p }
}

func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) { s.allowedOrigins = origins }
}

// WithRateLimit caps requests per client IP per minute. Zero disables it.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) { s.requestsPerMin = perMinute }
}

func WithMaxImportBytes(n int64) Option {
	return func(s *Server) { s.maxImportBytes = n }
}

func NewServer(addr string, movements MovementService, accounts AccountService, opts ...Option) *Server {
	s := &Server{
		movements:      movements,
		accounts:       accounts,
		logger:         applog.Discard().WithComponent(applog.ComponentHTTP),
		validate:       validator.New(),
		allowedOrigins: []string{"http://*", "https://*"},
		requestsPerMin: defaultRequestsPerMinute,
		maxImportBytes: 10 << 20,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.requestsPerMin > 0 {
		s.rateLimiter = newRateLimiter(s.requestsPerMin)
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(s.trace)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader, "Content-Disposition"},
		MaxAge:         300,
	}))
	if s.rateLimiter != nil {
		r.Use(s.rateLimit)
	}

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Route("/movements", func(r chi.Router) {
			r.Get("/", s.handleListMovements)
			r.Post("/", s.handleCreateMovement)
			r.Get("/{id}", s.handleGetMovement)
			r.Put("/{id}", s.handleUpdateMovement)
			r.Delete("/{id}", s.handleDeleteMovement)
		})

		r.Get("/summary", s.handleSummary)
		r.Get("/totals/{kind}", s.handleTotal)

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", s.handleListAccounts)
			r.Post("/", s.handleCreateAccount)
			r.Delete("/{name}", s.handleDeleteAccount)
		})

		r.Get("/export.csv", s.handleExport(export.CSV))
		r.Get("/export.xlsx", s.handleExport(export.XLSX))
		r.Post("/import", s.handleImport)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	})

	return r
}

// Shutdown stops background work and gracefully closes the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.rateLimiter != nil {
		s.rateLimiter.stop()
	}
	return s.Server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready.Ping(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			writeError(w, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
