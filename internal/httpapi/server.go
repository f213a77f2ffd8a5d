// Package httpapi exposes the calculation engine over HTTP.
// Handlers stay thin: decoding and validation go through config.InputParser
// and all tax rules live in the calculation package.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/kakutei/tax-calculator/internal/calculation"
	"github.com/kakutei/tax-calculator/internal/config"
	"github.com/kakutei/tax-calculator/internal/domain"
	"golang.org/x/time/rate"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Defaults for the /v1 rate limiter and the result cache.
const (
	DefaultRateLimit     = rate.Limit(10)
	DefaultBurst         = 30
	DefaultCacheTTL      = 15 * time.Minute
	cacheCleanupInterval = 30 * time.Minute
)

// Server wires handlers and middleware using Chi.
type Server struct {
	parser  *config.InputParser
	engine  *calculation.CalculationEngine
	log     *slog.Logger
	rt      *chi.Mux
	limiter *rate.Limiter
	cache   *resultCache
}

// Option configures a Server.
type Option func(*Server)

// WithRateLimit limits /v1 requests to limit per second with the given burst.
// A limit of rate.Inf disables limiting.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(s *Server) { s.limiter = rate.NewLimiter(limit, burst) }
}

// WithResultCache keeps successful responses for identical request bodies for
// ttl. A zero ttl disables the cache.
func WithResultCache(ttl time.Duration) Option {
	return func(s *Server) {
		if ttl <= 0 {
			s.cache = nil
			return
		}
		s.cache = newResultCache(ttl, cacheCleanupInterval)
	}
}

// New constructs the HTTP server with routes and middleware. engine serves
// requests without tax_rules; requests that carry rules get their own engine.
func New(engine *calculation.CalculationEngine, logger *slog.Logger, opts ...Option) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(metricsMiddleware)

	s := &Server{
		parser:  config.NewInputParser(),
		engine:  engine,
		log:     logger,
		rt:      r,
		limiter: rate.NewLimiter(DefaultRateLimit, DefaultBurst),
		cache:   newResultCache(DefaultCacheTTL, cacheCleanupInterval),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

// HTTPServer returns an http.Server for addr with the usual timeouts.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.rt,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func (s *Server) routes() {
	s.rt.Route("/v1", func(r chi.Router) {
		r.Use(rateLimit(s.limiter, s.log))
		r.Post("/calculate", s.calculate)
		r.Post("/scenarios", s.scenarios)
		r.Get("/categories", s.categories)
	})
	s.rt.Get("/healthz", s.healthz)
	s.rt.Method(http.MethodGet, "/metrics", metricsHandler())
}

// engineFor returns the shared engine, or a dedicated one when rules override the tables.
func (s *Server) engineFor(rules *domain.TaxRules) (*calculation.CalculationEngine, error) {
	if rules == nil {
		return s.engine, nil
	}
	ce, err := calculation.NewCalculationEngineWithRules(rules)
	if err != nil {
		return nil, err
	}
	ce.SetLogger(s.engine.Logger)
	return ce, nil
}
