// Package api serves the equipment REST API and the administrative reset
// trigger over a chi router.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/cityequip/cityequip/internal/ingest"
	"github.com/cityequip/cityequip/internal/model"
	"github.com/cityequip/cityequip/internal/store"
)

// Store is the persistence the API reads and writes.
type Store interface {
	Ping(ctx context.Context) error
	List(ctx context.Context, filter store.Filter) ([]model.Equipment, int64, error)
	Get(ctx context.Context, id string) (*model.Equipment, error)
	Create(ctx context.Context, e *model.Equipment) error
	Update(ctx context.Context, e *model.Equipment) error
	Delete(ctx context.Context, id string) error
}

// Resetter wipes and reloads the dataset.
type Resetter interface {
	Reset(ctx context.Context) (ingest.ResetResult, error)
}

// Options configures the router.
type Options struct {
	APIKeys        []string
	CORSOrigins    []string
	RateLimit      rate.Limit
	RateBurst      int
	RequestTimeout time.Duration
	ResetTimeout   time.Duration
}

// Server wires handlers and middleware.
type Server struct {
	store    Store
	resetter Resetter
	opts     Options
	router   *chi.Mux
	log      *zap.Logger
}

// NewServer builds the router. resetter may be nil, in which case the reset
// route answers 503.
func NewServer(st Store, resetter Resetter, opts Options) *Server {
	if opts.RequestTimeout == 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	if opts.ResetTimeout == 0 {
		opts.ResetTimeout = 120 * time.Second
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	s := &Server{
		store:    st,
		resetter: resetter,
		opts:     opts,
		router:   chi.NewRouter(),
		log:      zap.L().With(zap.String("component", "api")),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.log))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", APIKeyHeader},
		MaxAge:         300,
	}))
	if s.opts.RateLimit > 0 {
		s.router.Use(newRateLimiter(s.opts.RateLimit, s.opts.RateBurst).middleware)
	}
}

func (s *Server) setupRoutes() {
	auth := APIKeyAuth(s.opts.APIKeys)

	s.router.Get("/health", s.handleHealth)

	s.router.Route("/equipments", func(r chi.Router) {
		r.Use(middleware.Timeout(s.opts.RequestTimeout))
		r.Get("/", s.handleList)
		r.Get("/{id}", s.handleGet)
		r.With(auth).Post("/", s.handleCreate)
		r.With(auth).Put("/{id}", s.handleUpdate)
		r.With(auth).Delete("/{id}", s.handleDelete)
	})

	s.router.With(auth).Post("/admin/reset", s.handleReset)
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}
