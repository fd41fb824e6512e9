// Package server exposes the wizard as a JSON HTTP API. Sessions live in the
// store between requests.
package server

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/Pat-Reen/FitnessChat/pkg/store"
	"github.com/Pat-Reen/FitnessChat/pkg/wizard"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	machine *wizard.Machine
	store   *store.Store
	log     *slog.Logger
	apiKey  string
	router  chi.Router

	// locks serialises transitions per session ID
	locks sync.Map
}

// New creates a Server with all routes configured. An empty apiKey disables
// authentication.
func New(machine *wizard.Machine, st *store.Store, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		machine: machine,
		store:   st,
		log:     log,
		apiKey:  apiKey,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(RequestLogging(s.log))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.New(corsOptions).Handler)

	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		if s.apiKey != "" {
			r.Use(APIKeyAuth(s.apiKey))
		}

		r.Get("/catalog", s.handleCatalog)
		r.Get("/catalog/{group}", s.handleCatalogGroup)

		r.Get("/sessions", s.handleListSessions)
		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Post("/preferences", s.handleSubmit)
			r.Post("/selection/toggle", s.handleToggle)
			r.Put("/selection", s.handleSetSelection)
			r.Post("/workout", s.handleBuild)
			r.Post("/workout/regenerate", s.handleRegenerate)
			r.Post("/reset", s.handleReset)
		})
	})
}

func (s *Server) lock(id string) func() {
	v, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
