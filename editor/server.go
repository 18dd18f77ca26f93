// ABOUTME: HTTP server struct with chi router, session store, journal and metrics endpoint
// ABOUTME: Configures all JSON routes and wires handler methods via functional options

package editor

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServerOption configures optional Server behavior.
type ServerOption func(*Server)

// WithJournal records every edit attempt in j and enables GET /sessions/{id}/journal.
func WithJournal(j *Journal) ServerOption {
	return func(s *Server) {
		s.journal = j
	}
}

// WithLogger sets the logger used for request and edit logs.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = l
	}
}

// WithMaxBodyBytes caps request bodies. The default is 10MB.
func WithMaxBodyBytes(n int64) ServerOption {
	return func(s *Server) {
		s.maxBody = n
	}
}

// Server holds the chi router, session store and optional journal.
type Server struct {
	router  chi.Router
	store   *Store
	journal *Journal
	logger  *slog.Logger
	maxBody int64
}

// NewServer creates a Server with all routes configured.
func NewServer(store *Store, opts ...ServerOption) *Server {
	s := &Server{
		store:   store,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxBody: 10 << 20,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Handle("/metrics", promhttp.Handler())

	// Session lifecycle
	r.Post("/sessions", s.handleCreateSession)
	r.Get("/sessions/{id}", s.handleGetSession)
	r.Delete("/sessions/{id}", s.handleDeleteSession)
	r.Get("/sessions/{id}/export", s.handleExport)
	r.Get("/sessions/{id}/render.dot", s.handleRenderDOT)
	r.Get("/sessions/{id}/journal", s.handleJournal)

	// Mutation handlers
	r.Put("/sessions/{id}/text", s.handleUpdateText)
	r.Post("/sessions/{id}/operations", s.handleApplyOperation)
	r.Post("/sessions/{id}/adapter", s.handleSelectAdapter)
	r.Post("/sessions/{id}/undo", s.handleUndo)
	r.Post("/sessions/{id}/redo", s.handleRedo)

	s.router = r
	return s
}

// ServeHTTP implements the http.Handler interface, delegating to the chi router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
