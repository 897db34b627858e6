// Package server exposes the command bridge to the host over HTTP.
//
// The transport is a thin collaborator around the dispatcher: it decodes
// {subject, args} requests, resolves the session, and returns the
// dispatcher's {error, result} response verbatim.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/tsubomi-dev/gitbridge/internal/gitcmd"
	"github.com/tsubomi-dev/gitbridge/internal/hostfs"
	"github.com/tsubomi-dev/gitbridge/internal/session"
)

// Config holds server options.
type Config struct {
	EnableCORS bool
}

// Server is the HTTP host bridge.
type Server struct {
	router      *chi.Mux
	sessions    *session.Manager
	filesystems *hostfs.Registry
	dispatcher  *gitcmd.Dispatcher
	log         zerolog.Logger
}

// New wires the bridge over a session manager and filesystem registry.
func New(cfg Config, sessions *session.Manager, filesystems *hostfs.Registry, log zerolog.Logger) *Server {
	s := &Server{
		router:      chi.NewRouter(),
		sessions:    sessions,
		filesystems: filesystems,
		dispatcher:  gitcmd.NewDispatcher(filesystems, sessions, log),
		log:         log,
	}

	s.router.Use(s.requestLogger)
	if cfg.EnableCORS {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Get("/ping", s.handlePing)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/command", s.handleCommand)

		r.Route("/session", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Get("/{sessionID}/history", s.handleSessionHistory)
			r.Delete("/{sessionID}", s.handleRemoveSession)
		})

		r.Post("/filesystem", s.handleProvisionFilesystem)
		r.Post("/remote/ingest", s.handleIngestRemote)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "pong"})
}
