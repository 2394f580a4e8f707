// ABOUTME: HTTP server exposing the workout library and session time capture.
// ABOUTME: Routes live under /api/v1 and are served by a chi router.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/harperreed/swim/internal/storage"
	"go.uber.org/zap"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	repo   storage.Repository
	log    *zap.Logger
	router chi.Router
}

// New creates a new Server with all routes configured.
func New(repo storage.Repository, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		repo:   repo,
		log:    log,
		router: chi.NewRouter(),
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
	s.router.Use(RequestLogging(s.log))
	s.router.Use(middleware.Recoverer)
	s.router.Use(CORS())

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/workouts", s.handleListWorkouts)
		r.Get("/workouts/{id}", s.handleGetWorkout)
		r.Get("/workouts/{id}/steps", s.handleWorkoutSteps)

		r.Post("/sessions", s.handleCreateSession)
		r.Get("/sessions/{id}/times", s.handleListTimes)
		r.Post("/sessions/{id}/times", s.handleRecordTime)
	})
}
