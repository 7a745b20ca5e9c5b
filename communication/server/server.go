package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"equilibria/communication"
	"equilibria/dynamic"
	"equilibria/game"
	"equilibria/solver"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// Server accepts game snapshots over HTTP and feeds them, in arrival order,
// to a dynamic manager. The latest equilibrium can be read back at any time.
type Server struct {
	manager   *dynamic.Manager
	snapshots chan *game.Game
	mutex     sync.RWMutex
	latest    *communication.EquilibriumView
	lastError string
}

// NewServer queues up to buffer snapshots ahead of the manager.
func NewServer(manager *dynamic.Manager, buffer int) *Server {
	if buffer < 0 {
		panic("Snapshot buffer must not be negative")
	}
	return &Server{
		manager:   manager,
		snapshots: make(chan *game.Game, buffer),
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Post("/snapshots", s.handleSnapshot)
	r.Get("/equilibrium", s.handleEquilibrium)

	return r
}

// Track runs the manager over incoming snapshots until ctx is done.
func (s *Server) Track(ctx context.Context) error {
	return s.manager.Follow(ctx, s.snapshots, s.observe)
}

// ListenAndServe serves Routes on addr and tracks snapshots until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Routes()}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			log.Warn().Err(err).Msg("failed to shut down snapshot server")
		}
	}()
	go func() {
		if err := s.Track(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn().Err(err).Msg("stopped tracking snapshots")
		}
	}()

	log.Info().Msgf("listening for snapshots on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) observe(eq solver.Equilibrium, err error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if err != nil {
		s.lastError = err.Error()
		return
	}
	view := communication.ViewOf(eq)
	s.latest = &view
	s.lastError = ""
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	var snapshot communication.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snapshot); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	g, err := snapshot.Game()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	select {
	case s.snapshots <- g:
	case <-r.Context().Done():
		writeError(w, http.StatusServiceUnavailable, "request ended while the snapshot queue was full")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleEquilibrium(w http.ResponseWriter, r *http.Request) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.latest == nil {
		message := dynamic.ErrNotInitialized.Error()
		if s.lastError != "" {
			message = s.lastError
		}
		writeError(w, http.StatusNotFound, message)
		return
	}
	view := *s.latest
	view.LastError = s.lastError
	writeJSON(w, http.StatusOK, view)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warn().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, communication.ErrorResponse{Error: message})
}
