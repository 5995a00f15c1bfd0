package statusapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"erp-assistant/internal/domain"
)

// Controller is the slice of the assistant the status surface needs:
// a session snapshot for display and the listening toggle.
type Controller interface {
	Snapshot() domain.SessionSnapshot
	StartListening()
	StopListening()
}

// Server exposes the user-facing surface of the assistant: the
// session status/transcript display and the start/stop listening
// toggle.
type Server struct {
	addr       string
	controller Controller
	server     *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger

	mu      sync.Mutex
	running bool
}

func NewServer(addr string, controller Controller, logger *slog.Logger) *Server {
	s := &Server{
		addr:       addr,
		controller: controller,
		mux:        http.NewServeMux(),
		logger:     logger,
	}
	s.mux.HandleFunc("GET /status", s.handleStatus)
	s.mux.HandleFunc("POST /listen/start", s.handleListenStart)
	s.mux.HandleFunc("POST /listen/stop", s.handleListenStop)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	return s
}

func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		s.logger.Info("status server starting", "addr", s.addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("status server error", "error", err)
		}
	}()

	s.running = true
	return nil
}

func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Warn("graceful shutdown failed, forcing close", "error", err)
		if err := s.server.Close(); err != nil {
			return fmt.Errorf("closing server: %w", err)
		}
	}
	s.running = false
	return nil
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.controller.Snapshot()); err != nil {
		s.logger.Error("encoding status", "error", err)
	}
}

func (s *Server) handleListenStart(w http.ResponseWriter, _ *http.Request) {
	s.controller.StartListening()
	s.logger.Info("listening enabled via status API")
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"listening":true}`)
}

func (s *Server) handleListenStop(w http.ResponseWriter, _ *http.Request) {
	s.controller.StopListening()
	s.logger.Info("listening disabled via status API")
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"listening":false}`)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"ok"}`)
}
