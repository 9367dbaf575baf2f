package node

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ControlRouter exposes the internal control surface every node kind
// listens on at its internal address: status for NodeStatus polling
// (the coordinator's pre-dispatch active check) and
// activate/deactivate/shutdown for operator control forwarded by the
// API node.
func (s *Service) ControlRouter() http.Handler {
	r := chi.NewRouter()
	r.Route("/internal/v1/node", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Post("/activate", s.handleActivate)
		r.Post("/deactivate", s.handleDeactivate)
		r.Post("/shutdown", s.handleShutdown)
	})
	return r
}

func (s *Service) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": s.Status()})
}

func (s *Service) handleActivate(w http.ResponseWriter, r *http.Request) {
	s.Activate()
	writeJSON(w, http.StatusOK, map[string]any{"status": s.Status()})
}

func (s *Service) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	s.Deactivate()
	writeJSON(w, http.StatusOK, map[string]any{"status": s.Status()})
}

// handleShutdown responds first, then runs the lease-revoking shutdown
// sequence in the background -- the request that triggered it must not
// block on the node's own teardown.
func (s *Service) handleShutdown(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "shutting_down"})
	go func() {
		if err := s.Shutdown(context.Background()); err != nil {
			s.log.Warn("remote shutdown failed", zap.Error(err))
		}
	}()
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
