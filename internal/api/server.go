// Package api is the read-only diagnostics HTTP surface (§6 Diagnostics
// HTTP): health, peers, rooms, and Prometheus metrics. It never mutates
// protocol state — every mutation happens through the CLI intents, which
// call straight through to Coordinator methods. Grounded on
// internal/api/server.go's chi router + EnableMetrics/Handler pattern.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lanchat/lanchat/internal/coordinator"
)

// Server exposes a Coordinator's state over HTTP for read-only inspection.
type Server struct {
	c              *coordinator.Coordinator
	metricsEnabled bool
}

// NewServer wraps c.
func NewServer(c *coordinator.Coordinator) *Server {
	return &Server{c: c}
}

// EnableMetrics turns on the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with every route mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Second))

	r.Get("/health", s.handleHealth)
	r.Get("/peers", s.handlePeers)
	r.Get("/rooms", s.handleRooms)

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"self":   s.c.Self().ID,
		"acks":   s.c.AckStats(),
	})
}

func (s *Server) handlePeers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.c.Peers.All())
}

type roomView struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Group   string   `json:"multicast_addr"`
	Members []string `json:"members"`
	Created bool     `json:"created"`
}

func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	rooms := s.c.Rooms.All()
	out := make([]roomView, 0, len(rooms))
	for _, room := range rooms {
		view := roomView{
			ID:      room.ID.String(),
			Name:    room.Name,
			Group:   room.MulticastAddr.String(),
			Created: s.c.Rooms.IsCreated(room.ID),
		}
		for _, id := range room.MemberIDs() {
			view.Members = append(view.Members, id.String())
		}
		out = append(out, view)
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
