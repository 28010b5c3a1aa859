package server

import (
	"encoding/json"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/scythe504/freezetag-backend/internal"
	"github.com/scythe504/freezetag-backend/internal/utils"
)

const (
	defaultMatchLimit = 20
	maxMatchLimit     = 100
)

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	// Apply CORS middleware
	r.Use(s.corsMiddleware)

	r.HandleFunc("/", s.HelloWorldHandler).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/health", s.HealthHandler).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/rooms", s.ListRoomsHandler).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/stats", s.StatsHandler).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/matches", s.MatchesHandler).Methods(http.MethodGet, http.MethodOptions)

	r.HandleFunc("/ws", s.coordinator.HandleWebSocket)

	return r
}

// CORS middleware
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Websocket origins are checked by the upgrader.
		if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			next.ServeHTTP(w, r)
			return
		}

		origin := r.Header.Get("Origin")
		switch {
		case slices.Contains(s.allowedOrigins, "*"):
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && slices.Contains(s.allowedOrigins, origin):
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type")
		w.Header().Set("Access-Control-Allow-Credentials", "false")

		// Handle preflight OPTIONS requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("[writeJSON] error encoding response")
	}
}

func (s *Server) HelloWorldHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Hello World"})
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "up", "database": "disabled"})
		return
	}
	stats := s.health.Health(r.Context())
	status := http.StatusOK
	if stats["status"] != "up" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, stats)
}

func (s *Server) ListRoomsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"rooms": s.coordinator.ListRooms()})
}

func (s *Server) StatsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.coordinator.Stats())
}

type matchResponse struct {
	Id         string             `json:"id"`
	RoomId     string             `json:"roomId"`
	Winner     internal.Role      `json:"winner"`
	Reason     internal.EndReason `json:"reason"`
	ChaserId   string             `json:"chaserId"`
	RunnerIds  []string           `json:"runnerIds"`
	Frozen     int                `json:"frozen"`
	DurationMs int64              `json:"durationMs"`
	StartedAt  time.Time          `json:"startedAt"`
	EndedAt    time.Time          `json:"endedAt"`
}

func (s *Server) MatchesHandler(w http.ResponseWriter, r *http.Request) {
	limit := utils.ParseLimit(r.URL.Query().Get("limit"), defaultMatchLimit, maxMatchLimit)

	matches, err := s.matches.RecentMatches(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("[MatchesHandler] failed to load matches")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not load matches"})
		return
	}

	out := make([]matchResponse, 0, len(matches))
	for _, m := range matches {
		out = append(out, matchResponse{
			Id:         m.Id,
			RoomId:     m.RoomId,
			Winner:     m.Winner,
			Reason:     m.Reason,
			ChaserId:   m.ChaserId,
			RunnerIds:  m.RunnerIds,
			Frozen:     m.Frozen,
			DurationMs: m.Duration.Milliseconds(),
			StartedAt:  m.StartedAt,
			EndedAt:    m.EndedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"matches": out})
}
