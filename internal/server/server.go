package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/scythe504/freezetag-backend/internal"
	"github.com/scythe504/freezetag-backend/internal/game"
)

// MatchHistory serves /matches. Both the in-memory recorder and the database implement it.
type MatchHistory interface {
	RecentMatches(ctx context.Context, limit int) ([]internal.MatchResult, error)
}

// HealthChecker reports the state of the backing store; nil means no database.
type HealthChecker interface {
	Health(ctx context.Context) map[string]string
}

type Server struct {
	port           string
	coordinator    *game.Coordinator
	matches        MatchHistory
	health         HealthChecker
	allowedOrigins []string
}

func New(port string, coordinator *game.Coordinator, matches MatchHistory, health HealthChecker, allowedOrigins []string) *Server {
	return &Server{
		port:           port,
		coordinator:    coordinator,
		matches:        matches,
		health:         health,
		allowedOrigins: allowedOrigins,
	}
}

// HTTPServer builds the listener. WriteTimeout is left unset because /ws connections live
// for the whole session.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%s", s.port),
		Handler:           s.RegisterRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       time.Minute,
	}
}
