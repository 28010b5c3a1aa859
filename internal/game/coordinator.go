package game

import (
	"context"
	"math/rand/v2"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/scythe504/freezetag-backend/internal"
	"github.com/scythe504/freezetag-backend/internal/crypto"
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// RoleAssigner picks the chaser for a new round from the players in join order.
type RoleAssigner interface {
	PickChaser(playerIds []string) string
}

type randomRoles struct{}

func (randomRoles) PickChaser(playerIds []string) string {
	if len(playerIds) == 0 {
		return ""
	}
	return playerIds[rand.IntN(len(playerIds))]
}

// MatchRecorder persists finished rounds.
type MatchRecorder interface {
	RecordMatch(ctx context.Context, result internal.MatchResult) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) (bool, error)
}

// PeriodicTickerChannelCreator hands out tick channels; stop releases the ticker.
type PeriodicTickerChannelCreator interface {
	Create(interval time.Duration) (ticks <-chan time.Time, stop func())
}

type tickerGen struct{}

func (tickerGen) Create(interval time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(interval)
	return t.C, t.Stop
}

// =============================================================================
// COORDINATOR
// =============================================================================

type Settings struct {
	TickRate       int
	RoundDuration  time.Duration
	StartPolicy    internal.StartPolicy
	MaxPlayers     int
	MessageRate    float64
	MessageBurst   int
	AllowedOrigins []string
}

func DefaultSettings() Settings {
	return Settings{
		TickRate:       internal.DefaultTickRate,
		RoundDuration:  internal.RoundDuration,
		StartPolicy:    internal.StartAllReady,
		MaxPlayers:     internal.MaxPlayersPerRoom,
		MessageRate:    60,
		MessageBurst:   30,
		AllowedOrigins: []string{"*"},
	}
}

func (s Settings) TickInterval() time.Duration {
	if s.TickRate <= 0 {
		return time.Second / internal.DefaultTickRate
	}
	return time.Second / time.Duration(s.TickRate)
}

// Coordinator owns the room registry. Each room is mutated only under its own Mu; the
// registry map has its own lock.
type Coordinator struct {
	settings Settings
	roles    RoleAssigner
	recorder MatchRecorder
	hasher   PasswordHasher
	tickers  PeriodicTickerChannelCreator
	clock    func() time.Time
	upgrader websocket.Upgrader

	rooms   map[string]*internal.Room
	roomsMu sync.RWMutex
}

type Option func(*Coordinator)

func WithRoleAssigner(r RoleAssigner) Option {
	return func(c *Coordinator) { c.roles = r }
}

func WithRecorder(r MatchRecorder) Option {
	return func(c *Coordinator) { c.recorder = r }
}

func WithPasswordHasher(h PasswordHasher) Option {
	return func(c *Coordinator) { c.hasher = h }
}

func WithTickerCreator(t PeriodicTickerChannelCreator) Option {
	return func(c *Coordinator) { c.tickers = t }
}

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.clock = now }
}

func NewCoordinator(settings Settings, opts ...Option) *Coordinator {
	if !settings.StartPolicy.Valid() {
		settings.StartPolicy = internal.StartAllReady
	}
	if settings.MaxPlayers < internal.MinPlayersToStart {
		settings.MaxPlayers = internal.MaxPlayersPerRoom
	}
	if settings.RoundDuration <= 0 {
		settings.RoundDuration = internal.RoundDuration
	}

	c := &Coordinator{
		settings: settings,
		roles:    randomRoles{},
		recorder: NewMemoryRecorder(100),
		hasher:   crypto.NewRoomPasswordHasher(),
		tickers:  tickerGen{},
		clock:    time.Now,
		rooms:    make(map[string]*internal.Room),
	}
	c.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     c.checkOrigin,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) Settings() Settings {
	return c.settings
}

// checkOrigin lets native clients (no Origin header) through and matches browsers against
// the allow list.
func (c *Coordinator) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || slices.Contains(c.settings.AllowedOrigins, "*") {
		return true
	}
	return slices.Contains(c.settings.AllowedOrigins, origin)
}
