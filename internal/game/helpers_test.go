package game

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/scythe504/freezetag-backend/internal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST DOUBLES
// =============================================================================

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type mockConn struct {
	id       string
	received [][]byte
	closed   bool
	sendErr  error
	mu       sync.Mutex
}

func newMockConn(id string) *mockConn {
	return &mockConn{id: id}
}

func (m *mockConn) ID() string { return m.id }

func (m *mockConn) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.received = append(m.received, data)
	return nil
}

func (m *mockConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockConn) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *mockConn) frames(t *testing.T) []frame {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]frame, 0, len(m.received))
	for _, b := range m.received {
		var f frame
		require.NoError(t, json.Unmarshal(b, &f))
		out = append(out, f)
	}
	return out
}

func (m *mockConn) ofType(t *testing.T, msgType string) []frame {
	t.Helper()
	var out []frame
	for _, f := range m.frames(t) {
		if f.Type == msgType {
			out = append(out, f)
		}
	}
	return out
}

func (m *mockConn) types(t *testing.T) []string {
	t.Helper()
	var out []string
	for _, f := range m.frames(t) {
		out = append(out, f.Type)
	}
	return out
}

func (m *mockConn) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.received = nil
}

func payloadOf[T any](t *testing.T, f frame) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(f.Payload, &v))
	return v
}

// lastOf decodes the newest frame of msgType.
func lastOf[T any](t *testing.T, conn *mockConn, msgType string) T {
	t.Helper()
	frames := conn.ofType(t, msgType)
	require.NotEmpty(t, frames, "no %s frame received", msgType)
	return payloadOf[T](t, frames[len(frames)-1])
}

type fixedRoles struct {
	chaser string
}

func (f fixedRoles) PickChaser([]string) string { return f.chaser }

type stubTickers struct{}

// Create returns a channel that never fires; tests drive Advance themselves.
func (stubTickers) Create(time.Duration) (<-chan time.Time, func()) {
	return nil, func() {}
}

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "plain:" + password, nil }

func (plainHasher) Compare(hash, password string) (bool, error) {
	if len(hash) < 6 || hash[:6] != "plain:" {
		return false, errors.New("bad hash")
	}
	return hash[6:] == password, nil
}

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) RecordMatch(ctx context.Context, result internal.MatchResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

// =============================================================================
// FIXTURES
// =============================================================================

var testEpoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestCoordinator(t *testing.T, opts ...Option) *Coordinator {
	t.Helper()
	return newTestCoordinatorWith(t, DefaultSettings(), opts...)
}

func newTestCoordinatorWith(t *testing.T, settings Settings, opts ...Option) *Coordinator {
	t.Helper()
	base := []Option{
		WithRoleAssigner(fixedRoles{chaser: "Alice"}),
		WithTickerCreator(stubTickers{}),
		WithPasswordHasher(plainHasher{}),
		WithRecorder(NewMemoryRecorder(10)),
		WithClock(func() time.Time { return testEpoch }),
	}
	return NewCoordinator(settings, append(base, opts...)...)
}

type seat struct {
	player *internal.Player
	conn   *mockConn
}

func createRoom(t *testing.T, c *Coordinator, code, nick string) seat {
	t.Helper()
	conn := newMockConn("conn-" + nick)
	p, err := c.CreateRoom(conn, internal.CreateRoomData{Code: code, Nick: nick})
	require.NoError(t, err)
	return seat{player: p, conn: conn}
}

func joinRoom(t *testing.T, c *Coordinator, code, nick string) seat {
	t.Helper()
	conn := newMockConn("conn-" + nick)
	p, _, err := c.JoinRoom(conn, internal.JoinData{RoomId: code, PlayerId: nick})
	require.NoError(t, err)
	return seat{player: p, conn: conn}
}

// startedRoom returns a room in game with Alice as chaser and the rest as runners.
func startedRoom(t *testing.T, c *Coordinator, runners ...string) (*internal.Room, seat, []seat) {
	t.Helper()
	alice := createRoom(t, c, "ABCD", "Alice")
	seats := make([]seat, 0, len(runners))
	for _, nick := range runners {
		seats = append(seats, joinRoom(t, c, "ABCD", nick))
	}
	require.NoError(t, c.StartGame(alice.player, internal.StartUnconditional))

	alice.conn.reset()
	for _, s := range seats {
		s.conn.reset()
	}
	return alice.player.Room, alice, seats
}

func place(room *internal.Room, p *internal.Player, x, y float64) {
	room.Mu.Lock()
	defer room.Mu.Unlock()
	p.X, p.Y = x, y
}

func stateOf(room *internal.Room, p *internal.Player) internal.PlayerState {
	room.Mu.Lock()
	defer room.Mu.Unlock()
	return p.State
}

// advanceFor steps the room in 50ms ticks.
func advanceFor(c *Coordinator, room *internal.Room, d time.Duration) {
	const step = 50 * time.Millisecond
	for elapsed := time.Duration(0); elapsed < d; elapsed += step {
		c.Advance(room, step)
	}
}

// freezeSolid freezes target and runs the clock until it is FROZEN.
func freezeSolid(t *testing.T, c *Coordinator, room *internal.Room, chaser, target *internal.Player) {
	t.Helper()
	place(room, target, chaser.X+50, chaser.Y)
	require.NoError(t, c.HandleFreeze(chaser, target.Id))
	advanceFor(c, room, internal.FreezeDuration)
	require.Equal(t, internal.StateFrozen, stateOf(room, target))
}
