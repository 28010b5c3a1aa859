package game

import (
	"testing"
	"time"

	"github.com/scythe504/freezetag-backend/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlePlayerReady(t *testing.T) {
	c := newTestCoordinator(t)
	alice := createRoom(t, c, "ABCD", "Alice")
	bob := joinRoom(t, c, "ABCD", "Bob")

	require.NoError(t, c.HandlePlayerReady(bob.player, true))
	require.NoError(t, c.HandlePlayerReady(bob.player, true))

	assert.True(t, bob.player.IsReady)
	for _, s := range []seat{alice, bob} {
		frames := s.conn.ofType(t, "playerReady")
		require.Len(t, frames, 2, "sender is included in ready broadcasts")
		assert.Equal(t, internal.PlayerReadyData{PlayerId: "Bob", IsReady: true}, payloadOf[internal.PlayerReadyData](t, frames[1]))
	}

	require.NoError(t, c.HandlePlayerReady(bob.player, false))
	assert.False(t, bob.player.IsReady)
}

func TestHandlePlayerReadyOutsideLobby(t *testing.T) {
	c := newTestCoordinator(t)
	_, _, runners := startedRoom(t, c, "Bob")

	err := c.HandlePlayerReady(runners[0].player, true)

	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Empty(t, runners[0].conn.ofType(t, "playerReady"))
}

// Alice creates ABCD, Bob joins, Alice starts unconditionally: both see one chaser and one
// runner.
func TestStartGameScenario(t *testing.T) {
	c := NewCoordinator(DefaultSettings(), WithTickerCreator(stubTickers{}), WithPasswordHasher(plainHasher{}))
	alice := createRoom(t, c, "ABCD", "Alice")
	bob := joinRoom(t, c, "ABCD", "Bob")

	require.NoError(t, c.StartGame(alice.player, internal.StartUnconditional))

	var seen map[string]internal.Role
	for _, s := range []seat{alice, bob} {
		frames := s.conn.ofType(t, "gameStarted")
		require.Len(t, frames, 1)
		started := payloadOf[internal.GameStartedData](t, frames[0])

		roles := started.Snapshot.Roles
		require.Len(t, roles, 2)
		counts := map[internal.Role]int{}
		for _, r := range roles {
			counts[r]++
		}
		assert.Equal(t, 1, counts[internal.RoleChaser])
		assert.Equal(t, 1, counts[internal.RoleRunner])
		assert.Contains(t, roles, "Alice")
		assert.Contains(t, roles, "Bob")
		assert.Equal(t, int64(180), started.Snapshot.Duration)
		assert.Len(t, started.Snapshot.Players, 2)

		if seen == nil {
			seen = roles
		} else {
			assert.Equal(t, seen, roles, "every member sees the same roles")
		}
	}

	room := alice.player.Room
	assert.Equal(t, internal.PhaseInGame, room.Phase)
	require.NotNil(t, room.Round)
	assert.Equal(t, 180*time.Second, room.Round.TimeRemaining)
	assert.True(t, room.Timer.IsActive)
}

func TestStartGameAssignsSkills(t *testing.T) {
	c := newTestCoordinator(t)
	room, alice, runners := startedRoom(t, c, "Bob", "Carol")

	assert.Equal(t, internal.RoleChaser, alice.player.Role)
	assert.NotNil(t, alice.player.AttackSkill)
	assert.Nil(t, alice.player.FogSkill)
	for _, s := range runners {
		assert.Equal(t, internal.RoleRunner, s.player.Role)
		assert.NotNil(t, s.player.FogSkill)
		assert.NotNil(t, s.player.DashSkill)
		assert.Equal(t, internal.StateNormal, s.player.State)
	}
	assert.Equal(t, alice.player, room.Chaser())
	assert.Len(t, room.Runners(), 2)
}

func TestStartGameRejections(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, c *Coordinator) *internal.Player
		policy  internal.StartPolicy
		wantErr error
	}{
		{
			name: "not host",
			setup: func(t *testing.T, c *Coordinator) *internal.Player {
				createRoom(t, c, "ABCD", "Alice")
				return joinRoom(t, c, "ABCD", "Bob").player
			},
			policy:  internal.StartUnconditional,
			wantErr: ErrNotHost,
		},
		{
			name: "alone",
			setup: func(t *testing.T, c *Coordinator) *internal.Player {
				return createRoom(t, c, "ABCD", "Alice").player
			},
			policy:  internal.StartUnconditional,
			wantErr: ErrInvalidState,
		},
		{
			name: "guest not ready",
			setup: func(t *testing.T, c *Coordinator) *internal.Player {
				alice := createRoom(t, c, "ABCD", "Alice")
				joinRoom(t, c, "ABCD", "Bob")
				return alice.player
			},
			wantErr: ErrInvalidState,
		},
		{
			name: "unknown policy",
			setup: func(t *testing.T, c *Coordinator) *internal.Player {
				alice := createRoom(t, c, "ABCD", "Alice")
				joinRoom(t, c, "ABCD", "Bob")
				return alice.player
			},
			policy:  "whenever",
			wantErr: ErrMalformedMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCoordinator(t)
			requester := tt.setup(t, c)

			err := c.StartGame(requester, tt.policy)

			assert.ErrorIs(t, err, tt.wantErr)
			room := requester.Room
			assert.Equal(t, internal.PhaseLobby, room.Phase)
			assert.Nil(t, room.Round)
			for _, p := range room.Players {
				assert.Empty(t, p.Conn.(*mockConn).ofType(t, "gameStarted"))
			}
		})
	}
}

func TestStartGameAllReady(t *testing.T) {
	c := newTestCoordinator(t)
	alice := createRoom(t, c, "ABCD", "Alice")
	bob := joinRoom(t, c, "ABCD", "Bob")

	require.ErrorIs(t, c.StartGame(alice.player, ""), ErrInvalidState)
	require.NoError(t, c.HandlePlayerReady(bob.player, true))
	require.NoError(t, c.StartGame(alice.player, ""))

	assert.Len(t, bob.conn.ofType(t, "gameStarted"), 1)
}

func TestStartGameRoomPolicy(t *testing.T) {
	c := newTestCoordinator(t)
	conn := newMockConn("a")
	alice, err := c.CreateRoom(conn, internal.CreateRoomData{Code: "ABCD", Nick: "Alice", StartPolicy: internal.StartUnconditional})
	require.NoError(t, err)
	joinRoom(t, c, "ABCD", "Bob")

	require.NoError(t, c.StartGame(alice, ""))
	assert.Equal(t, internal.PhaseInGame, alice.Room.Phase)
}

func TestStartGameTwiceIsNoop(t *testing.T) {
	c := newTestCoordinator(t)
	alice := createRoom(t, c, "ABCD", "Alice")
	bob := joinRoom(t, c, "ABCD", "Bob")

	require.NoError(t, c.StartGame(alice.player, internal.StartUnconditional))
	timer := alice.player.Room.Timer
	require.NoError(t, c.StartGame(alice.player, internal.StartUnconditional))

	assert.Len(t, alice.conn.ofType(t, "gameStarted"), 1)
	assert.Len(t, bob.conn.ofType(t, "gameStarted"), 1)
	assert.Same(t, timer, alice.player.Room.Timer, "second start must not restart the clock")
}

func TestResetRoomToLobbyAfterGameOver(t *testing.T) {
	settings := DefaultSettings()
	settings.RoundDuration = time.Second
	c := newTestCoordinatorWith(t, settings)
	room, alice, runners := startedRoom(t, c, "Bob")
	bob := runners[0]
	timer := room.Timer

	advanceFor(c, room, time.Second)
	require.True(t, room.Round.Ended)
	assert.Empty(t, bob.conn.ofType(t, "lobbyReset"))

	advanceFor(c, room, internal.ResetDelay)

	assert.Equal(t, internal.PhaseLobby, room.Phase)
	assert.Nil(t, room.Round)
	assert.False(t, timer.IsActive)
	for _, s := range []seat{alice, bob} {
		assert.Empty(t, s.player.Role)
		assert.False(t, s.player.IsReady)
		assert.Equal(t, internal.StateNormal, s.player.State)

		reset := lastOf[internal.LobbyResetData](t, s.conn, "lobbyReset")
		assert.Equal(t, "ABCD", reset.RoomId)
		assert.Equal(t, "Alice", reset.HostId)
		assert.Len(t, reset.Players, 2)
	}

	// The room can be started again and a new player can join first.
	carol := joinRoom(t, c, "ABCD", "Carol")
	require.NoError(t, c.StartGame(alice.player, internal.StartUnconditional))
	assert.Len(t, carol.conn.ofType(t, "gameStarted"), 1)
}
