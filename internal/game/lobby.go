package game

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/scythe504/freezetag-backend/internal"
)

// =============================================================================
// GAME FLOW - LOBBY & INITIALIZATION
// =============================================================================

// HandlePlayerReady sets the ready flag in the lobby. Setting the same value twice is allowed
// and rebroadcast, so late joiners can resync.
func (c *Coordinator) HandlePlayerReady(player *internal.Player, ready bool) error {
	room := player.Room
	if room == nil {
		return ErrNotInRoom
	}

	// --- Critical section ---
	room.Mu.Lock()
	defer room.Mu.Unlock()

	if room.Closed || player.Room != room {
		return ErrNotInRoom
	}
	if room.Phase != internal.PhaseLobby {
		log.Debug().Str("room", room.Id).Str("player", player.Id).Msg("[HandlePlayerReady] not in lobby")
		return invalidState("ready is only allowed in the lobby")
	}

	player.IsReady = ready
	SafeBroadcastToRoom(room, newMessage("playerReady", internal.PlayerReadyData{
		PlayerId: player.Id,
		IsReady:  ready,
	}))

	log.Info().
		Str("room", room.Id).
		Str("player", player.Id).
		Bool("ready", ready).
		Msg("[HandlePlayerReady] ready updated")
	return nil
}

// StartGame moves the room from LOBBY to IN_GAME. An empty override falls back to the room's
// policy. Starting a room that is already in game does nothing.
func (c *Coordinator) StartGame(player *internal.Player, override internal.StartPolicy) error {
	room := player.Room
	if room == nil {
		return ErrNotInRoom
	}
	if override != "" && !override.Valid() {
		return malformed(fmt.Sprintf("unknown start policy %q", override))
	}

	// --- Critical section ---
	room.Mu.Lock()
	defer room.Mu.Unlock()

	if room.Closed || player.Room != room {
		return ErrNotInRoom
	}
	if room.HostId != player.Id {
		log.Info().Str("room", room.Id).Str("player", player.Id).Msg("[StartGame] non-host start rejected")
		return ErrNotHost
	}
	if room.Phase == internal.PhaseInGame {
		log.Debug().Str("room", room.Id).Msg("[StartGame] already in game, ignoring")
		return nil
	}
	if !room.CanStartGame() {
		log.Info().
			Str("room", room.Id).
			Int("players", room.GetPlayerCount()).
			Msg("[StartGame] not enough players")
		return invalidState(fmt.Sprintf("need at least %d players", internal.MinPlayersToStart))
	}

	policy := room.StartPolicy
	if override != "" {
		policy = override
	}
	if policy == internal.StartAllReady && !room.AreAllPlayersReady() {
		log.Info().Str("room", room.Id).Msg("[StartGame] not all players ready")
		return invalidState("not all players are ready")
	}

	ordered := room.OrderedPlayers()
	chaserId := c.roles.PickChaser(room.PlayerOrder)
	if _, ok := room.Players[chaserId]; !ok {
		chaserId = ordered[0].Id
	}

	roles := make(map[string]internal.Role, len(ordered))
	for i, p := range ordered {
		role := internal.RoleRunner
		if p.Id == chaserId {
			role = internal.RoleChaser
		}
		p.AssignRole(role)
		p.Dx, p.Dy = 0, 0
		p.X, p.Y = internal.SpawnPoint(i, len(ordered))
		roles[p.Id] = role
	}

	room.Phase = internal.PhaseInGame
	room.Round = &internal.GameRound{
		TimeRemaining: c.settings.RoundDuration,
		StartedAt:     c.clock(),
		LastAnnounced: int64(c.settings.RoundDuration.Seconds()),
	}

	SafeBroadcastToRoom(room, newMessage("gameStarted", internal.GameStartedData{
		Snapshot: internal.GameStartSnapshot{
			Roles:    roles,
			Players:  room.Snapshots(),
			Duration: int64(c.settings.RoundDuration.Seconds()),
		},
	}))

	c.StartPhaseTimer(room)

	log.Info().
		Str("room", room.Id).
		Str("chaser", chaserId).
		Int("players", len(ordered)).
		Str("policy", string(policy)).
		Msg("[StartGame] round started")
	return nil
}

// resetRoomToLobby returns a finished room to the waiting state. Caller holds room.Mu.
func resetRoomToLobby(room *internal.Room) {
	CancelPhaseTimer(room)

	room.Phase = internal.PhaseLobby
	room.Round = nil
	for i, p := range room.OrderedPlayers() {
		p.ResetRoundState()
		p.X, p.Y = internal.LobbySpawn(i)
	}

	SafeBroadcastToRoom(room, newMessage("lobbyReset", internal.LobbyResetData{
		RoomId:  room.Id,
		HostId:  room.HostId,
		Players: room.Snapshots(),
	}))

	log.Info().Str("room", room.Id).Int("players", len(room.Players)).Msg("[ResetRoomToLobby] room back in lobby")
}
