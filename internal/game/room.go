package game

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/scythe504/freezetag-backend/internal"
	"github.com/scythe504/freezetag-backend/internal/utils"
)

// =============================================================================
// ROOM MANAGEMENT
// =============================================================================

type RoomListing struct {
	Code    string             `json:"code"`
	Title   string             `json:"title"`
	Players int                `json:"players"`
	Phase   internal.GamePhase `json:"phase"`
	Locked  bool               `json:"locked"`
}

type Stats struct {
	Rooms   int `json:"rooms"`
	Players int `json:"players"`
}

func (c *Coordinator) getRoom(code string) *internal.Room {
	c.roomsMu.RLock()
	defer c.roomsMu.RUnlock()
	return c.rooms[code]
}

func (c *Coordinator) snapshotRooms() []*internal.Room {
	c.roomsMu.RLock()
	defer c.roomsMu.RUnlock()
	rooms := make([]*internal.Room, 0, len(c.rooms))
	for _, r := range c.rooms {
		rooms = append(rooms, r)
	}
	return rooms
}

// CreateRoom registers a new room under a client-chosen code and seats the creator as host.
func (c *Coordinator) CreateRoom(conn internal.Conn, data internal.CreateRoomData) (*internal.Player, error) {
	code := utils.NormalizeRoomCode(data.Code)
	nick := utils.NormalizeName(data.PlayerName())
	if err := utils.ValidateRoomCode(code); err != nil {
		return nil, malformed(err.Error())
	}
	if err := utils.ValidateName(nick); err != nil {
		return nil, malformed(err.Error())
	}

	policy := data.StartPolicy
	if policy == "" {
		policy = c.settings.StartPolicy
	}
	if !policy.Valid() {
		return nil, malformed(fmt.Sprintf("unknown start policy %q", policy))
	}

	// Hashing is slow, keep it outside every lock.
	passwordHash := ""
	if data.Password != "" {
		hash, err := c.hasher.Hash(data.Password)
		if err != nil {
			log.Error().Err(err).Str("room", code).Msg("[CreateRoom] password hashing failed")
			return nil, fmt.Errorf("hash room password: %w", err)
		}
		passwordHash = hash
	}

	player := internal.NewPlayer(nick, conn)
	player.X, player.Y = internal.LobbySpawn(0)

	title := data.Title
	if title == "" {
		title = code
	}
	room := &internal.Room{
		Id:           code,
		Title:        title,
		PasswordHash: passwordHash,
		HostId:       nick,
		Phase:        internal.PhaseLobby,
		StartPolicy:  policy,
		MaxPlayers:   c.settings.MaxPlayers,
		Players:      map[string]*internal.Player{nick: player},
		PlayerOrder:  []string{nick},
	}

	c.roomsMu.Lock()
	if _, exists := c.rooms[code]; exists {
		c.roomsMu.Unlock()
		log.Info().Str("room", code).Str("player", nick).Msg("[CreateRoom] code already in use")
		return nil, ErrCodeTaken
	}
	player.Room = room
	c.rooms[code] = room
	c.roomsMu.Unlock()

	room.Mu.Lock()
	sendTo(room, player, newMessage("roomCreated", internal.RoomCreatedData{
		Ok:     true,
		RoomId: room.Id,
		Data:   internal.RoomInfo{Code: room.Id, Name: room.Title},
	}))
	room.Mu.Unlock()

	log.Info().
		Str("room", code).
		Str("host", nick).
		Bool("locked", passwordHash != "").
		Str("policy", string(policy)).
		Msg("[CreateRoom] room created")
	return player, nil
}

// JoinRoom seats a player in a lobby and returns the snapshot that was sent to it.
func (c *Coordinator) JoinRoom(conn internal.Conn, data internal.JoinData) (*internal.Player, internal.RoomSnapshot, error) {
	code := utils.NormalizeRoomCode(data.RoomCode())
	nick := utils.NormalizeName(data.PlayerName())
	if err := utils.ValidateName(nick); err != nil {
		return nil, internal.RoomSnapshot{}, malformed(err.Error())
	}

	room := c.getRoom(code)
	if room == nil {
		return nil, internal.RoomSnapshot{}, ErrRoomNotFound
	}

	// PasswordHash never changes after the room is published.
	if room.PasswordHash != "" {
		ok, err := c.hasher.Compare(room.PasswordHash, data.Password)
		if err != nil {
			log.Error().Err(err).Str("room", code).Msg("[JoinRoom] password check failed")
			return nil, internal.RoomSnapshot{}, fmt.Errorf("compare room password: %w", err)
		}
		if !ok {
			log.Info().Str("room", code).Str("player", nick).Msg("[JoinRoom] bad password")
			return nil, internal.RoomSnapshot{}, ErrBadPassword
		}
	}

	// --- Critical section ---
	room.Mu.Lock()
	defer room.Mu.Unlock()

	switch {
	case room.Closed:
		return nil, internal.RoomSnapshot{}, ErrRoomNotFound
	case room.Phase != internal.PhaseLobby:
		return nil, internal.RoomSnapshot{}, invalidState("game already in progress")
	case room.IsFull():
		return nil, internal.RoomSnapshot{}, ErrRoomFull
	}
	if _, taken := room.Players[nick]; taken {
		return nil, internal.RoomSnapshot{}, ErrNickTaken
	}

	player := internal.NewPlayer(nick, conn)
	player.Room = room
	player.X, player.Y = internal.LobbySpawn(len(room.PlayerOrder))
	room.Players[nick] = player
	room.PlayerOrder = append(room.PlayerOrder, nick)

	SafeBroadcastToRoomExcept(room, newMessage("playerJoined", internal.PlayerJoinedData{
		PlayerId: player.Id,
		X:        player.X,
		Y:        player.Y,
	}), player)

	snapshot := roomSnapshot(room)
	sendTo(room, player, newMessage("roomJoined", snapshot))

	log.Info().
		Str("room", room.Id).
		Str("player", nick).
		Int("players", len(room.Players)).
		Msg("[JoinRoom] player joined")
	return player, snapshot, nil
}

func roomSnapshot(room *internal.Room) internal.RoomSnapshot {
	return internal.RoomSnapshot{
		Ok:          true,
		RoomId:      room.Id,
		Title:       room.Title,
		HostId:      room.HostId,
		Phase:       room.Phase,
		StartPolicy: room.StartPolicy,
		Players:     room.Snapshots(),
	}
}

// LeaveRoom removes the player from its room. Leaving twice is a no-op.
func (c *Coordinator) LeaveRoom(player *internal.Player) {
	room := player.Room
	if room == nil {
		return
	}

	// --- Critical section ---
	room.Mu.Lock()
	player.Room = nil
	if room.Closed {
		room.Mu.Unlock()
		return
	}

	delete(room.Players, player.Id)
	room.RemovePlayerFromOrder(player.Id)
	remaining := len(room.Players)

	if remaining == 0 {
		room.Closed = true
		CancelPhaseTimer(room)
		room.Mu.Unlock()

		c.unregisterRoom(room)
		log.Info().Str("room", room.Id).Str("player", player.Id).Msg("[LeaveRoom] last player left, room removed")
		return
	}

	newHost := ""
	if room.HostId == player.Id {
		room.HostId = room.PlayerOrder[0]
		newHost = room.HostId
	}

	SafeBroadcastToRoom(room, newMessage("playerLeft", internal.PlayerLeftData{
		PlayerId: player.Id,
		NewHost:  newHost,
	}))

	log.Info().
		Str("room", room.Id).
		Str("player", player.Id).
		Str("phase", string(room.Phase)).
		Int("remaining", remaining).
		Str("newHost", newHost).
		Msg("[LeaveRoom] player left")
	room.Mu.Unlock()
}

func (c *Coordinator) unregisterRoom(room *internal.Room) {
	c.roomsMu.Lock()
	defer c.roomsMu.Unlock()
	if current, ok := c.rooms[room.Id]; ok && current == room {
		delete(c.rooms, room.Id)
	}
}

// CleanupRoom tears a room down and closes every member connection. Used when a room's own
// state can no longer be trusted; other rooms are unaffected.
func (c *Coordinator) CleanupRoom(room *internal.Room) {
	log.Warn().Str("room", room.Id).Msg("[CleanupRoom] tearing down room")

	room.Mu.Lock()
	if room.Closed {
		room.Mu.Unlock()
		return
	}
	room.Closed = true
	CancelPhaseTimer(room)
	for _, player := range room.Players {
		if player.Conn != nil {
			if err := player.Conn.Close(); err != nil {
				log.Warn().Err(err).Str("room", room.Id).Str("player", player.Id).Msg("[CleanupRoom] close failed")
			}
		}
	}
	room.Mu.Unlock()

	c.unregisterRoom(room)
}

func (c *Coordinator) ListRooms() []RoomListing {
	rooms := c.snapshotRooms()
	out := make([]RoomListing, 0, len(rooms))
	for _, room := range rooms {
		room.Mu.Lock()
		if !room.Closed {
			out = append(out, RoomListing{
				Code:    room.Id,
				Title:   room.Title,
				Players: len(room.Players),
				Phase:   room.Phase,
				Locked:  room.IsLocked(),
			})
		}
		room.Mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func (c *Coordinator) Stats() Stats {
	var s Stats
	for _, room := range c.snapshotRooms() {
		room.Mu.Lock()
		if !room.Closed {
			s.Rooms++
			s.Players += len(room.Players)
		}
		room.Mu.Unlock()
	}
	return s
}

// Room returns a live room by code, mainly for the HTTP layer and tests.
func (c *Coordinator) Room(code string) *internal.Room {
	return c.getRoom(utils.NormalizeRoomCode(code))
}
