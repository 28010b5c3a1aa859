package internal

// Methods (Room Struct). Callers hold room.Mu.

func (r *Room) GetPlayerCount() int {
	return len(r.Players)
}

func (r *Room) CanStartGame() bool {
	return r.GetPlayerCount() >= MinPlayersToStart
}

// AreAllPlayersReady ignores the host, who starts the game instead of readying up.
func (r *Room) AreAllPlayersReady() bool {
	for id, player := range r.Players {
		if id != r.HostId && !player.IsReady {
			return false
		}
	}
	return true
}

func (r *Room) IsFull() bool {
	limit := r.MaxPlayers
	if limit <= 0 {
		limit = MaxPlayersPerRoom
	}
	return len(r.Players) >= limit
}

func (r *Room) OrderedPlayers() []*Player {
	players := make([]*Player, 0, len(r.PlayerOrder))
	for _, id := range r.PlayerOrder {
		if p, ok := r.Players[id]; ok {
			players = append(players, p)
		}
	}
	return players
}

func (r *Room) Snapshots() []PlayerSnapshot {
	out := make([]PlayerSnapshot, 0, len(r.Players))
	for _, p := range r.OrderedPlayers() {
		out = append(out, p.Snapshot())
	}
	return out
}

func (r *Room) Runners() []*Player {
	runners := make([]*Player, 0, len(r.Players))
	for _, p := range r.OrderedPlayers() {
		if p.Role == RoleRunner {
			runners = append(runners, p)
		}
	}
	return runners
}

func (r *Room) Chaser() *Player {
	for _, p := range r.OrderedPlayers() {
		if p.Role == RoleChaser {
			return p
		}
	}
	return nil
}

// AllRunnersFrozen is false when the room has no runners left.
func (r *Room) AllRunnersFrozen() bool {
	runners := r.Runners()
	if len(runners) == 0 {
		return false
	}
	for _, p := range runners {
		if !p.IsFrozen() {
			return false
		}
	}
	return true
}

func (r *Room) RemovePlayerFromOrder(playerId string) {
	for i, id := range r.PlayerOrder {
		if id == playerId {
			r.PlayerOrder = append(r.PlayerOrder[:i], r.PlayerOrder[i+1:]...)
			return
		}
	}
}

func (r *Room) IsLocked() bool {
	return r.PasswordHash != ""
}
