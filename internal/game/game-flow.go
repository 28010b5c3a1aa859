package game

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/scythe504/freezetag-backend/internal"
)

// =============================================================================
// GAME FLOW - MOVEMENT, FREEZE & UNFREEZE
// =============================================================================

// HandleMove applies a movement report. A client-supplied position is trusted but clamped to
// the world; without one the server steps the player along dx,dy for one send interval.
func (c *Coordinator) HandleMove(player *internal.Player, data internal.MoveData) error {
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
	if !player.CanMove() {
		// Pull the client back to where the server has it.
		sendTo(room, player, newMessage("playerMoved", internal.PlayerMovedData{
			PlayerId: player.Id,
			X:        player.X,
			Y:        player.Y,
		}))
		return invalidState("cannot move while " + string(player.State))
	}

	var x, y float64
	if data.X != nil && data.Y != nil {
		x, y = *data.X, *data.Y
	} else {
		nx, ny := internal.Normalize(data.Dx, data.Dy)
		step := player.Speed() * internal.MoveSendInterval.Seconds()
		x, y = player.X+nx*step, player.Y+ny*step
	}
	player.X, player.Y = internal.ClampToWorld(x, y)
	player.Dx, player.Dy = data.Dx, data.Dy

	SafeBroadcastToRoomExcept(room, newMessage("playerMoved", internal.PlayerMovedData{
		PlayerId: player.Id,
		Dx:       player.Dx,
		Dy:       player.Dy,
		X:        player.X,
		Y:        player.Y,
	}), player)
	return nil
}

// HandleFreeze starts freezing a runner. Distance is measured between the server's own
// positions, never the client's claim.
func (c *Coordinator) HandleFreeze(chaser *internal.Player, targetId string) error {
	room := chaser.Room
	if room == nil {
		return ErrNotInRoom
	}

	// --- Critical section ---
	room.Mu.Lock()
	defer room.Mu.Unlock()

	if err := requireRound(room, chaser); err != nil {
		return err
	}
	if chaser.Role != internal.RoleChaser {
		return invalidState("only the chaser can freeze")
	}
	if chaser.State != internal.StateNormal && chaser.State != internal.StateAttacking {
		return invalidState("cannot freeze while " + string(chaser.State))
	}

	target, ok := room.Players[targetId]
	if !ok {
		return ErrUnknownTarget
	}
	if !target.Freezable() {
		return invalidState("target cannot be frozen now")
	}
	if d := chaser.DistanceTo(target); d > internal.FreezeRange {
		log.Debug().
			Str("room", room.Id).
			Str("chaser", chaser.Id).
			Str("target", target.Id).
			Float64("distance", d).
			Msg("[HandleFreeze] target out of range")
		return invalidState("target out of range")
	}

	if chaser.State == internal.StateNormal {
		chaser.AttackSkill.Use()
		chaser.State = internal.StateAttacking
		chaser.StateTimer = internal.AttackDuration
	}

	// A rescuer caught mid-rescue drops it.
	target.RescueTarget = ""
	target.RescueProgress = 0
	target.State = internal.StateFreezing
	target.StateTimer = internal.FreezeDuration
	target.FrozenBy = chaser.Id
	target.Dx, target.Dy = 0, 0

	SafeBroadcastToRoom(room, newMessage("freeze", internal.FreezeData{
		TargetId:   target.Id,
		AttackerId: chaser.Id,
	}))

	log.Info().Str("room", room.Id).Str("chaser", chaser.Id).Str("target", target.Id).Msg("[HandleFreeze] freezing")
	return nil
}

// HandleUnfreeze lets the chaser call off a freeze it started, or lets a runner finish a
// rescue it has held long enough.
func (c *Coordinator) HandleUnfreeze(player *internal.Player, targetId string) error {
	room := player.Room
	if room == nil {
		return ErrNotInRoom
	}

	// --- Critical section ---
	room.Mu.Lock()
	defer room.Mu.Unlock()

	if err := requireRound(room, player); err != nil {
		return err
	}
	target, ok := room.Players[targetId]
	if !ok {
		return ErrUnknownTarget
	}

	switch player.Role {
	case internal.RoleChaser:
		if target.State != internal.StateFreezing || target.FrozenBy != player.Id {
			return invalidState("no pending freeze on target")
		}
		cancelFreeze(room, target, player)
		return nil

	case internal.RoleRunner:
		if target.Id == player.Id {
			return invalidState("cannot unfreeze yourself")
		}
		// The tick loop may have completed the hold already.
		if !target.IsFrozen() {
			return nil
		}
		if player.State != internal.StateUnfreezingTarget ||
			player.RescueTarget != target.Id ||
			player.RescueProgress < internal.RescueHold {
			return invalidState("rescue hold not complete")
		}
		thaw(room, target, player)
		return nil
	}
	return invalidState("no role assigned")
}

func requireRound(room *internal.Room, player *internal.Player) error {
	if room.Closed || player.Room != room {
		return ErrNotInRoom
	}
	if room.Phase != internal.PhaseInGame || room.Round == nil || room.Round.Ended {
		return invalidState("no round in progress")
	}
	return nil
}

// cancelFreeze puts a FREEZING target back to NORMAL. Caller holds room.Mu.
func cancelFreeze(room *internal.Room, target, chaser *internal.Player) {
	target.State = internal.StateNormal
	target.StateTimer = 0
	target.FrozenBy = ""

	SafeBroadcastToRoom(room, newMessage("unfreeze", internal.UnfreezeData{
		TargetId:   target.Id,
		UnfreezeId: chaser.Id,
	}))
	log.Info().Str("room", room.Id).Str("chaser", chaser.Id).Str("target", target.Id).Msg("[cancelFreeze] freeze called off")
}

// thaw starts FROZEN -> UNFREEZING for target and frees the rescuer. Caller holds room.Mu.
func thaw(room *internal.Room, target, rescuer *internal.Player) {
	target.State = internal.StateUnfreezing
	target.StateTimer = internal.UnfreezeDuration
	target.FrozenBy = ""

	rescuer.State = internal.StateNormal
	rescuer.RescueTarget = ""
	rescuer.RescueProgress = 0

	if room.Round != nil {
		room.Round.AllFrozenFor = 0
	}

	SafeBroadcastToRoom(room, newMessage("unfreeze", internal.UnfreezeData{
		TargetId:   target.Id,
		UnfreezeId: rescuer.Id,
	}))
	log.Info().Str("room", room.Id).Str("rescuer", rescuer.Id).Str("target", target.Id).Msg("[thaw] runner rescued")
}

// =============================================================================
// GAME FLOW - TICK
// =============================================================================

// Advance runs one simulation step of length dt. The tick loop calls it; tests drive it
// directly.
func (c *Coordinator) Advance(room *internal.Room, dt time.Duration) {
	room.Mu.Lock()
	defer room.Mu.Unlock()
	if room.Closed {
		return
	}
	c.advance(room, dt)
}

func (c *Coordinator) advance(room *internal.Room, dt time.Duration) {
	if room.Phase != internal.PhaseInGame || room.Round == nil {
		return
	}
	round := room.Round

	if round.Ended {
		round.ResetIn -= dt
		if round.ResetIn <= 0 {
			resetRoomToLobby(room)
		}
		return
	}

	round.Elapsed += dt
	players := room.OrderedPlayers()
	for _, p := range players {
		advancePlayer(p, dt)
	}
	for _, p := range players {
		if p.State == internal.StateUnfreezingTarget {
			advanceRescue(room, p, dt)
		}
	}

	// All-frozen is checked before the clock so it wins a same-tick tie.
	if room.AllRunnersFrozen() {
		round.AllFrozenFor += dt
		if round.AllFrozenFor >= internal.AllFrozenGrace {
			c.endRound(room, internal.RoleChaser, internal.EndAllFrozen)
			return
		}
	} else {
		round.AllFrozenFor = 0
	}

	round.TimeRemaining -= dt
	if round.TimeRemaining <= 0 {
		round.TimeRemaining = 0
		c.endRound(room, internal.RoleRunner, internal.EndTimeout)
		return
	}

	broadcastTimerUpdate(room)
}

// advancePlayer expires the timed states.
func advancePlayer(p *internal.Player, dt time.Duration) {
	p.UpdateSkills(dt)

	if p.StateTimer <= 0 {
		return
	}
	p.StateTimer -= dt
	if p.StateTimer > 0 {
		return
	}
	p.StateTimer = 0

	switch p.State {
	case internal.StateAttacking, internal.StateDashing, internal.StateUnfreezing:
		p.State = internal.StateNormal
	case internal.StateFreezing:
		p.State = internal.StateFrozen
	}
}

func advanceRescue(room *internal.Room, rescuer *internal.Player, dt time.Duration) {
	target := room.Players[rescuer.RescueTarget]
	if target == nil || !target.IsFrozen() || rescuer.DistanceTo(target) > internal.UnfreezeRange {
		targetId := rescuer.RescueTarget
		rescuer.State = internal.StateNormal
		rescuer.RescueTarget = ""
		rescuer.RescueProgress = 0

		SafeBroadcastToRoom(room, newMessage("skillUse", internal.SkillUsedData{
			PlayerId:  rescuer.Id,
			SkillType: internal.SkillUnfreezeCancel,
			TargetId:  targetId,
		}))
		return
	}

	rescuer.RescueProgress += dt
	if rescuer.RescueProgress >= internal.RescueHold {
		thaw(room, target, rescuer)
	}
}

// endRound is the single terminal transition of a round.
func (c *Coordinator) endRound(room *internal.Room, winner internal.Role, reason internal.EndReason) {
	round := room.Round
	if round == nil || round.Ended {
		return
	}
	round.Ended = true
	round.Winner = winner
	round.Reason = reason
	round.ResetIn = internal.ResetDelay

	for _, p := range room.OrderedPlayers() {
		result := "lose"
		if p.Role == winner {
			result = "win"
		}
		sendTo(room, p, newMessage("gameOver", internal.GameOverData{
			Winner: winner,
			Reason: reason,
			Result: result,
		}))
	}

	log.Info().
		Str("room", room.Id).
		Str("winner", string(winner)).
		Str("reason", string(reason)).
		Dur("elapsed", round.Elapsed).
		Msg("[endRound] round over")

	c.recordMatch(room)
}
