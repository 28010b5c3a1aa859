package game

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/scythe504/freezetag-backend/internal"
)

// =============================================================================
// SKILLS
// =============================================================================

// HandleSkillUse validates a skill against the server-side cooldowns. Rejections go to the
// sender only; accepted skills are broadcast to the whole room.
func (c *Coordinator) HandleSkillUse(player *internal.Player, data internal.SkillUseData) error {
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

	var err error
	targetId := ""
	switch data.SkillType {
	case internal.SkillAttack:
		err = useAttack(player)
	case internal.SkillAttackCancel:
		err = cancelAttack(player)
		if err == nil {
			// skillUse goes out before the unfreezes it caused.
			broadcastSkill(room, player, data.SkillType, "")
			releaseFreezes(room, player)
			return nil
		}
	case internal.SkillFog:
		err = useFog(player)
	case internal.SkillDash:
		err = useDash(player)
	case internal.SkillUnfreezeStart:
		err = startRescue(room, player, data.TargetId)
		targetId = data.TargetId
	case internal.SkillUnfreezeCancel:
		targetId = player.RescueTarget
		err = cancelRescue(player)
	default:
		return malformed(fmt.Sprintf("unknown skill %q", data.SkillType))
	}
	if err != nil {
		log.Debug().
			Err(err).
			Str("room", room.Id).
			Str("player", player.Id).
			Str("skill", string(data.SkillType)).
			Msg("[HandleSkillUse] rejected")
		return err
	}

	broadcastSkill(room, player, data.SkillType, targetId)
	return nil
}

func broadcastSkill(room *internal.Room, player *internal.Player, skill internal.SkillType, targetId string) {
	SafeBroadcastToRoom(room, newMessage("skillUse", internal.SkillUsedData{
		PlayerId:  player.Id,
		SkillType: skill,
		TargetId:  targetId,
	}))
}

func useAttack(p *internal.Player) error {
	if p.Role != internal.RoleChaser {
		return invalidState("only the chaser can attack")
	}
	if p.State != internal.StateNormal {
		return invalidState("cannot attack while " + string(p.State))
	}
	if !p.AttackSkill.Use() {
		return invalidState("attack not ready")
	}
	p.State = internal.StateAttacking
	p.StateTimer = internal.AttackDuration
	return nil
}

func cancelAttack(p *internal.Player) error {
	if p.Role != internal.RoleChaser {
		return invalidState("only the chaser can cancel an attack")
	}
	if p.State != internal.StateAttacking {
		return invalidState("not attacking")
	}
	p.AttackSkill.Reset()
	p.State = internal.StateNormal
	p.StateTimer = 0
	return nil
}

// releaseFreezes calls off every freeze this chaser still has pending.
func releaseFreezes(room *internal.Room, chaser *internal.Player) {
	for _, p := range room.OrderedPlayers() {
		if p.State == internal.StateFreezing && p.FrozenBy == chaser.Id {
			cancelFreeze(room, p, chaser)
		}
	}
}

func useFog(p *internal.Player) error {
	if p.Role != internal.RoleRunner {
		return invalidState("only runners can use fog")
	}
	if !p.CanMove() {
		return invalidState("cannot use fog while " + string(p.State))
	}
	if !p.FogSkill.Use() {
		return invalidState("fog on cooldown")
	}
	return nil
}

func useDash(p *internal.Player) error {
	if p.Role != internal.RoleRunner {
		return invalidState("only runners can dash")
	}
	if p.State != internal.StateNormal {
		return invalidState("cannot dash while " + string(p.State))
	}
	if !p.DashSkill.Use() {
		return invalidState("dash on cooldown")
	}
	p.State = internal.StateDashing
	p.StateTimer = internal.DashDuration
	return nil
}

func startRescue(room *internal.Room, p *internal.Player, targetId string) error {
	if p.Role != internal.RoleRunner {
		return invalidState("only runners can unfreeze")
	}
	if p.State != internal.StateNormal {
		return invalidState("cannot unfreeze while " + string(p.State))
	}
	target, ok := room.Players[targetId]
	if !ok {
		return ErrUnknownTarget
	}
	if target.Id == p.Id || target.Role != internal.RoleRunner || !target.IsFrozen() {
		return invalidState("target is not a frozen runner")
	}
	if p.DistanceTo(target) > internal.UnfreezeRange {
		return invalidState("target out of range")
	}

	p.State = internal.StateUnfreezingTarget
	p.RescueTarget = target.Id
	p.RescueProgress = 0
	p.Dx, p.Dy = 0, 0
	return nil
}

func cancelRescue(p *internal.Player) error {
	if p.Role != internal.RoleRunner || p.State != internal.StateUnfreezingTarget {
		return invalidState("not unfreezing anyone")
	}
	p.State = internal.StateNormal
	p.RescueTarget = ""
	p.RescueProgress = 0
	return nil
}
