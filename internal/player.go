package internal

import "time"

// Skill tracks one cooldown/active window pair. A skill can be used only when its cooldown has
// run out and it is not still active.
type Skill struct {
	Cooldown time.Duration
	Duration time.Duration

	remainingCooldown time.Duration
	activeFor         time.Duration
}

func NewSkill(cooldown, duration time.Duration) *Skill {
	return &Skill{Cooldown: cooldown, Duration: duration}
}

func (s *Skill) Update(dt time.Duration) {
	if s.remainingCooldown > 0 {
		s.remainingCooldown = max(s.remainingCooldown-dt, 0)
	}
	if s.activeFor > 0 {
		s.activeFor = max(s.activeFor-dt, 0)
	}
}

func (s *Skill) CanUse() bool {
	return s.remainingCooldown <= 0 && s.activeFor <= 0
}

// Use starts the skill and reports whether it was usable.
func (s *Skill) Use() bool {
	if !s.CanUse() {
		return false
	}
	s.remainingCooldown = s.Cooldown
	s.activeFor = s.Duration
	return true
}

func (s *Skill) IsActive() bool                   { return s.activeFor > 0 }
func (s *Skill) RemainingCooldown() time.Duration { return s.remainingCooldown }

func (s *Skill) Reset() {
	s.remainingCooldown = 0
	s.activeFor = 0
}

func NewPlayer(id string, conn Conn) *Player {
	return &Player{
		Id:       id,
		Conn:     conn,
		JoinedAt: time.Now(),
		State:    StateNormal,
	}
}

// AssignRole sets the role and the matching skill set.
func (p *Player) AssignRole(role Role) {
	p.Role = role
	p.State = StateNormal
	p.StateTimer = 0
	p.RescueTarget = ""
	p.RescueProgress = 0
	p.FrozenBy = ""
	p.FogSkill, p.DashSkill, p.AttackSkill = nil, nil, nil
	switch role {
	case RoleRunner:
		p.FogSkill = NewSkill(FogCooldown, FogDuration)
		p.DashSkill = NewSkill(DashCooldown, DashDuration)
	case RoleChaser:
		p.AttackSkill = NewSkill(0, AttackDuration)
	}
}

// ResetRoundState returns the player to its lobby shape.
func (p *Player) ResetRoundState() {
	p.IsReady = false
	p.Role = ""
	p.State = StateNormal
	p.StateTimer = 0
	p.Dx, p.Dy = 0, 0
	p.RescueTarget = ""
	p.RescueProgress = 0
	p.FrozenBy = ""
	p.FogSkill, p.DashSkill, p.AttackSkill = nil, nil, nil
}

func (p *Player) CanMove() bool {
	return p.State == StateNormal || p.State == StateDashing
}

func (p *Player) IsFrozen() bool {
	return p.State == StateFrozen
}

// Freezable reports whether a chaser may start freezing this player.
func (p *Player) Freezable() bool {
	if p.Role != RoleRunner {
		return false
	}
	switch p.State {
	case StateNormal, StateDashing, StateUnfreezingTarget:
		return true
	}
	return false
}

func (p *Player) Speed() float64 {
	if p.State == StateDashing {
		return BaseSpeed * DashMultiplier
	}
	return BaseSpeed
}

func (p *Player) DistanceTo(other *Player) float64 {
	return Distance(p.X, p.Y, other.X, other.Y)
}

func (p *Player) UpdateSkills(dt time.Duration) {
	for _, s := range []*Skill{p.FogSkill, p.DashSkill, p.AttackSkill} {
		if s != nil {
			s.Update(dt)
		}
	}
}

func (p *Player) Snapshot() PlayerSnapshot {
	return PlayerSnapshot{
		PlayerId: p.Id,
		X:        p.X,
		Y:        p.Y,
		IsReady:  p.IsReady,
		Role:     p.Role,
		State:    p.State,
	}
}
