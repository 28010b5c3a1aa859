package internal

import (
	"context"
	"sync"
	"time"
)

const (
	MaxPlayersPerRoom = 8
	MinPlayersToStart = 2

	RoundDuration   = 180 * time.Second
	AllFrozenGrace  = 2 * time.Second
	ResetDelay      = 5 * time.Second
	DefaultTickRate = 20

	// Client animation: 5 frames at 0.08s.
	FreezeDuration   = 400 * time.Millisecond
	UnfreezeDuration = 400 * time.Millisecond

	AttackDuration   = 600 * time.Millisecond
	FogCooldown      = 10 * time.Second
	FogDuration      = 3 * time.Second
	DashCooldown     = 5 * time.Second
	DashDuration     = 200 * time.Millisecond
	RescueHold       = 2 * time.Second
	MoveSendInterval = 50 * time.Millisecond

	BaseSpeed      = 380.0
	DashMultiplier = 2.0
	FreezeRange    = 250.0
	UnfreezeRange  = 60.0
)

type GamePhase string

const (
	PhaseLobby  GamePhase = "LOBBY"
	PhaseInGame GamePhase = "IN_GAME"
)

type Role string

const (
	RoleRunner Role = "RUNNER"
	RoleChaser Role = "CHASER"
)

type PlayerState string

const (
	StateNormal           PlayerState = "NORMAL"
	StateFreezing         PlayerState = "FREEZING"
	StateFrozen           PlayerState = "FROZEN"
	StateUnfreezing       PlayerState = "UNFREEZING"
	StateAttacking        PlayerState = "ATTACKING"
	StateDashing          PlayerState = "DASHING"
	StateUnfreezingTarget PlayerState = "UNFREEZING_TARGET"
)

type StartPolicy string

const (
	// StartAllReady requires every non-host player to be ready.
	StartAllReady      StartPolicy = "allReady"
	StartUnconditional StartPolicy = "unconditional"
)

func (p StartPolicy) Valid() bool {
	return p == StartAllReady || p == StartUnconditional
}

type SkillType string

const (
	SkillAttack         SkillType = "attack"
	SkillAttackCancel   SkillType = "attackCancel"
	SkillFog            SkillType = "fog"
	SkillDash           SkillType = "dash"
	SkillUnfreezeStart  SkillType = "unfreezeStart"
	SkillUnfreezeCancel SkillType = "unfreezeCancel"
)

type EndReason string

const (
	EndTimeout   EndReason = "timeout"
	EndAllFrozen EndReason = "allFrozen"
)

// Conn is the outbound half of a client connection. Send must not block.
type Conn interface {
	ID() string
	Send(data []byte) error
	Close() error
}

type GameTimer struct {
	StartTime time.Time
	Interval  time.Duration
	IsActive  bool
	Context   context.Context
	Cancel    context.CancelFunc
}

type GameRound struct {
	TimeRemaining time.Duration
	AllFrozenFor  time.Duration
	Elapsed       time.Duration
	Ended         bool
	Winner        Role
	Reason        EndReason
	StartedAt     time.Time

	// Counts down to the lobby reset once Ended is set.
	ResetIn time.Duration

	// Whole seconds last sent in a timerUpdate.
	LastAnnounced int64
}

type Room struct {
	Id           string
	Title        string
	PasswordHash string
	HostId       string
	Phase        GamePhase
	StartPolicy  StartPolicy
	MaxPlayers   int

	Players map[string]*Player
	// Join order, used for host promotion and stable snapshots.
	PlayerOrder []string

	Round *GameRound
	Timer *GameTimer

	// Set once the room is torn down; late callers must not touch it.
	Closed bool

	Mu sync.Mutex
}

type Player struct {
	Id       string
	Conn     Conn
	Room     *Room
	JoinedAt time.Time

	IsReady bool
	Role    Role
	State   PlayerState

	X, Y   float64
	Dx, Dy float64

	// Remaining time in the current transient state (ATTACKING, DASHING, FREEZING, UNFREEZING).
	StateTimer time.Duration

	FogSkill    *Skill
	DashSkill   *Skill
	AttackSkill *Skill

	// Runner rescuing a frozen teammate.
	RescueTarget   string
	RescueProgress time.Duration

	// Chaser whose attack put this runner into FREEZING.
	FrozenBy string
}

// MatchResult is what a finished round leaves behind for the match history.
type MatchResult struct {
	Id        string
	RoomId    string
	Winner    Role
	Reason    EndReason
	ChaserId  string
	RunnerIds []string
	Frozen    int
	Duration  time.Duration
	StartedAt time.Time
	EndedAt   time.Time
}
