package internal

import "encoding/json"

// Message is the outbound envelope. Every server frame uses {type, payload}.
type Message[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// InboundMessage accepts both {type,payload} and the older {op,data} shape.
type InboundMessage struct {
	Type    string          `json:"type"`
	Op      string          `json:"op"`
	Payload json.RawMessage `json:"payload"`
	Data    json.RawMessage `json:"data"`
}

func (m InboundMessage) Kind() string {
	if m.Type != "" {
		return m.Type
	}
	return m.Op
}

func (m InboundMessage) Body() json.RawMessage {
	if len(m.Payload) > 0 {
		return m.Payload
	}
	return m.Data
}

// Inbound payloads

type CreateRoomData struct {
	Code        string      `json:"code"`
	Title       string      `json:"title"`
	Password    string      `json:"password"`
	Nick        string      `json:"nick"`
	PlayerId    string      `json:"playerId"`
	StartPolicy StartPolicy `json:"startPolicy"`
}

func (d CreateRoomData) PlayerName() string {
	if d.Nick != "" {
		return d.Nick
	}
	return d.PlayerId
}

type JoinData struct {
	RoomId   string `json:"roomId"`
	Code     string `json:"code"`
	PlayerId string `json:"playerId"`
	Nick     string `json:"nick"`
	Password string `json:"password"`
}

func (d JoinData) RoomCode() string {
	if d.RoomId != "" {
		return d.RoomId
	}
	return d.Code
}

func (d JoinData) PlayerName() string {
	if d.PlayerId != "" {
		return d.PlayerId
	}
	return d.Nick
}

type ReadyData struct {
	PlayerId string `json:"playerId"`
	IsReady  bool   `json:"isReady"`
}

type StartData struct {
	RoomId string      `json:"roomId"`
	Policy StartPolicy `json:"policy"`
}

type MoveData struct {
	PlayerId string   `json:"playerId"`
	Dx       float64  `json:"dx"`
	Dy       float64  `json:"dy"`
	X        *float64 `json:"x"`
	Y        *float64 `json:"y"`
}

type LeaveData struct {
	RoomId   string `json:"roomId"`
	PlayerId string `json:"playerId"`
}

type TargetData struct {
	TargetId string `json:"targetId"`
}

type SkillUseData struct {
	SkillType SkillType `json:"skillType"`
	TargetId  string    `json:"targetId,omitempty"`
}

// Outbound payloads

type RoomInfo struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type RoomCreatedData struct {
	Ok     bool     `json:"ok"`
	RoomId string   `json:"roomId"`
	Data   RoomInfo `json:"data"`
}

type PlayerSnapshot struct {
	PlayerId string      `json:"playerId"`
	X        float64     `json:"x"`
	Y        float64     `json:"y"`
	IsReady  bool        `json:"isReady"`
	Role     Role        `json:"role,omitempty"`
	State    PlayerState `json:"state,omitempty"`
}

type RoomSnapshot struct {
	Ok          bool             `json:"ok"`
	RoomId      string           `json:"roomId"`
	Title       string           `json:"title"`
	HostId      string           `json:"hostId"`
	Phase       GamePhase        `json:"phase"`
	StartPolicy StartPolicy      `json:"startPolicy"`
	Players     []PlayerSnapshot `json:"players"`
}

type PlayerJoinedData struct {
	PlayerId string  `json:"playerId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

type PlayerLeftData struct {
	PlayerId string `json:"playerId"`
	NewHost  string `json:"newHost,omitempty"`
}

type PlayerReadyData struct {
	PlayerId string `json:"playerId"`
	IsReady  bool   `json:"isReady"`
}

type GameStartSnapshot struct {
	Roles    map[string]Role  `json:"roles"`
	Players  []PlayerSnapshot `json:"players"`
	Duration int64            `json:"durationSeconds"`
}

type GameStartedData struct {
	Snapshot GameStartSnapshot `json:"snapshot"`
}

type PlayerMovedData struct {
	PlayerId string  `json:"playerId"`
	Dx       float64 `json:"dx"`
	Dy       float64 `json:"dy"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

type FreezeData struct {
	TargetId   string `json:"targetId"`
	AttackerId string `json:"attackerId"`
}

type UnfreezeData struct {
	TargetId   string `json:"targetId"`
	UnfreezeId string `json:"unfreezeId"`
}

type SkillUsedData struct {
	PlayerId  string    `json:"playerId"`
	SkillType SkillType `json:"skillType"`
	TargetId  string    `json:"targetId,omitempty"`
}

type TimerUpdateData struct {
	TimeRemaining int64 `json:"timeRemaining"`
}

type GameOverData struct {
	Winner Role      `json:"winner"`
	Reason EndReason `json:"reason"`
	Result string    `json:"result"`
}

type LobbyResetData struct {
	RoomId  string           `json:"roomId"`
	HostId  string           `json:"hostId"`
	Players []PlayerSnapshot `json:"players"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
