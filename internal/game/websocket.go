package game

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/scythe504/freezetag-backend/internal"
	wsconn "github.com/scythe504/freezetag-backend/internal/websocket"
)

// =============================================================================
// WEBSOCKET CONNECTION HANDLING
// =============================================================================

// Session is the per-connection context: the connection and, once created or joined, the
// player it controls. Only the connection's read goroutine touches it.
type Session struct {
	conn   internal.Conn
	player *internal.Player
}

func NewSession(conn internal.Conn) *Session {
	return &Session{conn: conn}
}

func (s *Session) Player() *internal.Player {
	return s.player
}

// HandleWebSocket upgrades the request and serves the connection until it drops.
func (c *Coordinator) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("[HandleWebSocket] upgrade failed")
		return
	}

	client := wsconn.NewClient(ws, c.settings.MessageRate, c.settings.MessageBurst)
	session := NewSession(client)
	log.Info().Str("conn", client.ID()).Str("remote", r.RemoteAddr).Msg("[HandleWebSocket] client connected")

	client.Serve(func(data []byte) {
		c.Dispatch(session, data)
	})

	c.Disconnect(session)
	log.Info().Str("conn", client.ID()).Msg("[HandleWebSocket] client disconnected")
}

// Disconnect removes the session's player from its room. The round keeps going.
func (c *Coordinator) Disconnect(s *Session) {
	if s.player == nil {
		return
	}
	c.LeaveRoom(s.player)
	s.player = nil
}

// Dispatch decodes one inbound frame and routes it. Parse failures are dropped; every
// validation failure is answered with an error frame to this connection only.
func (c *Coordinator) Dispatch(s *Session, raw []byte) {
	var msg internal.InboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Warn().Err(err).Str("conn", s.conn.ID()).Msg("[Dispatch] failed to parse envelope")
		return
	}

	kind := msg.Kind()
	log.Debug().Str("conn", s.conn.ID()).Str("type", kind).Msg("[Dispatch] message received")

	if err := c.route(s, kind, msg.Body()); err != nil {
		code, _ := ErrorCode(err)
		if code == CodeInternal {
			log.Error().Err(err).Str("conn", s.conn.ID()).Str("type", kind).Msg("[Dispatch] handler failed")
		} else {
			log.Debug().Err(err).Str("conn", s.conn.ID()).Str("type", kind).Msg("[Dispatch] rejected")
		}
		sendError(s.conn, err)
	}
}

func (c *Coordinator) route(s *Session, kind string, body json.RawMessage) error {
	switch kind {
	case "createRoom":
		data, err := decodeBody[internal.CreateRoomData](body)
		if err != nil {
			return err
		}
		if s.player != nil {
			return ErrAlreadyInRoom
		}
		player, err := c.CreateRoom(s.conn, data)
		if err != nil {
			return err
		}
		s.player = player
		return nil

	case "join", "joinRoom":
		data, err := decodeBody[internal.JoinData](body)
		if err != nil {
			return err
		}
		if s.player != nil {
			return ErrAlreadyInRoom
		}
		player, _, err := c.JoinRoom(s.conn, data)
		if err != nil {
			return err
		}
		s.player = player
		return nil

	case "":
		return malformed("missing message type")
	}

	if s.player == nil {
		if isKnownInRoomType(kind) {
			return ErrNotInRoom
		}
		return malformed("unknown message type " + kind)
	}

	switch kind {
	case "ready":
		data, err := decodeBody[internal.ReadyData](body)
		if err != nil {
			return err
		}
		return c.HandlePlayerReady(s.player, data.IsReady)

	case "start":
		data, err := decodeBody[internal.StartData](body)
		if err != nil {
			return err
		}
		return c.StartGame(s.player, data.Policy)

	case "move":
		data, err := decodeBody[internal.MoveData](body)
		if err != nil {
			return err
		}
		return c.HandleMove(s.player, data)

	case "leave":
		c.Disconnect(s)
		return nil

	case "freeze":
		data, err := decodeBody[internal.TargetData](body)
		if err != nil {
			return err
		}
		return c.HandleFreeze(s.player, data.TargetId)

	case "unfreeze":
		data, err := decodeBody[internal.TargetData](body)
		if err != nil {
			return err
		}
		return c.HandleUnfreeze(s.player, data.TargetId)

	case "skillUse":
		data, err := decodeBody[internal.SkillUseData](body)
		if err != nil {
			return err
		}
		return c.HandleSkillUse(s.player, data)
	}

	return malformed("unknown message type " + kind)
}

func isKnownInRoomType(kind string) bool {
	switch kind {
	case "ready", "start", "move", "leave", "freeze", "unfreeze", "skillUse":
		return true
	}
	return false
}

// decodeBody treats a missing payload as the zero value.
func decodeBody[T any](body json.RawMessage) (T, error) {
	var v T
	if len(body) == 0 || string(body) == "null" {
		return v, nil
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return v, malformed("invalid payload: " + err.Error())
	}
	return v, nil
}
