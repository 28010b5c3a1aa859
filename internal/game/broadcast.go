package game

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
	"github.com/scythe504/freezetag-backend/internal"
)

// =============================================================================
// BROADCASTING & MESSAGING
// =============================================================================
//
// All helpers here run with room.Mu held. Conn.Send only enqueues, so fan-out order per room is
// the order in which events were applied.

func encode[T any](msg internal.Message[T]) ([]byte, bool) {
	b, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("type", msg.Type).Msg("[Broadcast] failed to encode message")
		return nil, false
	}
	return b, true
}

func newMessage[T any](msgType string, payload T) internal.Message[T] {
	return internal.Message[T]{Type: msgType, Payload: payload}
}

func SafeBroadcastToRoom[T any](room *internal.Room, msg internal.Message[T]) {
	SafeBroadcastToRoomExcept(room, msg, nil)
}

func SafeBroadcastToRoomExcept[T any](room *internal.Room, msg internal.Message[T], exclude *internal.Player) {
	b, ok := encode(msg)
	if !ok {
		return
	}

	sent := 0
	for _, player := range room.OrderedPlayers() {
		if exclude != nil && player.Id == exclude.Id {
			continue
		}
		if deliver(room, player, b) {
			sent++
		}
	}
	log.Debug().
		Str("room", room.Id).
		Str("type", msg.Type).
		Int("sent", sent).
		Msg("[Broadcast] delivered")
}

func sendTo[T any](room *internal.Room, player *internal.Player, msg internal.Message[T]) {
	b, ok := encode(msg)
	if !ok {
		return
	}
	deliver(room, player, b)
}

// deliver drops a client whose queue is full or closed. Closing the connection ends its read
// loop, which then removes the player through the normal leave path.
func deliver(room *internal.Room, player *internal.Player, b []byte) bool {
	if player.Conn == nil {
		return false
	}
	if err := player.Conn.Send(b); err != nil {
		log.Warn().
			Err(err).
			Str("room", room.Id).
			Str("player", player.Id).
			Msg("[Broadcast] send failed, closing connection")
		_ = player.Conn.Close()
		return false
	}
	return true
}

// sendError reports a validation failure to one connection only.
func sendError(conn internal.Conn, err error) {
	if conn == nil {
		return
	}
	code, message := ErrorCode(err)
	b, ok := encode(newMessage("error", internal.ErrorData{Code: code, Message: message}))
	if !ok {
		return
	}
	if sendErr := conn.Send(b); sendErr != nil {
		log.Warn().Err(sendErr).Str("conn", conn.ID()).Msg("[sendError] send failed")
	}
}
