package game

import (
	"errors"
	"fmt"
)

// Error is a validation failure reported to the offending connection as error{code,message}.
// Two Errors match under errors.Is when their codes match.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

const (
	CodeRoomNotFound     = "ROOM_NOT_FOUND"
	CodeCodeTaken        = "CODE_TAKEN"
	CodeBadPassword      = "BAD_PASSWORD"
	CodeRoomFull         = "ROOM_FULL"
	CodeNickTaken        = "NICK_TAKEN"
	CodeNotHost          = "NOT_HOST"
	CodeInvalidState     = "INVALID_STATE"
	CodeUnknownTarget    = "UNKNOWN_TARGET"
	CodeMalformedMessage = "MALFORMED_MESSAGE"
	CodeInternal         = "INTERNAL"
)

var (
	ErrRoomNotFound     = &Error{CodeRoomNotFound, "room not found"}
	ErrCodeTaken        = &Error{CodeCodeTaken, "room code already in use"}
	ErrBadPassword      = &Error{CodeBadPassword, "wrong room password"}
	ErrRoomFull         = &Error{CodeRoomFull, "room is full"}
	ErrNickTaken        = &Error{CodeNickTaken, "nickname already used in this room"}
	ErrNotHost          = &Error{CodeNotHost, "only the host can start the game"}
	ErrInvalidState     = &Error{CodeInvalidState, "action not allowed now"}
	ErrUnknownTarget    = &Error{CodeUnknownTarget, "unknown player"}
	ErrMalformedMessage = &Error{CodeMalformedMessage, "malformed message"}

	ErrNotInRoom     = &Error{CodeInvalidState, "not in a room"}
	ErrAlreadyInRoom = &Error{CodeInvalidState, "already in a room"}
)

func invalidState(msg string) *Error {
	return &Error{CodeInvalidState, msg}
}

func malformed(msg string) *Error {
	return &Error{CodeMalformedMessage, msg}
}

// ErrorCode maps any error to the code and stable message sent on the wire.
func ErrorCode(err error) (string, string) {
	var gameErr *Error
	if errors.As(err, &gameErr) {
		return gameErr.Code, gameErr.Message
	}
	return CodeInternal, "internal error"
}
