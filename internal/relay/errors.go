// internal/relay/errors.go
package relay

import (
	"errors"

	"github.com/jason-s-yu/yazy/internal/game"
	"github.com/jason-s-yu/yazy/internal/lobby"
	"github.com/jason-s-yu/yazy/internal/protocol"
)

var (
	ErrNoSession     = errors.New("you are not in a game")
	ErrAlreadyInGame = errors.New("player is already in a game")
	ErrNoRoom        = errors.New("you have no open room")
	ErrNoRequest     = errors.New("no pending join request from that player")
)

// errorCodes maps every rejection to the code sent in the error event.
var errorCodes = []struct {
	err  error
	code string
}{
	{protocol.ErrUnknownEvent, "unknown-event"},
	{protocol.ErrMalformed, "malformed"},
	{lobby.ErrInvalidNickname, "invalid-nickname"},
	{lobby.ErrRoomExists, "room-exists"},
	{lobby.ErrRoomNotFound, "room-not-found"},
	{lobby.ErrOwnRoom, "own-room"},
	{ErrNoSession, "no-session"},
	{ErrAlreadyInGame, "already-in-game"},
	{ErrNoRoom, "no-room"},
	{ErrNoRequest, "no-request"},
	{game.ErrNotParticipant, "no-session"},
	{game.ErrNotYourTurn, "not-your-turn"},
	{game.ErrRollLimit, "roll-limit"},
	{game.ErrInvalidDice, "invalid-dice"},
	{game.ErrInvalidCombination, "invalid-combination"},
	{game.ErrCombinationUsed, "combination-used"},
	{game.ErrNoRoll, "no-roll"},
	{game.ErrAlreadySelected, "already-selected"},
}

// ErrorCode returns the wire code for err, "internal" when it is not a known rejection.
func ErrorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return "internal"
}
