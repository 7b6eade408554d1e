// internal/protocol/outbound.go
package protocol

import "github.com/google/uuid"

// Outbound is a server message. Encode wraps it with its event name.
type Outbound interface {
	Event() Event
}

// Connected greets a freshly accepted connection with its id.
type Connected struct {
	ID uuid.UUID `json:"id"`
}

// RoomView is the public shape of an open room.
type RoomView struct {
	ID       uuid.UUID `json:"id"`
	Nickname string    `json:"nickname"`
}

// RoomList is the full directory pushed on every change. It encodes as a bare array.
type RoomList []RoomView

// JoinRequestNotice tells a room owner that ID wants to join.
type JoinRequestNotice struct {
	ID       uuid.UUID `json:"id"`
	Nickname string    `json:"nickname"`
	RoomID   uuid.UUID `json:"roomId"`
}

// GameReady is sent to each participant when a session starts.
type GameReady struct {
	Role        string    `json:"role"`
	Nickname    string    `json:"nickname"`
	Opponent    string    `json:"opponent"`
	CurrentTurn string    `json:"currentTurn"`
	SessionID   uuid.UUID `json:"sessionId"`
}

// JoinDeclined has no payload.
type JoinDeclined struct{}

// JoinExpired tells a requester that its pending request for RoomID timed out.
type JoinExpired struct {
	RoomID uuid.UUID `json:"roomId"`
}

// OpponentRoll relays the opponent's dice verbatim.
type OpponentRoll struct {
	Dice []int `json:"dice"`
}

// SwitchTurn announces the new turn holder.
type SwitchTurn struct {
	NextTurn string `json:"nextTurn"`
}

// ScoreUpdate is the score sheet as seen by the recipient. A nil entry is an unscored row.
type ScoreUpdate struct {
	PlayerScore      []*int `json:"playerScore"`
	OpponentScore    []*int `json:"opponentScore"`
	UsedComb         []bool `json:"usedComb"`
	OpponentUsedComb []bool `json:"opponentUsedComb"`
}

// PlayerDisconnected has no payload.
type PlayerDisconnected struct{}

// ErrorNotice reports a rejected message back to its sender.
type ErrorNotice struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (Connected) Event() Event          { return EventConnected }
func (RoomList) Event() Event           { return EventUpdateRooms }
func (JoinRequestNotice) Event() Event  { return EventJoinRequest }
func (GameReady) Event() Event          { return EventStartGameReady }
func (JoinDeclined) Event() Event       { return EventJoinDeclined }
func (JoinExpired) Event() Event        { return EventJoinExpired }
func (OpponentRoll) Event() Event       { return EventOpponentRoll }
func (SwitchTurn) Event() Event         { return EventSwitchTurn }
func (ScoreUpdate) Event() Event        { return EventScoreUpdate }
func (PlayerDisconnected) Event() Event { return EventPlayerDisconnected }
func (ErrorNotice) Event() Event        { return EventError }

// Roles reported in GameReady.
const (
	RoleHost   = "host"
	RolePlayer = "player"
)
