// internal/protocol/inbound.go
package protocol

import "github.com/google/uuid"

// Inbound is one of the client messages below. The set is closed: Decode never
// returns any other concrete type.
type Inbound interface {
	Event() Event
	inbound()
}

// CreateRoom advertises a new room owned by the sender.
type CreateRoom struct {
	Nickname string `json:"nickname"`
}

// JoinRoom asks the owner of RoomID to let the sender in.
type JoinRoom struct {
	RoomID   uuid.UUID `json:"roomId"`
	Nickname string    `json:"nickname"`
}

// AcceptRequest is sent by a room owner. ID is the requester's connection id.
type AcceptRequest struct {
	ID           uuid.UUID `json:"id"`
	Nickname     string    `json:"nickname"`
	HostNickname string    `json:"hostNickname"`
}

// DeclineRequest is sent by a room owner. ID is the requester's connection id.
type DeclineRequest struct {
	ID uuid.UUID `json:"id"`
}

// RollDice carries the five client-rolled values.
type RollDice struct {
	Nickname string `json:"nickname"`
	Dice     []int  `json:"dice"`
}

// EndTurn hands the turn to the opponent.
type EndTurn struct {
	Nickname string `json:"nickname"`
}

// SelectScore claims a score-sheet row. Score is computed by the client and may be absent.
type SelectScore struct {
	Nickname string `json:"nickname"`
	Index    *int   `json:"index"`
	Score    *int   `json:"score,omitempty"`
}

func (CreateRoom) Event() Event     { return EventCreateRoom }
func (JoinRoom) Event() Event       { return EventJoinRoom }
func (AcceptRequest) Event() Event  { return EventAcceptRequest }
func (DeclineRequest) Event() Event { return EventDeclineRequest }
func (RollDice) Event() Event       { return EventRollDice }
func (EndTurn) Event() Event        { return EventEndTurn }
func (SelectScore) Event() Event    { return EventSelectScore }

func (CreateRoom) inbound()     {}
func (JoinRoom) inbound()       {}
func (AcceptRequest) inbound()  {}
func (DeclineRequest) inbound() {}
func (RollDice) inbound()       {}
func (EndTurn) inbound()        {}
func (SelectScore) inbound()    {}
