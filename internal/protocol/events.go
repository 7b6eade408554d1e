// internal/protocol/events.go
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Event is the wire name of a message, carried in the envelope's "type" field.
type Event string

// Events sent by clients.
const (
	EventCreateRoom     Event = "create-room"
	EventJoinRoom       Event = "join-room"
	EventAcceptRequest  Event = "accept-request"
	EventDeclineRequest Event = "decline-request"
	EventRollDice       Event = "roll-dice"
	EventEndTurn        Event = "end-turn"
	EventSelectScore    Event = "select-score"
	// EventUpdateScore is accepted as an alias of select-score from older clients.
	EventUpdateScore Event = "update-score"
)

// Events sent by the server.
const (
	EventConnected          Event = "connected"
	EventUpdateRooms        Event = "update-rooms"
	EventJoinRequest        Event = "join-request"
	EventStartGameReady     Event = "start-game-ready"
	EventJoinDeclined       Event = "join-declined"
	EventJoinExpired        Event = "join-expired"
	EventOpponentRoll       Event = "opponent-roll"
	EventSwitchTurn         Event = "switch-turn"
	EventScoreUpdate        Event = "update-score"
	EventPlayerDisconnected Event = "player-disconnected"
	EventError              Event = "error"
)

var (
	// ErrUnknownEvent is returned by Decode for a type outside the inbound set.
	ErrUnknownEvent = errors.New("unknown event type")
	// ErrMalformed is returned by Decode when the envelope or its payload cannot be parsed.
	ErrMalformed = errors.New("malformed message")
)

// envelope is the frame used in both directions: {"type": "...", "data": ...}.
type envelope struct {
	Type Event           `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Decode parses one client frame into its typed inbound message.
func Decode(frame []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var msg Inbound
	switch env.Type {
	case EventCreateRoom:
		msg = &CreateRoom{}
	case EventJoinRoom:
		msg = &JoinRoom{}
	case EventAcceptRequest:
		msg = &AcceptRequest{}
	case EventDeclineRequest:
		msg = &DeclineRequest{}
	case EventRollDice:
		msg = &RollDice{}
	case EventEndTurn:
		msg = &EndTurn{}
	case EventSelectScore, EventUpdateScore:
		msg = &SelectScore{}
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Type)
	}

	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, fmt.Errorf("%w: %s has no data", ErrMalformed, env.Type)
	}
	if err := json.Unmarshal(env.Data, msg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, env.Type, err)
	}
	return msg, nil
}

// Encode wraps a server message in the envelope.
func Encode(msg Outbound) ([]byte, error) {
	env := envelope{Type: msg.Event()}
	if !isEmptyPayload(msg) {
		data, err := json.Marshal(msg)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", msg.Event(), err)
		}
		env.Data = data
	}
	return json.Marshal(env)
}

func isEmptyPayload(msg Outbound) bool {
	switch msg.(type) {
	case JoinDeclined, *JoinDeclined, PlayerDisconnected, *PlayerDisconnected:
		return true
	}
	return false
}
