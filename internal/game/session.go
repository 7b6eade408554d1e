// internal/game/session.go
package game

import (
	"errors"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/yazy/internal/protocol"
)

// Errors returned by Session operations. The relay maps them to wire error codes.
var (
	ErrNotParticipant     = errors.New("connection is not part of this session")
	ErrNotYourTurn        = errors.New("it is not your turn")
	ErrRollLimit          = errors.New("no rolls left this turn")
	ErrInvalidDice        = errors.New("dice must be five values from 1 to 6")
	ErrInvalidCombination = errors.New("combination index out of range")
	ErrCombinationUsed    = errors.New("combination already used")
	ErrNoRoll             = errors.New("roll before selecting a score")
	ErrAlreadySelected    = errors.New("a score was already selected this turn")
)

// Seat identifies one side of a session.
type Seat int

const (
	SeatHost Seat = iota
	SeatGuest
)

// Other returns the opposite seat.
func (s Seat) Other() Seat {
	if s == SeatHost {
		return SeatGuest
	}
	return SeatHost
}

// Role is the role name reported to the client sitting in this seat.
func (s Seat) Role() string {
	if s == SeatHost {
		return protocol.RoleHost
	}
	return protocol.RolePlayer
}

func (s Seat) String() string { return s.Role() }

// RandomSeat picks the starting seat uniformly at random.
func RandomSeat() Seat {
	return Seat(rand.IntN(2))
}

// Participant is one bound connection and the nickname it plays under.
type Participant struct {
	ConnID   uuid.UUID
	Nickname string
}

// Rules toggles server-side enforcement. With Strict off the session only relays
// and flips turns, trusting the clients as the browser game does.
type Rules struct {
	Strict bool
}

// sheet is one participant's score column.
type sheet struct {
	scores []*int
	used   []bool
}

func newSheet() sheet {
	return sheet{
		scores: make([]*int, len(protocol.Combinations)),
		used:   make([]bool, len(protocol.Combinations)),
	}
}

// Session is the pairing of exactly two connections into one match.
// It is not safe for concurrent use; the relay serializes all access.
type Session struct {
	ID        uuid.UUID
	Host      Participant
	Guest     Participant
	StartedAt time.Time

	rules    Rules
	turn     Seat
	rolls    int
	selected bool
	sheets   [2]sheet
}

// NewSession binds host and guest with first holding the opening turn.
func NewSession(host, guest Participant, first Seat, rules Rules) *Session {
	return &Session{
		ID:        uuid.New(),
		Host:      host,
		Guest:     guest,
		StartedAt: time.Now(),
		rules:     rules,
		turn:      first,
		sheets:    [2]sheet{newSheet(), newSheet()},
	}
}

// SeatOf returns the seat bound to connID.
func (s *Session) SeatOf(connID uuid.UUID) (Seat, bool) {
	switch connID {
	case s.Host.ConnID:
		return SeatHost, true
	case s.Guest.ConnID:
		return SeatGuest, true
	}
	return 0, false
}

// Participant returns who sits in seat.
func (s *Session) Participant(seat Seat) Participant {
	if seat == SeatHost {
		return s.Host
	}
	return s.Guest
}

// Opponent returns who sits across from seat.
func (s *Session) Opponent(seat Seat) Participant {
	return s.Participant(seat.Other())
}

// Turn returns the seat holding the turn.
func (s *Session) Turn() Seat { return s.turn }

// CurrentTurn is the turn holder's nickname.
func (s *Session) CurrentTurn() string {
	return s.Participant(s.turn).Nickname
}

// Rolls is the number of rolls made in the current turn.
func (s *Session) Rolls() int { return s.rolls }

// Ready builds the start-game-ready payload for seat.
func (s *Session) Ready(seat Seat) protocol.GameReady {
	return protocol.GameReady{
		Role:        seat.Role(),
		Nickname:    s.Participant(seat).Nickname,
		Opponent:    s.Opponent(seat).Nickname,
		CurrentTurn: s.CurrentTurn(),
		SessionID:   s.ID,
	}
}

// Roll records a roll by seat. The dice themselves are relayed by the caller untouched.
func (s *Session) Roll(seat Seat, dice []int) error {
	if s.rules.Strict {
		if seat != s.turn {
			return ErrNotYourTurn
		}
		if s.selected {
			return ErrAlreadySelected
		}
		if s.rolls >= protocol.MaxRollsPerTurn {
			return ErrRollLimit
		}
		if !protocol.ValidDice(dice) {
			return ErrInvalidDice
		}
	}
	s.rolls++
	return nil
}

// SelectScore claims combination idx for seat with the client-computed score.
func (s *Session) SelectScore(seat Seat, idx int, score *int) error {
	if !protocol.ValidCombination(idx) {
		return ErrInvalidCombination
	}
	sh := &s.sheets[seat]
	if s.rules.Strict {
		if seat != s.turn {
			return ErrNotYourTurn
		}
		if s.rolls == 0 {
			return ErrNoRoll
		}
		if s.selected {
			return ErrAlreadySelected
		}
		if sh.used[idx] {
			return ErrCombinationUsed
		}
	}
	sh.used[idx] = true
	if score != nil {
		v := *score
		sh.scores[idx] = &v
	} else {
		sh.scores[idx] = nil
	}
	s.selected = true
	return nil
}

// EndTurn passes the turn to the other seat and returns the new holder's nickname.
func (s *Session) EndTurn(seat Seat) (string, error) {
	if s.rules.Strict && seat != s.turn {
		return "", ErrNotYourTurn
	}
	s.turn = s.turn.Other()
	s.rolls = 0
	s.selected = false
	return s.CurrentTurn(), nil
}

// Scores is the score sheet from seat's point of view.
func (s *Session) Scores(seat Seat) protocol.ScoreUpdate {
	mine, theirs := s.sheets[seat], s.sheets[seat.Other()]
	return protocol.ScoreUpdate{
		PlayerScore:      copyScores(mine.scores),
		OpponentScore:    copyScores(theirs.scores),
		UsedComb:         append([]bool(nil), mine.used...),
		OpponentUsedComb: append([]bool(nil), theirs.used...),
	}
}

// Complete reports whether both sheets are full.
func (s *Session) Complete() bool {
	for _, sh := range s.sheets {
		for _, u := range sh.used {
			if !u {
				return false
			}
		}
	}
	return true
}

func copyScores(in []*int) []*int {
	out := make([]*int, len(in))
	for i, p := range in {
		if p != nil {
			v := *p
			out[i] = &v
		}
	}
	return out
}
