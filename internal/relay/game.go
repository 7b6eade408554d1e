// internal/relay/game.go
package relay

import (
	"github.com/jason-s-yu/yazy/internal/game"
	"github.com/jason-s-yu/yazy/internal/lobby"
	"github.com/jason-s-yu/yazy/internal/protocol"
	"github.com/sirupsen/logrus"
)

func (c *Coordinator) rollLocked(conn *lobby.Connection, m *protocol.RollDice) error {
	sess, seat, err := c.sessionOf(conn)
	if err != nil {
		return err
	}
	if err := sess.Roll(seat, m.Dice); err != nil {
		return err
	}
	c.rollsRelayed++
	if peer, ok := c.conns.Get(sess.Opponent(seat).ConnID); ok {
		dice := append([]int(nil), m.Dice...)
		peer.Write(protocol.OpponentRoll{Dice: dice})
	}
	return nil
}

func (c *Coordinator) endTurnLocked(conn *lobby.Connection, _ *protocol.EndTurn) error {
	sess, seat, err := c.sessionOf(conn)
	if err != nil {
		return err
	}
	next, err := sess.EndTurn(seat)
	if err != nil {
		return err
	}
	c.sendBothLocked(sess, func(game.Seat) protocol.Outbound {
		return protocol.SwitchTurn{NextTurn: next}
	})
	return nil
}

func (c *Coordinator) selectScoreLocked(conn *lobby.Connection, m *protocol.SelectScore) error {
	sess, seat, err := c.sessionOf(conn)
	if err != nil {
		return err
	}
	if m.Index == nil {
		return game.ErrInvalidCombination
	}
	if err := sess.SelectScore(seat, *m.Index, m.Score); err != nil {
		return err
	}
	c.sendBothLocked(sess, func(s game.Seat) protocol.Outbound {
		return sess.Scores(s)
	})
	if sess.Complete() {
		c.log.WithFields(logrus.Fields{"session": sess.ID}).Info("score sheets complete")
	}
	return nil
}

// sendBothLocked writes build(seat) to each participant still connected.
func (c *Coordinator) sendBothLocked(sess *game.Session, build func(game.Seat) protocol.Outbound) {
	for _, seat := range []game.Seat{game.SeatHost, game.SeatGuest} {
		if conn, ok := c.conns.Get(sess.Participant(seat).ConnID); ok {
			conn.Write(build(seat))
		}
	}
}
