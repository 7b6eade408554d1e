// internal/relay/lobby.go
package relay

import (
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/yazy/internal/game"
	"github.com/jason-s-yu/yazy/internal/lobby"
	"github.com/jason-s-yu/yazy/internal/protocol"
	"github.com/sirupsen/logrus"
)

func (c *Coordinator) createRoomLocked(conn *lobby.Connection, m *protocol.CreateRoom) error {
	nick, err := lobby.NormalizeNickname(m.Nickname)
	if err != nil {
		return err
	}
	if c.inSession(conn.ID) {
		return ErrAlreadyInGame
	}
	room, err := c.rooms.Create(conn.ID, nick)
	if err != nil {
		return err
	}
	conn.Nickname = nick
	c.log.WithFields(logrus.Fields{"conn": conn.ID, "room": room.ID, "nickname": nick}).Info("room created")
	c.broadcastRoomsLocked()
	return nil
}

func (c *Coordinator) joinRoomLocked(conn *lobby.Connection, m *protocol.JoinRoom) error {
	nick, err := lobby.NormalizeNickname(m.Nickname)
	if err != nil {
		return err
	}
	if c.inSession(conn.ID) {
		return ErrAlreadyInGame
	}
	room, ok := c.rooms.Get(m.RoomID)
	if !ok {
		return lobby.ErrRoomNotFound
	}
	if room.OwnerID == conn.ID {
		return lobby.ErrOwnRoom
	}
	owner, ok := c.conns.Get(room.OwnerID)
	if !ok {
		// The owner is gone but its disconnect has not been processed yet.
		return lobby.ErrRoomNotFound
	}

	conn.Nickname = nick
	req, replaced := c.joins.Add(room.ID, conn.ID, nick)
	reqID := req.ID
	req.Timer = time.AfterFunc(c.opts.JoinTimeout, func() { c.expireJoin(reqID) })

	owner.Write(protocol.JoinRequestNotice{ID: conn.ID, Nickname: nick, RoomID: room.ID})
	fields := logrus.Fields{"conn": conn.ID, "room": room.ID, "request": req.ID}
	if replaced != nil {
		fields["replaces"] = replaced.ID
		c.log.WithFields(fields).Info("join request refreshed")
		return nil
	}
	c.log.WithFields(fields).Info("join requested")
	return nil
}

// expireJoin drops a request that was not answered in time and tells the requester.
func (c *Coordinator) expireJoin(reqID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req, ok := c.joins.Remove(reqID)
	if !ok {
		return // answered, replaced or dropped in the meantime
	}
	c.joinsExpired++
	if requester, ok := c.conns.Get(req.RequesterID); ok {
		requester.Write(protocol.JoinExpired{RoomID: req.RoomID})
	}
	c.log.WithFields(logrus.Fields{"room": req.RoomID, "request": req.ID}).Info("join request expired")
}

func (c *Coordinator) acceptLocked(owner *lobby.Connection, m *protocol.AcceptRequest) error {
	room, ok := c.rooms.OwnedBy(owner.ID)
	if !ok {
		return ErrNoRoom
	}
	req, ok := c.joins.Find(room.ID, m.ID)
	if !ok {
		return ErrNoRequest
	}
	requester, ok := c.conns.Get(m.ID)
	if !ok {
		c.joins.Remove(req.ID)
		return ErrNoRequest
	}
	if c.inSession(owner.ID) || c.inSession(requester.ID) {
		c.joins.Remove(req.ID)
		return ErrAlreadyInGame
	}

	host := game.Participant{
		ConnID:   owner.ID,
		Nickname: pickNickname(m.HostNickname, owner.Nickname, room.Nickname),
	}
	guest := game.Participant{
		ConnID:   requester.ID,
		Nickname: pickNickname(m.Nickname, req.Nickname, requester.Nickname),
	}
	sess := game.NewSession(host, guest, c.opts.PickFirst(), c.opts.Rules)
	c.sessions[sess.ID] = sess
	c.byConn[host.ConnID] = sess
	c.byConn[guest.ConnID] = sess
	c.sessionsStarted++

	// Neither side may keep asking to join elsewhere once seated.
	c.joins.Remove(req.ID)
	c.joins.RemoveByRequester(requester.ID)
	c.joins.RemoveByRequester(owner.ID)
	c.dropRoomsLocked(owner.ID)
	c.dropRoomsLocked(requester.ID)

	owner.Write(sess.Ready(game.SeatHost))
	requester.Write(sess.Ready(game.SeatGuest))
	c.broadcastRoomsLocked()

	c.log.WithFields(logrus.Fields{
		"session": sess.ID,
		"host":    host.Nickname,
		"guest":   guest.Nickname,
		"first":   sess.CurrentTurn(),
	}).Info("session started")
	return nil
}

func (c *Coordinator) declineLocked(owner *lobby.Connection, m *protocol.DeclineRequest) error {
	room, ok := c.rooms.OwnedBy(owner.ID)
	if !ok {
		return ErrNoRoom
	}
	req, ok := c.joins.Find(room.ID, m.ID)
	if !ok {
		return ErrNoRequest
	}
	c.joins.Remove(req.ID)
	if requester, ok := c.conns.Get(req.RequesterID); ok {
		requester.Write(protocol.JoinDeclined{})
	}
	c.log.WithFields(logrus.Fields{"room": room.ID, "request": req.ID}).Info("join declined")
	return nil
}

// pickNickname returns the first candidate that is a valid nickname.
func pickNickname(candidates ...string) string {
	for _, cand := range candidates {
		if nick, err := lobby.NormalizeNickname(cand); err == nil {
			return nick
		}
	}
	return "Player"
}
