// internal/relay/coordinator.go
package relay

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/yazy/internal/game"
	"github.com/jason-s-yu/yazy/internal/lobby"
	"github.com/jason-s-yu/yazy/internal/protocol"
	"github.com/sirupsen/logrus"
)

// DefaultJoinTimeout is how long a join request waits for the room owner.
const DefaultJoinTimeout = 30 * time.Second

// Options configures a Coordinator.
type Options struct {
	// JoinTimeout expires unanswered join requests. Zero means DefaultJoinTimeout.
	JoinTimeout time.Duration
	// Rules is applied to every new session.
	Rules game.Rules
	// PickFirst chooses the opening seat. Nil means game.RandomSeat.
	PickFirst func() game.Seat
	Logger    logrus.FieldLogger
}

// Stats is a point-in-time view of the coordinator, served by /stats and published to Redis.
type Stats struct {
	Connections     int    `json:"connections"`
	Rooms           int    `json:"rooms"`
	Sessions        int    `json:"sessions"`
	PendingJoins    int    `json:"pendingJoins"`
	SessionsStarted uint64 `json:"sessionsStarted"`
	RollsRelayed    uint64 `json:"rollsRelayed"`
	JoinsExpired    uint64 `json:"joinsExpired"`
}

// Coordinator is the single owner of connections, rooms, join requests and sessions.
// Every exported method takes mu for a short, non-blocking critical section: outbound
// messages are queued on connection outboxes and never written to the network here.
type Coordinator struct {
	mu   sync.Mutex
	opts Options
	log  logrus.FieldLogger

	conns    *lobby.Registry
	rooms    *lobby.Directory
	joins    *lobby.PendingJoins
	sessions map[uuid.UUID]*game.Session
	byConn   map[uuid.UUID]*game.Session

	sessionsStarted uint64
	rollsRelayed    uint64
	joinsExpired    uint64
}

// New builds an empty coordinator.
func New(opts Options) *Coordinator {
	if opts.JoinTimeout <= 0 {
		opts.JoinTimeout = DefaultJoinTimeout
	}
	if opts.PickFirst == nil {
		opts.PickFirst = game.RandomSeat
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Coordinator{
		opts:     opts,
		log:      opts.Logger,
		conns:    lobby.NewRegistry(),
		rooms:    lobby.NewDirectory(),
		joins:    lobby.NewPendingJoins(),
		sessions: make(map[uuid.UUID]*game.Session),
		byConn:   make(map[uuid.UUID]*game.Session),
	}
}

// Connect registers conn, greets it with its id and sends the current room list.
func (c *Coordinator) Connect(conn *lobby.Connection) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conns.Add(conn)
	conn.Write(protocol.Connected{ID: conn.ID})
	conn.Write(c.rooms.List())
	c.log.WithFields(logrus.Fields{"conn": conn.ID, "remote": conn.RemoteAddr}).Info("connection registered")
}

// Disconnect tears down everything bound to id. Unknown ids are ignored.
func (c *Coordinator) Disconnect(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, ok := c.conns.Remove(id)
	if !ok {
		return
	}
	conn.Close()
	fields := logrus.Fields{"conn": id, "nickname": conn.Nickname}

	if sess, ok := c.byConn[id]; ok {
		seat, _ := sess.SeatOf(id)
		c.endSessionLocked(sess)
		if peer, ok := c.conns.Get(sess.Opponent(seat).ConnID); ok {
			peer.Write(protocol.PlayerDisconnected{})
		}
		fields["session"] = sess.ID
	}

	c.joins.RemoveByRequester(id)
	if c.dropRoomsLocked(id) {
		c.broadcastRoomsLocked()
	}
	c.log.WithFields(fields).Info("connection removed")
}

// Handle processes one decoded message from connection id.
func (c *Coordinator) Handle(id uuid.UUID, msg protocol.Inbound) {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, ok := c.conns.Get(id)
	if !ok || msg == nil {
		return
	}

	var err error
	switch m := msg.(type) {
	case *protocol.CreateRoom:
		err = c.createRoomLocked(conn, m)
	case *protocol.JoinRoom:
		err = c.joinRoomLocked(conn, m)
	case *protocol.AcceptRequest:
		err = c.acceptLocked(conn, m)
	case *protocol.DeclineRequest:
		err = c.declineLocked(conn, m)
	case *protocol.RollDice:
		err = c.rollLocked(conn, m)
	case *protocol.EndTurn:
		err = c.endTurnLocked(conn, m)
	case *protocol.SelectScore:
		err = c.selectScoreLocked(conn, m)
	default:
		err = fmt.Errorf("%w: %T", protocol.ErrUnknownEvent, msg)
	}
	if err != nil {
		c.rejectLocked(conn, msg.Event(), err)
	}
}

// Reject reports err to connection id as an error event.
func (c *Coordinator) Reject(id uuid.UUID, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if conn, ok := c.conns.Get(id); ok {
		c.rejectLocked(conn, "", err)
	}
}

// Rooms returns a snapshot of the directory.
func (c *Coordinator) Rooms() protocol.RoomList {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rooms.List()
}

// Stats returns current counts.
func (c *Coordinator) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Connections:     c.conns.Len(),
		Rooms:           c.rooms.Len(),
		Sessions:        len(c.sessions),
		PendingJoins:    c.joins.Len(),
		SessionsStarted: c.sessionsStarted,
		RollsRelayed:    c.rollsRelayed,
		JoinsExpired:    c.joinsExpired,
	}
}

// Shutdown cancels every connection's transport. Each pump then calls Disconnect.
func (c *Coordinator) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conns.Each(func(conn *lobby.Connection) {
		if conn.Cancel != nil {
			conn.Cancel()
		}
	})
}

func (c *Coordinator) rejectLocked(conn *lobby.Connection, ev protocol.Event, err error) {
	code := ErrorCode(err)
	c.log.WithFields(logrus.Fields{"conn": conn.ID, "event": ev, "code": code}).Warnf("rejected: %v", err)
	conn.WriteError(code, err.Error())
}

func (c *Coordinator) broadcastRoomsLocked() {
	list := c.rooms.List()
	c.conns.Each(func(conn *lobby.Connection) {
		conn.Write(list)
	})
}

// dropRoomsLocked removes the rooms owned by owner and declines their pending requests.
func (c *Coordinator) dropRoomsLocked(owner uuid.UUID) bool {
	removed := c.rooms.RemoveOwnedBy(owner)
	for _, room := range removed {
		for _, req := range c.joins.RemoveForRoom(room.ID) {
			if requester, ok := c.conns.Get(req.RequesterID); ok {
				requester.Write(protocol.JoinDeclined{})
			}
		}
	}
	return len(removed) > 0
}

func (c *Coordinator) endSessionLocked(sess *game.Session) {
	delete(c.sessions, sess.ID)
	delete(c.byConn, sess.Host.ConnID)
	delete(c.byConn, sess.Guest.ConnID)
	c.log.WithFields(logrus.Fields{
		"session":  sess.ID,
		"duration": time.Since(sess.StartedAt).Round(time.Second),
	}).Info("session ended")
}

// sessionOf returns the session conn plays in and its seat there.
func (c *Coordinator) sessionOf(conn *lobby.Connection) (*game.Session, game.Seat, error) {
	sess, ok := c.byConn[conn.ID]
	if !ok {
		return nil, 0, ErrNoSession
	}
	seat, ok := sess.SeatOf(conn.ID)
	if !ok {
		return nil, 0, game.ErrNotParticipant
	}
	return sess, seat, nil
}

func (c *Coordinator) inSession(id uuid.UUID) bool {
	_, ok := c.byConn[id]
	return ok
}
