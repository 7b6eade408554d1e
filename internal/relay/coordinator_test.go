// internal/relay/coordinator_test.go
package relay

import (
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/yazy/internal/game"
	"github.com/jason-s-yu/yazy/internal/lobby"
	"github.com/jason-s-yu/yazy/internal/protocol"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// setupCoordinator builds a coordinator where the host always opens.
func setupCoordinator(t *testing.T, strict bool) *Coordinator {
	t.Helper()
	return New(Options{
		JoinTimeout: time.Minute,
		Rules:       game.Rules{Strict: strict},
		PickFirst:   func() game.Seat { return game.SeatHost },
		Logger:      quietLogger(),
	})
}

// connect registers a client and discards its greeting.
func connect(t *testing.T, c *Coordinator) *lobby.Connection {
	t.Helper()
	conn := lobby.NewConnection("test", 64, quietLogger())
	c.Connect(conn)
	msgs := drain(conn)
	require.Len(t, msgs, 2)
	assert.Equal(t, protocol.Connected{ID: conn.ID}, msgs[0])
	assert.Equal(t, protocol.EventUpdateRooms, msgs[1].Event())
	return conn
}

// drain returns everything queued on conn without blocking.
func drain(conn *lobby.Connection) []protocol.Outbound {
	var out []protocol.Outbound
	for {
		select {
		case msg, ok := <-conn.OutChan:
			if !ok {
				return out
			}
			out = append(out, msg)
		default:
			return out
		}
	}
}

// only asserts exactly one queued message and returns it.
func only(t *testing.T, conn *lobby.Connection) protocol.Outbound {
	t.Helper()
	msgs := drain(conn)
	require.Len(t, msgs, 1, "queued: %v", msgs)
	return msgs[0]
}

func errorCodeOf(t *testing.T, conn *lobby.Connection) string {
	t.Helper()
	msg := only(t, conn)
	notice, ok := msg.(protocol.ErrorNotice)
	require.True(t, ok, "expected error event, got %T", msg)
	return notice.Code
}

func intPtr(v int) *int { return &v }

// pair runs create, join and accept between two new clients, "Alf" hosting "Beta".
func pair(t *testing.T, c *Coordinator) (*lobby.Connection, *lobby.Connection) {
	t.Helper()
	host := connect(t, c)
	guest := connect(t, c)

	c.Handle(host.ID, &protocol.CreateRoom{Nickname: "Alf"})
	drain(host)
	drain(guest)
	room, ok := c.rooms.OwnedBy(host.ID)
	require.True(t, ok)

	c.Handle(guest.ID, &protocol.JoinRoom{RoomID: room.ID, Nickname: "Beta"})
	drain(host)

	c.Handle(host.ID, &protocol.AcceptRequest{ID: guest.ID, Nickname: "Beta", HostNickname: "Alf"})
	drain(host)
	drain(guest)
	return host, guest
}

func TestScenarioAlfBeta(t *testing.T) {
	c := setupCoordinator(t, true)
	a := connect(t, c)
	b := connect(t, c)

	c.Handle(a.ID, &protocol.CreateRoom{Nickname: "Alf"})
	roomsA := only(t, a).(protocol.RoomList)
	roomsB := only(t, b).(protocol.RoomList)
	require.Len(t, roomsA, 1)
	assert.Equal(t, "Alf", roomsA[0].Nickname)
	assert.Equal(t, roomsA, roomsB)
	roomID := roomsA[0].ID

	c.Handle(b.ID, &protocol.JoinRoom{RoomID: roomID, Nickname: "Beta"})
	assert.Equal(t, protocol.JoinRequestNotice{ID: b.ID, Nickname: "Beta", RoomID: roomID}, only(t, a))
	assert.Empty(t, drain(b))

	c.Handle(a.ID, &protocol.AcceptRequest{ID: b.ID, Nickname: "Beta", HostNickname: "Alf"})
	msgsA, msgsB := drain(a), drain(b)
	require.Len(t, msgsA, 2)
	require.Len(t, msgsB, 2)
	readyA := msgsA[0].(protocol.GameReady)
	readyB := msgsB[0].(protocol.GameReady)
	assert.Equal(t, protocol.RoleHost, readyA.Role)
	assert.Equal(t, protocol.RolePlayer, readyB.Role)
	assert.Equal(t, "Beta", readyA.Opponent)
	assert.Equal(t, "Alf", readyB.Opponent)
	assert.Equal(t, readyA.CurrentTurn, readyB.CurrentTurn)
	assert.Equal(t, "Alf", readyA.CurrentTurn)
	assert.Equal(t, readyA.SessionID, readyB.SessionID)
	// The room is no longer advertised once matched.
	assert.Equal(t, protocol.RoomList{}, msgsA[1])
	assert.Equal(t, protocol.RoomList{}, msgsB[1])

	c.Handle(a.ID, &protocol.RollDice{Nickname: "Alf", Dice: []int{3, 3, 3, 5, 6}})
	assert.Equal(t, protocol.OpponentRoll{Dice: []int{3, 3, 3, 5, 6}}, only(t, b))
	assert.Empty(t, drain(a), "rolls are point-to-point")

	c.Handle(a.ID, &protocol.EndTurn{Nickname: "Alf"})
	assert.Equal(t, protocol.SwitchTurn{NextTurn: "Beta"}, only(t, a))
	assert.Equal(t, protocol.SwitchTurn{NextTurn: "Beta"}, only(t, b))

	c.Disconnect(b.ID)
	assert.Equal(t, protocol.PlayerDisconnected{}, only(t, a))
}

func TestRoomBroadcastConsistency(t *testing.T) {
	c := setupCoordinator(t, true)
	clients := make([]*lobby.Connection, 4)
	views := make(map[uuid.UUID]protocol.RoomList)
	for i := range clients {
		clients[i] = connect(t, c)
	}
	sync := func() {
		for _, cl := range clients {
			if cl.Closed() {
				continue
			}
			for _, msg := range drain(cl) {
				if list, ok := msg.(protocol.RoomList); ok {
					views[cl.ID] = list
				}
			}
		}
		for _, cl := range clients {
			if !cl.Closed() {
				assert.Equal(t, c.Rooms(), views[cl.ID], "client %s out of sync", cl.ID)
			}
		}
	}

	for i, cl := range clients[:3] {
		c.Handle(cl.ID, &protocol.CreateRoom{Nickname: fmt.Sprintf("p%d", i)})
		sync()
	}
	assert.Len(t, c.Rooms(), 3)

	c.Disconnect(clients[1].ID)
	sync()
	assert.Len(t, c.Rooms(), 2)

	c.Disconnect(clients[3].ID) // owns nothing
	sync()

	c.Disconnect(clients[0].ID)
	sync()
	require.Len(t, c.Rooms(), 1)
	assert.Equal(t, "p2", c.Rooms()[0].Nickname)
}

func TestNewcomerReceivesRoomSnapshot(t *testing.T) {
	c := setupCoordinator(t, true)
	host := connect(t, c)
	c.Handle(host.ID, &protocol.CreateRoom{Nickname: "Alf"})
	drain(host)

	late := lobby.NewConnection("late", 8, quietLogger())
	c.Connect(late)
	msgs := drain(late)
	require.Len(t, msgs, 2)
	list := msgs[1].(protocol.RoomList)
	require.Len(t, list, 1)
	assert.Equal(t, "Alf", list[0].Nickname)
}

func TestCreateRoomRejections(t *testing.T) {
	c := setupCoordinator(t, true)
	a := connect(t, c)

	c.Handle(a.ID, &protocol.CreateRoom{Nickname: "  "})
	assert.Equal(t, "invalid-nickname", errorCodeOf(t, a))

	c.Handle(a.ID, &protocol.CreateRoom{Nickname: "Alf"})
	drain(a)
	c.Handle(a.ID, &protocol.CreateRoom{Nickname: "Alf"})
	assert.Equal(t, "room-exists", errorCodeOf(t, a))

	host, _ := pair(t, c)
	c.Handle(host.ID, &protocol.CreateRoom{Nickname: "Again"})
	assert.Equal(t, "already-in-game", errorCodeOf(t, host))
}

func TestJoinRoomRejections(t *testing.T) {
	c := setupCoordinator(t, true)
	a := connect(t, c)
	b := connect(t, c)

	c.Handle(b.ID, &protocol.JoinRoom{RoomID: uuid.New(), Nickname: "Beta"})
	assert.Equal(t, "room-not-found", errorCodeOf(t, b))

	// Joining by the owner's connection id no longer addresses the room.
	c.Handle(a.ID, &protocol.CreateRoom{Nickname: "Alf"})
	rooms := only(t, a).(protocol.RoomList)
	drain(b)
	c.Handle(b.ID, &protocol.JoinRoom{RoomID: a.ID, Nickname: "Beta"})
	assert.Equal(t, "room-not-found", errorCodeOf(t, b))

	c.Handle(a.ID, &protocol.JoinRoom{RoomID: rooms[0].ID, Nickname: "Alf"})
	assert.Equal(t, "own-room", errorCodeOf(t, a))
}

func TestAcceptRejections(t *testing.T) {
	c := setupCoordinator(t, true)
	a := connect(t, c)
	b := connect(t, c)

	c.Handle(a.ID, &protocol.AcceptRequest{ID: b.ID, Nickname: "Beta", HostNickname: "Alf"})
	assert.Equal(t, "no-room", errorCodeOf(t, a))

	c.Handle(a.ID, &protocol.CreateRoom{Nickname: "Alf"})
	rooms := only(t, a).(protocol.RoomList)
	drain(b)

	c.Handle(a.ID, &protocol.AcceptRequest{ID: b.ID, Nickname: "Beta", HostNickname: "Alf"})
	assert.Equal(t, "no-request", errorCodeOf(t, a))

	c.Handle(b.ID, &protocol.JoinRoom{RoomID: rooms[0].ID, Nickname: "Beta"})
	drain(a)
	c.Disconnect(b.ID)
	c.Handle(a.ID, &protocol.AcceptRequest{ID: b.ID, Nickname: "Beta", HostNickname: "Alf"})
	assert.Equal(t, "no-request", errorCodeOf(t, a), "requests die with their requester")
	assert.Len(t, c.Rooms(), 1, "the room stays open")
}

func TestDuplicateAcceptCreatesOneSession(t *testing.T) {
	c := setupCoordinator(t, true)
	host := connect(t, c)
	b := connect(t, c)
	d := connect(t, c)

	c.Handle(host.ID, &protocol.CreateRoom{Nickname: "Alf"})
	rooms := only(t, host).(protocol.RoomList)
	drain(b)
	drain(d)
	c.Handle(b.ID, &protocol.JoinRoom{RoomID: rooms[0].ID, Nickname: "Beta"})
	c.Handle(d.ID, &protocol.JoinRoom{RoomID: rooms[0].ID, Nickname: "Delta"})
	drain(host)

	c.Handle(host.ID, &protocol.AcceptRequest{ID: b.ID, Nickname: "Beta", HostNickname: "Alf"})
	drain(host)
	drain(b)
	// Delta's pending request was declined when the room closed.
	msgs := drain(d)
	require.Len(t, msgs, 2)
	assert.Equal(t, protocol.JoinDeclined{}, msgs[0])
	assert.Equal(t, protocol.RoomList{}, msgs[1])

	c.Handle(host.ID, &protocol.AcceptRequest{ID: d.ID, Nickname: "Delta", HostNickname: "Alf"})
	assert.Equal(t, "no-room", errorCodeOf(t, host))
	assert.Empty(t, drain(d))
	assert.Equal(t, 1, c.Stats().Sessions)
}

func TestAcceptWithdrawsGuestRoom(t *testing.T) {
	c := setupCoordinator(t, true)
	a := connect(t, c)
	b := connect(t, c)

	c.Handle(a.ID, &protocol.CreateRoom{Nickname: "Alf"})
	c.Handle(b.ID, &protocol.CreateRoom{Nickname: "Beta"})
	drain(a)
	rooms := drain(b)[1].(protocol.RoomList)
	require.Len(t, rooms, 2)

	c.Handle(b.ID, &protocol.JoinRoom{RoomID: rooms[0].ID, Nickname: "Beta"})
	drain(a)
	c.Handle(a.ID, &protocol.AcceptRequest{ID: b.ID, Nickname: "Beta", HostNickname: "Alf"})
	assert.Empty(t, c.Rooms())
}

func TestAcceptDropsHostRequestsElsewhere(t *testing.T) {
	c := New(Options{
		JoinTimeout: 50 * time.Millisecond,
		Rules:       game.Rules{Strict: true},
		PickFirst:   func() game.Seat { return game.SeatHost },
		Logger:      quietLogger(),
	})
	xeno := connect(t, c)
	alf := connect(t, c)
	beta := connect(t, c)

	c.Handle(xeno.ID, &protocol.CreateRoom{Nickname: "Xeno"})
	c.Handle(alf.ID, &protocol.CreateRoom{Nickname: "Alf"})
	xenoRoom, ok := c.rooms.OwnedBy(xeno.ID)
	require.True(t, ok)
	alfRoom, ok := c.rooms.OwnedBy(alf.ID)
	require.True(t, ok)

	c.Handle(alf.ID, &protocol.JoinRoom{RoomID: xenoRoom.ID, Nickname: "Alf"})
	c.Handle(beta.ID, &protocol.JoinRoom{RoomID: alfRoom.ID, Nickname: "Beta"})
	require.Equal(t, 2, c.Stats().PendingJoins)
	drain(xeno)
	drain(alf)
	drain(beta)

	c.Handle(alf.ID, &protocol.AcceptRequest{ID: beta.ID, Nickname: "Beta", HostNickname: "Alf"})
	assert.Equal(t, 0, c.Stats().PendingJoins)
	assert.Equal(t, 1, c.Stats().Sessions)
	drain(alf)

	time.Sleep(120 * time.Millisecond)
	for _, msg := range drain(alf) {
		assert.NotEqual(t, protocol.EventJoinExpired, msg.Event(), "host got %v mid-game", msg)
	}
	assert.Equal(t, uint64(0), c.Stats().JoinsExpired)

	// Xeno can no longer accept the withdrawn request.
	drain(xeno)
	c.Handle(xeno.ID, &protocol.AcceptRequest{ID: alf.ID})
	assert.Equal(t, "no-request", errorCodeOf(t, xeno))
}

func TestRepeatedJoinRefreshesRequest(t *testing.T) {
	c := New(Options{
		JoinTimeout: 30 * time.Millisecond,
		Logger:      quietLogger(),
	})
	a := connect(t, c)
	b := connect(t, c)

	c.Handle(a.ID, &protocol.CreateRoom{Nickname: "Alf"})
	rooms := only(t, a).(protocol.RoomList)
	drain(b)

	c.Handle(b.ID, &protocol.JoinRoom{RoomID: rooms[0].ID, Nickname: "Beta"})
	c.Handle(b.ID, &protocol.JoinRoom{RoomID: rooms[0].ID, Nickname: "Beta"})
	assert.Len(t, drain(a), 2)
	assert.Equal(t, 1, c.Stats().PendingJoins)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, []protocol.Outbound{protocol.JoinExpired{RoomID: rooms[0].ID}}, drain(b))
	assert.Equal(t, uint64(1), c.Stats().JoinsExpired)
}

func TestAcceptFallsBackToKnownNicknames(t *testing.T) {
	c := setupCoordinator(t, true)
	a := connect(t, c)
	b := connect(t, c)

	c.Handle(a.ID, &protocol.CreateRoom{Nickname: "Alf"})
	rooms := only(t, a).(protocol.RoomList)
	drain(b)
	c.Handle(b.ID, &protocol.JoinRoom{RoomID: rooms[0].ID, Nickname: "Beta"})
	drain(a)

	c.Handle(a.ID, &protocol.AcceptRequest{ID: b.ID})
	ready := drain(a)[0].(protocol.GameReady)
	assert.Equal(t, "Alf", ready.Nickname)
	assert.Equal(t, "Beta", ready.Opponent)
}

func TestDecline(t *testing.T) {
	c := setupCoordinator(t, true)
	a := connect(t, c)
	b := connect(t, c)

	c.Handle(a.ID, &protocol.CreateRoom{Nickname: "Alf"})
	rooms := only(t, a).(protocol.RoomList)
	drain(b)
	c.Handle(b.ID, &protocol.JoinRoom{RoomID: rooms[0].ID, Nickname: "Beta"})
	drain(a)

	c.Handle(a.ID, &protocol.DeclineRequest{ID: b.ID})
	assert.Equal(t, protocol.JoinDeclined{}, only(t, b))
	assert.Empty(t, drain(a))
	assert.Len(t, c.Rooms(), 1, "decline leaves the room open")
	assert.Equal(t, 0, c.Stats().PendingJoins)

	c.Handle(a.ID, &protocol.DeclineRequest{ID: b.ID})
	assert.Equal(t, "no-request", errorCodeOf(t, a))
}

func TestJoinRequestExpires(t *testing.T) {
	c := New(Options{
		JoinTimeout: 20 * time.Millisecond,
		Rules:       game.Rules{Strict: true},
		Logger:      quietLogger(),
	})
	a := connect(t, c)
	b := connect(t, c)

	c.Handle(a.ID, &protocol.CreateRoom{Nickname: "Alf"})
	rooms := only(t, a).(protocol.RoomList)
	drain(b)
	c.Handle(b.ID, &protocol.JoinRoom{RoomID: rooms[0].ID, Nickname: "Beta"})
	drain(a)

	select {
	case msg := <-b.OutChan:
		assert.Equal(t, protocol.JoinExpired{RoomID: rooms[0].ID}, msg)
	case <-time.After(2 * time.Second):
		t.Fatal("join request did not expire")
	}
	assert.Equal(t, uint64(1), c.Stats().JoinsExpired)

	c.Handle(a.ID, &protocol.AcceptRequest{ID: b.ID, Nickname: "Beta", HostNickname: "Alf"})
	assert.Equal(t, "no-request", errorCodeOf(t, a))
}

func TestAnsweredRequestDoesNotExpire(t *testing.T) {
	c := New(Options{
		JoinTimeout: 20 * time.Millisecond,
		Logger:      quietLogger(),
	})
	a := connect(t, c)
	b := connect(t, c)

	c.Handle(a.ID, &protocol.CreateRoom{Nickname: "Alf"})
	rooms := only(t, a).(protocol.RoomList)
	drain(b)
	c.Handle(b.ID, &protocol.JoinRoom{RoomID: rooms[0].ID, Nickname: "Beta"})
	c.Handle(a.ID, &protocol.DeclineRequest{ID: b.ID})
	assert.Equal(t, protocol.JoinDeclined{}, only(t, b))

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, drain(b))
	assert.Equal(t, uint64(0), c.Stats().JoinsExpired)
}

func TestOwnerDisconnectDeclinesPendingRequests(t *testing.T) {
	c := setupCoordinator(t, true)
	a := connect(t, c)
	b := connect(t, c)

	c.Handle(a.ID, &protocol.CreateRoom{Nickname: "Alf"})
	rooms := only(t, a).(protocol.RoomList)
	drain(b)
	c.Handle(b.ID, &protocol.JoinRoom{RoomID: rooms[0].ID, Nickname: "Beta"})

	c.Disconnect(a.ID)
	msgs := drain(b)
	require.Len(t, msgs, 2)
	assert.Equal(t, protocol.JoinDeclined{}, msgs[0])
	assert.Equal(t, protocol.RoomList{}, msgs[1])
	assert.Equal(t, 0, c.Stats().PendingJoins)
}

func TestDisconnectCleanup(t *testing.T) {
	c := setupCoordinator(t, true)
	host, guest := pair(t, c)

	c.Disconnect(host.ID)
	assert.Equal(t, protocol.PlayerDisconnected{}, only(t, guest))
	assert.True(t, host.Closed())

	// Idempotent: a second disconnect notifies nobody.
	c.Disconnect(host.ID)
	assert.Empty(t, drain(guest))

	c.Handle(guest.ID, &protocol.RollDice{Nickname: "Beta", Dice: []int{1, 2, 3, 4, 5}})
	assert.Equal(t, "no-session", errorCodeOf(t, guest))
	c.Handle(guest.ID, &protocol.EndTurn{Nickname: "Beta"})
	assert.Equal(t, "no-session", errorCodeOf(t, guest))

	// The former host's id is gone entirely.
	c.Handle(host.ID, &protocol.RollDice{Nickname: "Alf", Dice: []int{1, 2, 3, 4, 5}})
	assert.Equal(t, 0, c.Stats().Sessions)

	// The survivor may open a fresh room.
	c.Handle(guest.ID, &protocol.CreateRoom{Nickname: "Beta"})
	assert.IsType(t, protocol.RoomList{}, only(t, guest))
}

func TestTurnAlternationAcrossRelay(t *testing.T) {
	c := setupCoordinator(t, false)
	host, guest := pair(t, c)

	want := []string{"Beta", "Alf", "Beta", "Alf"}
	senders := []*lobby.Connection{host, guest, host, guest}
	for i, sender := range senders {
		c.Handle(sender.ID, &protocol.EndTurn{})
		assert.Equal(t, protocol.SwitchTurn{NextTurn: want[i]}, only(t, host))
		assert.Equal(t, protocol.SwitchTurn{NextTurn: want[i]}, only(t, guest))
	}
}

func TestStrictRejectionsAreNotRelayed(t *testing.T) {
	c := setupCoordinator(t, true)
	host, guest := pair(t, c)

	c.Handle(guest.ID, &protocol.RollDice{Dice: []int{1, 2, 3, 4, 5}})
	assert.Equal(t, "not-your-turn", errorCodeOf(t, guest))
	assert.Empty(t, drain(host))

	c.Handle(host.ID, &protocol.RollDice{Dice: []int{1, 2, 3, 4, 7}})
	assert.Equal(t, "invalid-dice", errorCodeOf(t, host))
	assert.Empty(t, drain(guest))

	c.Handle(host.ID, &protocol.SelectScore{Index: intPtr(0)})
	assert.Equal(t, "no-roll", errorCodeOf(t, host))

	for i := 0; i < protocol.MaxRollsPerTurn; i++ {
		c.Handle(host.ID, &protocol.RollDice{Dice: []int{1, 1, 2, 2, 2}})
		only(t, guest)
	}
	c.Handle(host.ID, &protocol.RollDice{Dice: []int{1, 1, 2, 2, 2}})
	assert.Equal(t, "roll-limit", errorCodeOf(t, host))

	c.Handle(host.ID, &protocol.SelectScore{})
	assert.Equal(t, "invalid-combination", errorCodeOf(t, host))

	c.Handle(guest.ID, &protocol.EndTurn{})
	assert.Equal(t, "not-your-turn", errorCodeOf(t, guest))
	assert.Empty(t, drain(host))
}

func TestSelectScoreSyncsBothSheets(t *testing.T) {
	c := setupCoordinator(t, true)
	host, guest := pair(t, c)

	c.Handle(host.ID, &protocol.RollDice{Dice: []int{2, 3, 4, 5, 6}})
	drain(guest)
	c.Handle(host.ID, &protocol.SelectScore{Nickname: "Alf", Index: intPtr(9), Score: intPtr(25)})

	hostView := only(t, host).(protocol.ScoreUpdate)
	guestView := only(t, guest).(protocol.ScoreUpdate)
	assert.True(t, hostView.UsedComb[9])
	assert.Equal(t, 25, *hostView.PlayerScore[9])
	assert.True(t, guestView.OpponentUsedComb[9])
	assert.Equal(t, 25, *guestView.OpponentScore[9])
	assert.False(t, guestView.UsedComb[9])

	c.Handle(host.ID, &protocol.EndTurn{})
	drain(host)
	drain(guest)
	c.Handle(guest.ID, &protocol.RollDice{Dice: []int{2, 3, 4, 5, 6}})
	drain(host)
	c.Handle(guest.ID, &protocol.SelectScore{Index: intPtr(9), Score: intPtr(25)})
	guestView = only(t, guest).(protocol.ScoreUpdate)
	assert.True(t, guestView.UsedComb[9], "rows are per participant")
	only(t, host)
}

func TestRelaxedRulesRelayBlindly(t *testing.T) {
	c := setupCoordinator(t, false)
	host, guest := pair(t, c)

	c.Handle(guest.ID, &protocol.RollDice{Dice: []int{9, 9}})
	assert.Equal(t, protocol.OpponentRoll{Dice: []int{9, 9}}, only(t, host))
	assert.Empty(t, drain(guest))
}

func TestRollRelayFidelity(t *testing.T) {
	c := setupCoordinator(t, true)
	host, guest := pair(t, c)

	rolls := [][]int{{1, 2, 3, 4, 5}, {6, 5, 4, 3, 2}, {6, 6, 6, 6, 6}}
	for _, dice := range rolls {
		sent := append([]int(nil), dice...)
		c.Handle(host.ID, &protocol.RollDice{Dice: sent})
		sent[0] = 0 // sender mutating its slice afterwards must not leak
		assert.Equal(t, protocol.OpponentRoll{Dice: dice}, only(t, guest))
	}
	assert.Equal(t, uint64(3), c.Stats().RollsRelayed)
}

func TestRejectUnknownConnection(t *testing.T) {
	c := setupCoordinator(t, true)
	a := connect(t, c)

	c.Reject(a.ID, fmt.Errorf("decode: %w", protocol.ErrMalformed))
	assert.Equal(t, "malformed", errorCodeOf(t, a))

	c.Reject(uuid.New(), protocol.ErrMalformed)
	c.Handle(uuid.New(), &protocol.CreateRoom{Nickname: "ghost"})
	assert.Empty(t, c.Rooms())
}

func TestStats(t *testing.T) {
	c := setupCoordinator(t, true)
	pair(t, c)
	solo := connect(t, c)
	c.Handle(solo.ID, &protocol.CreateRoom{Nickname: "Solo"})

	st := c.Stats()
	assert.Equal(t, 3, st.Connections)
	assert.Equal(t, 1, st.Rooms)
	assert.Equal(t, 1, st.Sessions)
	assert.Equal(t, uint64(1), st.SessionsStarted)
}

func TestShutdownCancelsConnections(t *testing.T) {
	c := setupCoordinator(t, true)
	conn := lobby.NewConnection("test", 8, quietLogger())
	cancelled := make(chan struct{})
	conn.Cancel = func() { close(cancelled) }
	c.Connect(conn)

	c.Shutdown()
	select {
	case <-cancelled:
	default:
		t.Fatal("connection was not cancelled")
	}
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "not-your-turn", ErrorCode(game.ErrNotYourTurn))
	assert.Equal(t, "room-exists", ErrorCode(fmt.Errorf("create: %w", lobby.ErrRoomExists)))
	assert.Equal(t, "unknown-event", ErrorCode(protocol.ErrUnknownEvent))
	assert.Equal(t, "internal", ErrorCode(fmt.Errorf("boom")))
}
