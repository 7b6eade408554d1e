// internal/lobby/rooms.go
package lobby

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/yazy/internal/protocol"
)

var (
	// ErrRoomExists is returned when an owner already advertises an open room.
	ErrRoomExists = errors.New("you already have an open room")
	// ErrRoomNotFound is returned for a room id that is not in the directory.
	ErrRoomNotFound = errors.New("room not found")
	// ErrOwnRoom is returned when an owner asks to join its own room.
	ErrOwnRoom = errors.New("cannot join your own room")
)

// Room is an advertised, unmatched game offer.
type Room struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Nickname  string
	CreatedAt time.Time
}

// Directory holds the open rooms in creation order.
// Not synchronized; the relay holds its lock around every call.
type Directory struct {
	rooms []*Room
}

// NewDirectory returns an empty directory.
func NewDirectory() *Directory {
	return &Directory{}
}

// Create opens a room for owner. An owner has at most one open room.
func (d *Directory) Create(ownerID uuid.UUID, nickname string) (*Room, error) {
	if _, ok := d.OwnedBy(ownerID); ok {
		return nil, ErrRoomExists
	}
	room := &Room{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Nickname:  nickname,
		CreatedAt: time.Now(),
	}
	d.rooms = append(d.rooms, room)
	return room, nil
}

// Get looks up a room by id.
func (d *Directory) Get(id uuid.UUID) (*Room, bool) {
	for _, r := range d.rooms {
		if r.ID == id {
			return r, true
		}
	}
	return nil, false
}

// OwnedBy returns the open room advertised by owner, if any.
func (d *Directory) OwnedBy(ownerID uuid.UUID) (*Room, bool) {
	for _, r := range d.rooms {
		if r.OwnerID == ownerID {
			return r, true
		}
	}
	return nil, false
}

// RemoveOwnedBy drops every room advertised by owner and returns them.
func (d *Directory) RemoveOwnedBy(ownerID uuid.UUID) []*Room {
	return d.filter(func(r *Room) bool { return r.OwnerID == ownerID })
}

func (d *Directory) filter(drop func(*Room) bool) []*Room {
	var removed []*Room
	kept := d.rooms[:0]
	for _, r := range d.rooms {
		if drop(r) {
			removed = append(removed, r)
			continue
		}
		kept = append(kept, r)
	}
	for i := len(kept); i < len(d.rooms); i++ {
		d.rooms[i] = nil
	}
	d.rooms = kept
	return removed
}

// List is the wire form of the directory. Never nil.
func (d *Directory) List() protocol.RoomList {
	out := make(protocol.RoomList, 0, len(d.rooms))
	for _, r := range d.rooms {
		out = append(out, protocol.RoomView{ID: r.ID, Nickname: r.Nickname})
	}
	return out
}

// Len is the number of open rooms.
func (d *Directory) Len() int { return len(d.rooms) }
