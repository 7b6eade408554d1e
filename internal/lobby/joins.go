// internal/lobby/joins.go
package lobby

import (
	"time"

	"github.com/google/uuid"
)

// JoinRequest is a pending ask from RequesterID to enter RoomID.
type JoinRequest struct {
	ID          uuid.UUID
	RoomID      uuid.UUID
	RequesterID uuid.UUID
	Nickname    string
	CreatedAt   time.Time

	// Timer fires the expiry of this request. Stopped when the request is removed.
	Timer *time.Timer
}

// PendingJoins tracks unresolved join requests.
// Not synchronized; the relay holds its lock around every call.
type PendingJoins struct {
	byID map[uuid.UUID]*JoinRequest
}

// NewPendingJoins returns an empty set.
func NewPendingJoins() *PendingJoins {
	return &PendingJoins{byID: make(map[uuid.UUID]*JoinRequest)}
}

// Add records a request from requester for room, replacing any earlier request
// for the same pair. The replaced request, if any, is returned with its timer stopped.
func (p *PendingJoins) Add(roomID, requesterID uuid.UUID, nickname string) (req, replaced *JoinRequest) {
	if old, ok := p.Find(roomID, requesterID); ok {
		p.Remove(old.ID)
		replaced = old
	}
	req = &JoinRequest{
		ID:          uuid.New(),
		RoomID:      roomID,
		RequesterID: requesterID,
		Nickname:    nickname,
		CreatedAt:   time.Now(),
	}
	p.byID[req.ID] = req
	return req, replaced
}

// Find looks up the request from requester for room.
func (p *PendingJoins) Find(roomID, requesterID uuid.UUID) (*JoinRequest, bool) {
	for _, req := range p.byID {
		if req.RoomID == roomID && req.RequesterID == requesterID {
			return req, true
		}
	}
	return nil, false
}

// Remove drops a request and stops its timer.
func (p *PendingJoins) Remove(id uuid.UUID) (*JoinRequest, bool) {
	req, ok := p.byID[id]
	if !ok {
		return nil, false
	}
	delete(p.byID, id)
	if req.Timer != nil {
		req.Timer.Stop()
	}
	return req, true
}

// RemoveForRoom drops every request targeting room.
func (p *PendingJoins) RemoveForRoom(roomID uuid.UUID) []*JoinRequest {
	return p.removeWhere(func(r *JoinRequest) bool { return r.RoomID == roomID })
}

// RemoveByRequester drops every request made by requester.
func (p *PendingJoins) RemoveByRequester(requesterID uuid.UUID) []*JoinRequest {
	return p.removeWhere(func(r *JoinRequest) bool { return r.RequesterID == requesterID })
}

func (p *PendingJoins) removeWhere(match func(*JoinRequest) bool) []*JoinRequest {
	var out []*JoinRequest
	for id, req := range p.byID {
		if match(req) {
			p.Remove(id)
			out = append(out, req)
		}
	}
	return out
}

// Len is the number of pending requests.
func (p *PendingJoins) Len() int { return len(p.byID) }
