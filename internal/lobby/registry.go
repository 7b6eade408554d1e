// internal/lobby/registry.go
package lobby

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxNicknameLength bounds nicknames, counted in runes.
const MaxNicknameLength = 32

// ErrInvalidNickname is returned for empty or oversized nicknames.
var ErrInvalidNickname = errors.New("nickname must be 1 to 32 characters")

// NormalizeNickname trims nick and checks its length.
func NormalizeNickname(nick string) (string, error) {
	nick = strings.TrimSpace(nick)
	if nick == "" || utf8.RuneCountInString(nick) > MaxNicknameLength {
		return "", ErrInvalidNickname
	}
	return nick, nil
}

// Registry maps live connection ids to their connections.
// Not synchronized; the relay holds its lock around every call.
type Registry struct {
	conns map[uuid.UUID]*Connection
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[uuid.UUID]*Connection)}
}

// Add registers conn under its id.
func (r *Registry) Add(conn *Connection) {
	r.conns[conn.ID] = conn
}

// Remove unregisters id and returns the connection that was bound to it.
func (r *Registry) Remove(id uuid.UUID) (*Connection, bool) {
	conn, ok := r.conns[id]
	if ok {
		delete(r.conns, id)
	}
	return conn, ok
}

// Get looks up a live connection.
func (r *Registry) Get(id uuid.UUID) (*Connection, bool) {
	conn, ok := r.conns[id]
	return conn, ok
}

// Each calls fn for every live connection.
func (r *Registry) Each(fn func(*Connection)) {
	for _, c := range r.conns {
		fn(c)
	}
}

// Len is the number of live connections.
func (r *Registry) Len() int { return len(r.conns) }
