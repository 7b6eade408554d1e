// internal/lobby/connection.go
package lobby

import (
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/yazy/internal/protocol"
	"github.com/sirupsen/logrus"
)

// Connection is one live client. The relay owns it between Connect and Disconnect;
// Write and Close must only be called while the relay's lock is held.
type Connection struct {
	ID          uuid.UUID
	Nickname    string
	RemoteAddr  string
	ConnectedAt time.Time

	// OutChan is drained by the transport's write pump.
	OutChan chan protocol.Outbound
	// Cancel stops the transport goroutines serving this connection.
	Cancel func()

	logger logrus.FieldLogger
	closed bool
}

// NewConnection allocates a connection with a fresh id and an outbox of the given size.
func NewConnection(remoteAddr string, outboxSize int, logger logrus.FieldLogger) *Connection {
	if outboxSize <= 0 {
		outboxSize = 16
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	id := uuid.New()
	return &Connection{
		ID:          id,
		RemoteAddr:  remoteAddr,
		ConnectedAt: time.Now(),
		OutChan:     make(chan protocol.Outbound, outboxSize),
		logger:      logger.WithField("conn", id),
	}
}

// Write queues msg without blocking. A full or closed outbox drops the message.
func (c *Connection) Write(msg protocol.Outbound) bool {
	if c.closed {
		return false
	}
	select {
	case c.OutChan <- msg:
		return true
	default:
		c.logger.Warnf("outbox full, dropped %s", msg.Event())
		return false
	}
}

// WriteError sends an error event to the client.
func (c *Connection) WriteError(code, message string) {
	c.Write(protocol.ErrorNotice{Code: code, Message: message})
}

// Close closes the outbox and cancels the transport. Safe to call twice.
func (c *Connection) Close() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.OutChan)
	if c.Cancel != nil {
		c.Cancel()
	}
}

// Closed reports whether Close has run.
func (c *Connection) Closed() bool { return c.closed }
