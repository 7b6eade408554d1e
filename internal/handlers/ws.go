// internal/handlers/ws.go
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/yazy/internal/lobby"
	"github.com/jason-s-yu/yazy/internal/middleware"
	"github.com/jason-s-yu/yazy/internal/protocol"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Subprotocol is the websocket subprotocol clients should request.
const Subprotocol = "yazy"

var errOutboxClosed = errors.New("outbox closed")

// Hub is the part of the relay a websocket connection talks to.
type Hub interface {
	Connect(conn *lobby.Connection)
	Disconnect(id uuid.UUID)
	Handle(id uuid.UUID, msg protocol.Inbound)
	Reject(id uuid.UUID, err error)
}

// WSOptions tunes the websocket endpoint. Zero values fall back to defaults.
type WSOptions struct {
	OriginPatterns  []string
	MaxMessageBytes int64
	OutboxSize      int
	PingInterval    time.Duration
	WriteTimeout    time.Duration
}

func (o WSOptions) withDefaults() WSOptions {
	if len(o.OriginPatterns) == 0 {
		o.OriginPatterns = []string{"*"}
	}
	if o.MaxMessageBytes <= 0 {
		o.MaxMessageBytes = 4096
	}
	if o.OutboxSize <= 0 {
		o.OutboxSize = 32
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 30 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 5 * time.Second
	}
	return o
}

// WSHandler upgrades the request and serves one client until either side goes away.
func WSHandler(logger logrus.FieldLogger, hub Hub, opts WSOptions) http.HandlerFunc {
	opts = opts.withDefaults()
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{Subprotocol},
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.CloseNow()

		offered := len(r.Header.Values("Sec-WebSocket-Protocol")) > 0
		if offered && c.Subprotocol() != Subprotocol {
			c.Close(BadSubprotocolError, "client must speak the yazy subprotocol")
			return
		}
		c.SetReadLimit(opts.MaxMessageBytes)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		var finished atomic.Bool
		conn := lobby.NewConnection(r.RemoteAddr, opts.OutboxSize, logger)
		// Cancel is invoked with the relay lock held, so the close handshake runs on its own goroutine.
		conn.Cancel = func() {
			if !finished.Load() {
				go c.Close(websocket.StatusGoingAway, "server shutting down")
			}
		}
		hub.Connect(conn)
		middleware.LogWebSocketConnect(logger, conn.ID, r.RemoteAddr, r.URL.Path)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return writePump(gctx, c, conn, opts, logger) })
		g.Go(func() error { return readPump(gctx, c, hub, conn) })
		err = g.Wait()

		finished.Store(true)
		hub.Disconnect(conn.ID)

		if websocket.CloseStatus(err) != -1 {
			// A close frame was exchanged, whichever side started it.
			err = nil
		} else {
			c.Close(websocket.StatusInternalError, "connection closed")
		}
		middleware.LogWebSocketDisconnect(logger, conn.ID, r.RemoteAddr, r.URL.Path, err)
	}
}

// readPump decodes each text frame and hands it to the hub in arrival order.
func readPump(ctx context.Context, c *websocket.Conn, hub Hub, conn *lobby.Connection) error {
	for {
		typ, frame, err := c.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			hub.Reject(conn.ID, fmt.Errorf("%w: binary frames are not accepted", protocol.ErrMalformed))
			continue
		}
		msg, err := protocol.Decode(frame)
		if err != nil {
			hub.Reject(conn.ID, err)
			continue
		}
		hub.Handle(conn.ID, msg)
	}
}

// writePump drains the connection outbox and keeps the socket alive with pings.
func writePump(ctx context.Context, c *websocket.Conn, conn *lobby.Connection, opts WSOptions, logger logrus.FieldLogger) error {
	ticker := time.NewTicker(opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-conn.OutChan:
			if !ok {
				return errOutboxClosed
			}
			data, err := protocol.Encode(msg)
			if err != nil {
				logger.Warnf("failed to encode %s for %v: %v", msg.Event(), conn.ID, err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, opts.WriteTimeout)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if errors.Is(err, context.DeadlineExceeded) {
				c.Close(SlowConsumerError, "write timed out")
			}
			if err != nil {
				return fmt.Errorf("write %s: %w", msg.Event(), err)
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, opts.WriteTimeout)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				return fmt.Errorf("ping: %w", err)
			}
		}
	}
}
