// internal/handlers/ws_codes.go
package handlers

import "github.com/coder/websocket"

// Custom WebSocket close codes used by the relay endpoint.
// These provide more specific reasons for closure than standard codes.
const (
	BadSubprotocolError websocket.StatusCode = 3000 // Client offered subprotocols, none of them "yazy".
	SlowConsumerError   websocket.StatusCode = 3002 // A write to the client timed out.
)
