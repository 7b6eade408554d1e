// internal/handlers/http.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/jason-s-yu/yazy/internal/middleware"
	"github.com/jason-s-yu/yazy/internal/protocol"
	"github.com/jason-s-yu/yazy/internal/relay"
	"github.com/sirupsen/logrus"
)

// RoomSource lists open rooms.
type RoomSource interface {
	Rooms() protocol.RoomList
}

// StatsSource reports relay counters.
type StatsSource interface {
	Stats() relay.Stats
}

// Relay is everything the router needs from the coordinator.
type Relay interface {
	Hub
	RoomSource
	StatsSource
}

// NewRouter wires every endpoint behind the request logger.
func NewRouter(logger logrus.FieldLogger, rl Relay, opts WSOptions) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /ws", WSHandler(logger, rl, opts))
	mux.Handle("GET /rooms", RoomsHandler(rl))
	mux.Handle("GET /stats", StatsHandler(rl))
	mux.Handle("GET /healthz", HealthHandler())
	return middleware.LogMiddleware(logger)(mux)
}

// RoomsHandler serves the same array update-rooms carries.
func RoomsHandler(src RoomSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, src.Rooms())
	}
}

// StatsHandler serves a snapshot of the relay counters.
func StatsHandler(src StatsSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, src.Stats())
	}
}

// HealthHandler answers liveness checks.
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
