// Package ws pushes session lifecycle events to browser clients and accepts
// the same bot commands the HTTP surface exposes. Connections join a room
// keyed by user id after presenting a valid bearer token; the bot registry
// emits into rooms through the Notifier interface.
package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"zapbot/api/internal/auth"
	"zapbot/api/internal/bot"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
)

// Frame is the wire shape in both directions.
type Frame struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data,omitempty"`
}

type Hub struct {
	auth     *auth.Service
	registry *bot.Registry
	log      zerolog.Logger
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	rooms map[int64]map[*Conn]struct{}
}

func NewHub(authService *auth.Service, registry *bot.Registry, log zerolog.Logger) *Hub {
	return &Hub{
		auth:     authService,
		registry: registry,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The HTTP layer already handles CORS; the token check is the
			// actual gate.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		rooms: make(map[int64]map[*Conn]struct{}),
	}
}

// Notify implements bot.Notifier: fan an event out to every connection in
// the user's room.
func (h *Hub) Notify(userID int64, event string, data map[string]any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.rooms[userID] {
		conn.send(Frame{Event: event, Data: data})
	}
}

// Handle upgrades the request and services the connection until it closes.
func (h *Hub) Handle(c *gin.Context) {
	socket, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	conn := newConn(h, socket)
	h.log.Debug().Str("conn_id", conn.id).Msg("websocket connected")

	go conn.writePump()
	conn.readPump()
}

func (h *Hub) join(userID int64, conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[userID]
	if !ok {
		room = make(map[*Conn]struct{})
		h.rooms[userID] = room
	}
	room[conn] = struct{}{}
}

func (h *Hub) leave(conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conn.userID == 0 {
		return
	}
	if room, ok := h.rooms[conn.userID]; ok {
		delete(room, conn)
		if len(room) == 0 {
			delete(h.rooms, conn.userID)
		}
	}
}
