package ws

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/segmentio/ksuid"
)

// Conn is one browser connection. Outbound frames go through a buffered
// channel drained by a single writer goroutine, as gorilla requires.
type Conn struct {
	id     string
	hub    *Hub
	socket *websocket.Conn
	out    chan Frame
	closed atomic.Bool

	// set once on a successful authenticate frame, read by the hub.
	userID int64
}

func newConn(hub *Hub, socket *websocket.Conn) *Conn {
	return &Conn{
		id:     ksuid.New().String(),
		hub:    hub,
		socket: socket,
		out:    make(chan Frame, 16),
	}
}

func (c *Conn) send(frame Frame) {
	if c.closed.Load() {
		return
	}
	select {
	case c.out <- frame:
	default:
		// Slow consumer; drop rather than block the emitter.
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.socket.Close()
	}()

	for {
		select {
		case frame, ok := <-c.out:
			c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.socket.WriteJSON(frame); err != nil {
				return
			}
		case <-ticker.C:
			c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Conn) readPump() {
	defer func() {
		c.closed.Store(true)
		c.hub.leave(c)
		close(c.out)
		c.socket.Close()
		c.hub.log.Debug().Str("conn_id", c.id).Msg("websocket disconnected")
	}()

	c.socket.SetReadLimit(maxMessageSize)
	c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		c.socket.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, payload, err := c.socket.ReadMessage()
		if err != nil {
			return
		}

		var frame Frame
		if err := json.Unmarshal(payload, &frame); err != nil {
			c.send(Frame{Event: "error", Data: map[string]any{"message": "Mensagem inválida"}})
			continue
		}
		c.dispatch(frame)
	}
}

func (c *Conn) dispatch(frame Frame) {
	if frame.Event == "authenticate" {
		c.authenticate(frame.Data)
		return
	}

	if c.userID == 0 {
		c.send(Frame{Event: "error", Data: map[string]any{"message": "Não autenticado"}})
		return
	}

	ctx := context.Background()
	switch frame.Event {
	case "start_bot":
		config, _ := frame.Data["config"].(map[string]any)
		settings, _ := frame.Data["settings"].(map[string]any)
		result := c.hub.registry.Start(ctx, c.userID, config, settings)
		c.send(Frame{Event: "bot_started", Data: resultData(result.Success, result.Message)})
	case "stop_bot":
		result := c.hub.registry.Stop(ctx, c.userID)
		// On success the registry already broadcast bot_stopped to the
		// room, this connection included; only failures need a reply here.
		if !result.Success {
			c.send(Frame{Event: "bot_stopped", Data: resultData(result.Success, result.Message)})
		}
	case "update_config":
		result := c.hub.registry.UpdateConfig(ctx, c.userID, frame.Data)
		data := resultData(result.Success, result.Message)
		if result.Config != nil {
			data["config"] = result.Config
		}
		c.send(Frame{Event: "config_updated", Data: data})
	case "update_settings":
		result := c.hub.registry.UpdateSettings(ctx, c.userID, frame.Data)
		data := resultData(result.Success, result.Message)
		if result.Settings != nil {
			data["settings"] = result.Settings
		}
		c.send(Frame{Event: "settings_updated", Data: data})
	default:
		c.send(Frame{Event: "error", Data: map[string]any{"message": "Evento desconhecido"}})
	}
}

func (c *Conn) authenticate(data map[string]any) {
	token, _ := data["token"].(string)
	if token == "" {
		c.send(Frame{Event: "auth_error", Data: map[string]any{"message": "Token não fornecido"}})
		return
	}

	result := c.hub.auth.VerifyToken(context.Background(), token)
	if !result.Success {
		c.send(Frame{Event: "auth_error", Data: map[string]any{"message": "Token inválido"}})
		return
	}

	// Re-authenticating as another user must not leave the connection
	// behind in the previous room.
	if c.userID != 0 && c.userID != result.User.ID {
		c.hub.leave(c)
	}
	c.userID = result.User.ID
	c.hub.join(c.userID, c)

	c.send(Frame{Event: "authenticated", Data: map[string]any{"user": result.User}})

	status := c.hub.registry.Status(c.userID)
	c.send(Frame{Event: "status", Data: map[string]any{
		"isActive":    status.IsActive,
		"isConnected": status.IsConnected,
		"qrCode":      status.QRCode,
		"config":      status.Config,
		"settings":    status.Settings,
	}})
}

func resultData(success bool, message string) map[string]any {
	data := map[string]any{"success": success}
	if message != "" {
		data["message"] = message
	}
	return data
}
