// Package wa is the boundary to the external WhatsApp client. The registry
// only sees the Client and Dialer interfaces; protocol handling, pairing
// cryptography and credential storage stay inside the whatsmeow
// implementation.
package wa

import "context"

// EventHandler receives session lifecycle callbacks. Calls arrive from the
// external client's own goroutines; implementations must do their own
// serialization.
type EventHandler interface {
	// QR delivers a fresh pairing code rendered as a PNG data URI.
	QR(dataURI string)
	Ready()
	Disconnected(reason string)
	AuthFailure(message string)
	// Message delivers an inbound chat message body with its chat id.
	Message(chat string, body string)
}

type Client interface {
	Connect(ctx context.Context) error
	Disconnect()
	IsConnected() bool
	SendText(ctx context.Context, chat string, text string) error
	SendTyping(ctx context.Context, chat string, typing bool) error
}

// Dialer produces one client per user with isolated credential storage; no
// two users may share a storage path.
type Dialer interface {
	Dial(ctx context.Context, userID int64, handler EventHandler) (Client, error)
}
