package wa

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"
)

// WhatsmeowDialer creates whatsmeow clients with one sqlite credential
// store per user under storageDir.
type WhatsmeowDialer struct {
	storageDir string
	log        zerolog.Logger
}

func NewWhatsmeowDialer(storageDir string, log zerolog.Logger) *WhatsmeowDialer {
	return &WhatsmeowDialer{storageDir: storageDir, log: log}
}

func (d *WhatsmeowDialer) Dial(ctx context.Context, userID int64, handler EventHandler) (Client, error) {
	if err := os.MkdirAll(d.storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}

	dbPath := filepath.Join(d.storageDir, fmt.Sprintf("user_%d.db", userID))
	container, err := sqlstore.New(ctx, "sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on", dbPath), waLog.Noop)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	device, err := container.GetFirstDevice(ctx)
	if err != nil || device == nil {
		device = container.NewDevice()
	}

	cli := whatsmeow.NewClient(device, waLog.Noop)
	client := &whatsmeowClient{
		cli:     cli,
		handler: handler,
		log:     d.log.With().Int64("user_id", userID).Logger(),
	}
	cli.AddEventHandler(client.handleEvent)
	return client, nil
}

type whatsmeowClient struct {
	cli     *whatsmeow.Client
	handler EventHandler
	log     zerolog.Logger

	mu       sync.Mutex
	cancelQR context.CancelFunc
}

// Connect starts the QR pairing channel (when the device is not yet paired)
// and opens the connection. Pairing progress arrives through the handler.
func (c *whatsmeowClient) Connect(ctx context.Context) error {
	if c.cli.Store.ID == nil {
		qrCtx, cancel := context.WithCancel(context.Background())
		c.mu.Lock()
		c.cancelQR = cancel
		c.mu.Unlock()

		qrChan, err := c.cli.GetQRChannel(qrCtx)
		if err != nil {
			cancel()
			return fmt.Errorf("qr channel: %w", err)
		}
		go c.monitorQR(qrChan)
	}

	if err := c.cli.Connect(); err != nil {
		c.stopQR()
		return fmt.Errorf("connect: %w", err)
	}
	return nil
}

func (c *whatsmeowClient) monitorQR(qrChan <-chan whatsmeow.QRChannelItem) {
	for item := range qrChan {
		switch item.Event {
		case "code":
			dataURI, err := EncodeQRDataURI(item.Code)
			if err != nil {
				c.log.Error().Err(err).Msg("qr encode failed")
				continue
			}
			c.handler.QR(dataURI)
		case "success":
			c.stopQR()
			return
		case "timeout":
			c.handler.Disconnected("qr timeout")
			return
		default:
			if item.Error != nil {
				c.handler.AuthFailure(item.Error.Error())
			}
			return
		}
	}
}

func (c *whatsmeowClient) stopQR() {
	c.mu.Lock()
	if c.cancelQR != nil {
		c.cancelQR()
		c.cancelQR = nil
	}
	c.mu.Unlock()
}

func (c *whatsmeowClient) handleEvent(evt interface{}) {
	switch e := evt.(type) {
	case *events.Connected:
		c.handler.Ready()
	case *events.Disconnected:
		c.handler.Disconnected("connection closed")
	case *events.LoggedOut:
		c.handler.AuthFailure(fmt.Sprintf("logged out: %s", e.Reason))
	case *events.Message:
		body := e.Message.GetConversation()
		if body == "" {
			body = e.Message.GetExtendedTextMessage().GetText()
		}
		if body == "" || e.Info.IsFromMe {
			return
		}
		c.handler.Message(e.Info.Chat.String(), body)
	}
}

func (c *whatsmeowClient) Disconnect() {
	c.stopQR()
	c.cli.Disconnect()
}

func (c *whatsmeowClient) IsConnected() bool {
	return c.cli.IsConnected() && c.cli.IsLoggedIn()
}

func (c *whatsmeowClient) SendText(ctx context.Context, chat string, text string) error {
	jid, err := types.ParseJID(chat)
	if err != nil {
		return fmt.Errorf("parse jid: %w", err)
	}
	_, err = c.cli.SendMessage(ctx, jid, &waE2E.Message{
		Conversation: proto.String(text),
	})
	return err
}

func (c *whatsmeowClient) SendTyping(ctx context.Context, chat string, typing bool) error {
	jid, err := types.ParseJID(chat)
	if err != nil {
		return fmt.Errorf("parse jid: %w", err)
	}
	state := types.ChatPresencePaused
	if typing {
		state = types.ChatPresenceComposing
	}
	return c.cli.SendChatPresence(ctx, jid, state, types.ChatPresenceMediaText)
}
