package bot

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"zapbot/api/internal/models"
	"zapbot/api/internal/wa"
)

// session owns the state of one user's bot. All state transitions run on
// the session's own event loop goroutine, so callbacks from the external
// client never race each other; callbacks arriving after stop are dropped
// at enqueue.
type session struct {
	userID   int64
	registry *Registry
	log      zerolog.Logger

	mu        sync.Mutex
	client    wa.Client
	active    bool
	connected bool
	qrCode    string
	config    models.BotConfig
	settings  models.BotSettings
	stopped   bool

	events chan func()
}

func newSession(userID int64, registry *Registry, config models.BotConfig, settings models.BotSettings, log zerolog.Logger) *session {
	s := &session{
		userID:   userID,
		registry: registry,
		log:      log.With().Int64("user_id", userID).Logger(),
		config:   config,
		settings: settings,
		events:   make(chan func(), 32),
	}
	go s.loop()
	return s
}

func (s *session) loop() {
	for fn := range s.events {
		fn()
	}
}

func (s *session) enqueue(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	select {
	case s.events <- fn:
	default:
		s.log.Warn().Msg("session event queue full, dropping event")
	}
}

// stop marks the session inactive and shuts the event loop down. Safe to
// call at most once; the registry serializes calls to it.
func (s *session) stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.active = false
	s.connected = false
	s.qrCode = ""
	client := s.client
	close(s.events)
	s.mu.Unlock()

	if client != nil {
		client.Disconnect()
	}
}

func (s *session) status() models.BotStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := models.BotStatus{
		IsActive:    s.active,
		IsConnected: s.connected,
		Config:      s.config,
		Settings:    s.settings,
	}
	if s.qrCode != "" {
		qr := s.qrCode
		status.QRCode = &qr
	}
	return status
}

// wa.EventHandler implementation. Each callback is translated into a
// transition message for the session loop.

func (s *session) QR(dataURI string) {
	s.enqueue(func() {
		s.mu.Lock()
		s.qrCode = dataURI
		s.connected = false
		s.mu.Unlock()

		s.log.Debug().Msg("qr code generated")
		s.registry.notify(s.userID, "qr", map[string]any{"qrCode": dataURI})
	})
}

func (s *session) Ready() {
	s.enqueue(func() {
		s.mu.Lock()
		s.connected = true
		s.qrCode = ""
		s.mu.Unlock()

		s.log.Info().Msg("whatsapp connected")
		s.registry.notify(s.userID, "connected", map[string]any{
			"message": "WhatsApp conectado com sucesso!",
		})
	})
}

func (s *session) Disconnected(reason string) {
	s.enqueue(func() {
		s.mu.Lock()
		s.connected = false
		s.qrCode = ""
		s.active = false
		s.mu.Unlock()

		s.log.Info().Str("reason", reason).Msg("whatsapp disconnected")
		s.registry.notify(s.userID, "disconnected", map[string]any{
			"message": "WhatsApp desconectado",
			"reason":  reason,
		})
	})
}

func (s *session) AuthFailure(message string) {
	s.enqueue(func() {
		s.log.Warn().Str("cause", message).Msg("whatsapp auth failure")
		s.registry.notify(s.userID, "auth_failure", map[string]any{
			"message": "Falha na autenticação",
		})
	})
}

func (s *session) Message(chat string, body string) {
	s.enqueue(func() {
		s.mu.Lock()
		client := s.client
		config := s.config
		settings := s.settings
		s.mu.Unlock()

		if client == nil || !settings.AutoReply {
			return
		}
		if !withinOperatingHours(settings.OperatingHours, time.Now()) {
			return
		}

		reply, ok := replyFor(body, config)
		if !ok {
			return
		}

		// The send runs off the loop so a typing delay does not hold up
		// later transitions for this session.
		go s.sendReply(client, chat, reply, settings)
	})
}

func (s *session) sendReply(client wa.Client, chat string, reply string, settings models.BotSettings) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if settings.ShowTyping {
		if err := client.SendTyping(ctx, chat, true); err != nil {
			s.log.Debug().Err(err).Msg("typing indicator failed")
		}
		time.Sleep(time.Duration(settings.MessageDelay) * time.Second)
		_ = client.SendTyping(ctx, chat, false)
	}

	if err := client.SendText(ctx, chat, reply); err != nil {
		s.log.Error().Err(err).Msg("auto-reply send failed")
	}
}
