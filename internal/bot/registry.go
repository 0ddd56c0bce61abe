// Package bot tracks one WhatsApp session per user: its external client
// handle, connection state, configuration and scripted auto-reply behavior.
package bot

import (
	"context"
	"errors"
	"sync"

	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog"

	"zapbot/api/internal/models"
	"zapbot/api/internal/store"
	"zapbot/api/internal/wa"
)

const (
	msgBotActive    = "Bot já está ativo"
	msgBotNotFound  = "Bot não encontrado"
	msgBotStarted   = "Bot iniciado com sucesso"
	msgBotStopped   = "Bot parado com sucesso"
	msgBotStartFail = "Erro ao iniciar bot"
)

// Result is the uniform outcome shape of registry operations.
type Result struct {
	Success  bool                `json:"success"`
	Message  string              `json:"message,omitempty"`
	Config   *models.BotConfig   `json:"config,omitempty"`
	Settings *models.BotSettings `json:"settings,omitempty"`
}

func failure(message string) Result {
	return Result{Success: false, Message: message}
}

// Registry owns every bot session, keyed by user id. At most one session
// exists per user; the entry is claimed under the lock before any external
// work so concurrent starts cannot both win.
type Registry struct {
	mu       sync.RWMutex
	sessions map[int64]*session

	dialer   wa.Dialer
	configs  store.BotConfigStore
	notifier Notifier
	log      zerolog.Logger
}

func NewRegistry(dialer wa.Dialer, configs store.BotConfigStore, log zerolog.Logger) *Registry {
	return &Registry{
		sessions: make(map[int64]*session),
		dialer:   dialer,
		configs:  configs,
		notifier: NopNotifier{},
		log:      log,
	}
}

// SetNotifier attaches the realtime emit target. Must be called once at
// startup before any session is started.
func (r *Registry) SetNotifier(notifier Notifier) {
	r.mu.Lock()
	r.notifier = notifier
	r.mu.Unlock()
}

func (r *Registry) notify(userID int64, event string, data map[string]any) {
	r.mu.RLock()
	notifier := r.notifier
	r.mu.RUnlock()
	notifier.Notify(userID, event, data)
}

// Start claims the user's session slot, merges stored and supplied
// configuration over the defaults, and hands off to the external client
// asynchronously. It returns as soon as the connect is queued.
func (r *Registry) Start(ctx context.Context, userID int64, partialConfig, partialSettings map[string]any) Result {
	config := models.DefaultBotConfig()
	settings := models.DefaultBotSettings()
	if stored, storedSettings, err := r.configs.Load(ctx, userID); err == nil {
		config = stored
		settings = storedSettings
	} else if !errors.Is(err, store.ErrConfigNotFound) {
		r.log.Warn().Err(err).Int64("user_id", userID).Msg("stored bot config load failed")
	}
	if err := mergeInto(&config, partialConfig); err != nil {
		return failure(msgBotStartFail)
	}
	if err := mergeInto(&settings, partialSettings); err != nil {
		return failure(msgBotStartFail)
	}

	r.mu.Lock()
	if existing, ok := r.sessions[userID]; ok {
		if existing.status().IsActive {
			r.mu.Unlock()
			return failure(msgBotActive)
		}
		// Stale inactive entry from an earlier run; replace it.
		existing.stop()
	}
	sess := newSession(userID, r, config, settings, r.log)
	// Claimed as active before any external work so a concurrent Start for
	// the same user fails instead of racing the dial.
	sess.active = true
	r.sessions[userID] = sess
	r.mu.Unlock()

	client, err := r.dialer.Dial(ctx, userID, sess)
	if err != nil {
		r.log.Error().Err(err).Int64("user_id", userID).Msg("client dial failed")
		r.mu.Lock()
		sess.stop()
		delete(r.sessions, userID)
		r.mu.Unlock()
		return failure(msgBotStartFail)
	}

	sess.mu.Lock()
	sess.client = client
	sess.mu.Unlock()

	// Connection and pairing proceed asynchronously; progress reaches the
	// caller through the notifier.
	go func() {
		if err := client.Connect(context.Background()); err != nil {
			r.log.Error().Err(err).Int64("user_id", userID).Msg("client connect failed")
			sess.Disconnected("connect failed")
		}
	}()

	if err := r.configs.Save(ctx, userID, config, settings); err != nil {
		r.log.Warn().Err(err).Int64("user_id", userID).Msg("bot config persist failed")
	}

	return Result{Success: true, Message: msgBotStarted}
}

// Stop tears the user's session down and reports it stopped. The map entry
// stays behind, inactive, so Status keeps answering with the last
// configuration.
func (r *Registry) Stop(ctx context.Context, userID int64) Result {
	r.mu.RLock()
	sess, ok := r.sessions[userID]
	r.mu.RUnlock()
	if !ok {
		return failure(msgBotNotFound)
	}

	sess.stop()
	r.notify(userID, "bot_stopped", map[string]any{"success": true, "message": msgBotStopped})
	return Result{Success: true, Message: msgBotStopped}
}

// Status never fails; an unknown user gets the zero shape.
func (r *Registry) Status(userID int64) models.BotStatus {
	r.mu.RLock()
	sess, ok := r.sessions[userID]
	r.mu.RUnlock()
	if !ok {
		return models.BotStatus{}
	}
	return sess.status()
}

// UpdateConfig shallow-merges the supplied fields. The running client picks
// the change up on its next message; no restart needed.
func (r *Registry) UpdateConfig(ctx context.Context, userID int64, partial map[string]any) Result {
	r.mu.RLock()
	sess, ok := r.sessions[userID]
	r.mu.RUnlock()
	if !ok {
		return failure(msgBotNotFound)
	}

	sess.mu.Lock()
	if err := mergeInto(&sess.config, partial); err != nil {
		sess.mu.Unlock()
		return failure("Configuração inválida")
	}
	config := sess.config
	settings := sess.settings
	sess.mu.Unlock()

	if err := r.configs.Save(ctx, userID, config, settings); err != nil {
		r.log.Warn().Err(err).Int64("user_id", userID).Msg("bot config persist failed")
	}
	return Result{Success: true, Config: &config}
}

func (r *Registry) UpdateSettings(ctx context.Context, userID int64, partial map[string]any) Result {
	r.mu.RLock()
	sess, ok := r.sessions[userID]
	r.mu.RUnlock()
	if !ok {
		return failure(msgBotNotFound)
	}

	sess.mu.Lock()
	if err := mergeInto(&sess.settings, partial); err != nil {
		sess.mu.Unlock()
		return failure("Configuração inválida")
	}
	config := sess.config
	settings := sess.settings
	sess.mu.Unlock()

	if err := r.configs.Save(ctx, userID, config, settings); err != nil {
		r.log.Warn().Err(err).Int64("user_id", userID).Msg("bot settings persist failed")
	}
	return Result{Success: true, Settings: &settings}
}

// StopAll shuts every session down; called during process shutdown.
func (r *Registry) StopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sess := range r.sessions {
		sess.stop()
	}
}

// mergeInto decodes only the keys present in partial over target, leaving
// every other field untouched.
func mergeInto(target any, partial map[string]any) error {
	if len(partial) == 0 {
		return nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(partial)
}
