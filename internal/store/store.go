// Package store holds the persistence capabilities behind the auth service
// and the bot registry. Two implementations exist: Postgres, backed by a
// pgx pool, and Memory, a process-local fallback selected when no DSN is
// configured. The variant is chosen once in main and injected.
package store

import (
	"context"
	"errors"
	"time"

	"zapbot/api/internal/models"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrTokenNotFound  = errors.New("token not found")
	ErrConfigNotFound = errors.New("bot config not found")
)

type UserStore interface {
	Create(ctx context.Context, user models.User) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id int64) (models.User, error)
}

type TokenStore interface {
	Create(ctx context.Context, token models.AuthToken) error
	Get(ctx context.Context, token string) (models.AuthToken, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// BotConfigStore persists each user's last bot configuration so a restarted
// server can seed new sessions with it.
type BotConfigStore interface {
	Save(ctx context.Context, userID int64, config models.BotConfig, settings models.BotSettings) error
	Load(ctx context.Context, userID int64) (models.BotConfig, models.BotSettings, error)
}

// Store bundles the capabilities a fully wired server needs.
type Store interface {
	Users() UserStore
	Tokens() TokenStore
	BotConfigs() BotConfigStore
}
