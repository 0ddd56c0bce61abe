package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"zapbot/api/internal/models"
)

func TestMemoryUserStore_CreateAndLookup(t *testing.T) {
	t.Parallel()
	users := NewMemory().Users()
	ctx := context.Background()

	created, err := users.Create(ctx, models.User{
		Email:        "maria@empresa.com",
		PasswordHash: []byte("hash"),
		Name:         "Maria",
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.False(t, created.CreatedAt.IsZero())

	byEmail, err := users.FindByEmail(ctx, "MARIA@empresa.com")
	require.NoError(t, err)
	require.Equal(t, created.ID, byEmail.ID)

	byID, err := users.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "maria@empresa.com", byID.Email)

	_, err = users.FindByEmail(ctx, "outra@empresa.com")
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = users.GetByID(ctx, 999)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestMemoryUserStore_DuplicateEmail(t *testing.T) {
	t.Parallel()
	users := NewMemory().Users()
	ctx := context.Background()

	_, err := users.Create(ctx, models.User{Email: "maria@empresa.com"})
	require.NoError(t, err)

	_, err = users.Create(ctx, models.User{Email: "Maria@Empresa.com"})
	require.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestMemoryTokenStore_Lifecycle(t *testing.T) {
	t.Parallel()
	tokens := NewMemory().Tokens()
	ctx := context.Background()

	require.NoError(t, tokens.Create(ctx, models.AuthToken{
		Token:     "a.b.c",
		UserID:    1,
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	record, err := tokens.Get(ctx, "a.b.c")
	require.NoError(t, err)
	require.Equal(t, int64(1), record.UserID)

	require.NoError(t, tokens.Delete(ctx, "a.b.c"))
	_, err = tokens.Get(ctx, "a.b.c")
	require.ErrorIs(t, err, ErrTokenNotFound)

	// Deleting a missing token is not an error.
	require.NoError(t, tokens.Delete(ctx, "a.b.c"))
}

func TestMemoryTokenStore_DeleteExpired(t *testing.T) {
	t.Parallel()
	tokens := NewMemory().Tokens()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, tokens.Create(ctx, models.AuthToken{Token: "old.1.x", ExpiresAt: now.Add(-time.Hour)}))
	require.NoError(t, tokens.Create(ctx, models.AuthToken{Token: "old.2.x", ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, tokens.Create(ctx, models.AuthToken{Token: "live.1.x", ExpiresAt: now.Add(time.Hour)}))

	removed, err := tokens.DeleteExpired(ctx, now)
	require.NoError(t, err)
	require.Equal(t, int64(2), removed)

	_, err = tokens.Get(ctx, "live.1.x")
	require.NoError(t, err)
}

func TestMemoryBotConfigStore_SaveAndLoad(t *testing.T) {
	t.Parallel()
	configs := NewMemory().BotConfigs()
	ctx := context.Background()

	_, _, err := configs.Load(ctx, 1)
	require.ErrorIs(t, err, ErrConfigNotFound)

	config := models.DefaultBotConfig()
	config.BotName = "Atendente"
	settings := models.DefaultBotSettings()
	settings.MessageDelay = 7

	require.NoError(t, configs.Save(ctx, 1, config, settings))

	gotConfig, gotSettings, err := configs.Load(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "Atendente", gotConfig.BotName)
	require.Equal(t, 7, gotSettings.MessageDelay)

	// Save overwrites whole rows, not fields.
	require.NoError(t, configs.Save(ctx, 1, models.DefaultBotConfig(), settings))
	gotConfig, _, err = configs.Load(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, models.DefaultBotConfig().BotName, gotConfig.BotName)
}
