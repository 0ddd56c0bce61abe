package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"zapbot/api/internal/models"
)

type Postgres struct {
	users      *PostgresUserStore
	tokens     *PostgresTokenStore
	botConfigs *PostgresBotConfigStore
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{
		users:      &PostgresUserStore{pool: pool},
		tokens:     &PostgresTokenStore{pool: pool},
		botConfigs: &PostgresBotConfigStore{pool: pool},
	}
}

func (p *Postgres) Users() UserStore           { return p.users }
func (p *Postgres) Tokens() TokenStore         { return p.tokens }
func (p *Postgres) BotConfigs() BotConfigStore { return p.botConfigs }

type PostgresUserStore struct {
	pool *pgxpool.Pool
}

func (s *PostgresUserStore) Create(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		INSERT INTO users (email, password_hash, name, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	row := s.pool.QueryRow(ctx, query,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Phone,
	)
	if err := row.Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return user, nil
}

func (s *PostgresUserStore) FindByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `
		SELECT id, email, password_hash, name, phone, created_at, updated_at
		FROM users WHERE email = $1
	`
	return s.scanUser(s.pool.QueryRow(ctx, query, email))
}

func (s *PostgresUserStore) GetByID(ctx context.Context, id int64) (models.User, error) {
	const query = `
		SELECT id, email, password_hash, name, phone, created_at, updated_at
		FROM users WHERE id = $1
	`
	return s.scanUser(s.pool.QueryRow(ctx, query, id))
}

func (s *PostgresUserStore) scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.Phone,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

type PostgresTokenStore struct {
	pool *pgxpool.Pool
}

func (s *PostgresTokenStore) Create(ctx context.Context, token models.AuthToken) error {
	const query = `
		INSERT INTO active_tokens (token, user_id, created_at, expires_at)
		VALUES ($1, $2, NOW(), $3)
	`
	_, err := s.pool.Exec(ctx, query, token.Token, token.UserID, token.ExpiresAt)
	return err
}

func (s *PostgresTokenStore) Get(ctx context.Context, token string) (models.AuthToken, error) {
	const query = `
		SELECT id, token, user_id, created_at, expires_at
		FROM active_tokens WHERE token = $1
	`

	row := s.pool.QueryRow(ctx, query, token)
	var record models.AuthToken
	if err := row.Scan(
		&record.ID,
		&record.Token,
		&record.UserID,
		&record.CreatedAt,
		&record.ExpiresAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.AuthToken{}, ErrTokenNotFound
		}
		return models.AuthToken{}, err
	}
	return record, nil
}

func (s *PostgresTokenStore) Delete(ctx context.Context, token string) error {
	const query = `DELETE FROM active_tokens WHERE token = $1`
	_, err := s.pool.Exec(ctx, query, token)
	return err
}

func (s *PostgresTokenStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `DELETE FROM active_tokens WHERE expires_at < $1`
	cmd, err := s.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

type PostgresBotConfigStore struct {
	pool *pgxpool.Pool
}

func (s *PostgresBotConfigStore) Save(ctx context.Context, userID int64, config models.BotConfig, settings models.BotSettings) error {
	configJSON, err := json.Marshal(config)
	if err != nil {
		return err
	}
	settingsJSON, err := json.Marshal(settings)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO bot_configs (user_id, config, settings, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET config = EXCLUDED.config, settings = EXCLUDED.settings, updated_at = NOW()
	`
	_, err = s.pool.Exec(ctx, query, userID, configJSON, settingsJSON)
	return err
}

func (s *PostgresBotConfigStore) Load(ctx context.Context, userID int64) (models.BotConfig, models.BotSettings, error) {
	const query = `SELECT config, settings FROM bot_configs WHERE user_id = $1`

	var configJSON, settingsJSON []byte
	row := s.pool.QueryRow(ctx, query, userID)
	if err := row.Scan(&configJSON, &settingsJSON); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.BotConfig{}, models.BotSettings{}, ErrConfigNotFound
		}
		return models.BotConfig{}, models.BotSettings{}, err
	}

	var config models.BotConfig
	var settings models.BotSettings
	if err := json.Unmarshal(configJSON, &config); err != nil {
		return models.BotConfig{}, models.BotSettings{}, err
	}
	if err := json.Unmarshal(settingsJSON, &settings); err != nil {
		return models.BotConfig{}, models.BotSettings{}, err
	}
	return config, settings, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
