package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"zapbot/api/internal/models"
)

// Memory is the in-process fallback store. State is lost on restart, which
// is acceptable for the documented fallback role.
type Memory struct {
	users      *MemoryUserStore
	tokens     *MemoryTokenStore
	botConfigs *MemoryBotConfigStore
}

func NewMemory() *Memory {
	return &Memory{
		users: &MemoryUserStore{
			byEmail: make(map[string]*models.User),
			byID:    make(map[int64]*models.User),
		},
		tokens: &MemoryTokenStore{
			byToken: make(map[string]models.AuthToken),
		},
		botConfigs: &MemoryBotConfigStore{
			byUser: make(map[int64]memoryBotConfig),
		},
	}
}

func (m *Memory) Users() UserStore           { return m.users }
func (m *Memory) Tokens() TokenStore         { return m.tokens }
func (m *Memory) BotConfigs() BotConfigStore { return m.botConfigs }

type MemoryUserStore struct {
	mu      sync.RWMutex
	nextID  int64
	byEmail map[string]*models.User
	byID    map[int64]*models.User
}

func (s *MemoryUserStore) Create(ctx context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, exists := s.byEmail[email]; exists {
		return models.User{}, ErrDuplicateEmail
	}

	s.nextID++
	user.ID = s.nextID
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := user
	s.byEmail[email] = &stored
	s.byID[user.ID] = &stored
	return user, nil
}

func (s *MemoryUserStore) FindByEmail(ctx context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return *user, nil
}

func (s *MemoryUserStore) GetByID(ctx context.Context, id int64) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byID[id]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return *user, nil
}

type MemoryTokenStore struct {
	mu      sync.RWMutex
	nextID  int64
	byToken map[string]models.AuthToken
}

func (s *MemoryTokenStore) Create(ctx context.Context, token models.AuthToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	token.ID = s.nextID
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}
	s.byToken[token.Token] = token
	return nil
}

func (s *MemoryTokenStore) Get(ctx context.Context, token string) (models.AuthToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.byToken[token]
	if !ok {
		return models.AuthToken{}, ErrTokenNotFound
	}
	return record, nil
}

func (s *MemoryTokenStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.byToken, token)
	return nil
}

func (s *MemoryTokenStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for token, record := range s.byToken {
		if record.ExpiresAt.Before(now) {
			delete(s.byToken, token)
			removed++
		}
	}
	return removed, nil
}

type memoryBotConfig struct {
	config   models.BotConfig
	settings models.BotSettings
}

type MemoryBotConfigStore struct {
	mu     sync.RWMutex
	byUser map[int64]memoryBotConfig
}

func (s *MemoryBotConfigStore) Save(ctx context.Context, userID int64, config models.BotConfig, settings models.BotSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byUser[userID] = memoryBotConfig{config: config, settings: settings}
	return nil
}

func (s *MemoryBotConfigStore) Load(ctx context.Context, userID int64) (models.BotConfig, models.BotSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.byUser[userID]
	if !ok {
		return models.BotConfig{}, models.BotSettings{}, ErrConfigNotFound
	}
	return record.config, record.settings, nil
}
