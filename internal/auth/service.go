package auth

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"zapbot/api/internal/models"
	"zapbot/api/internal/store"
	"zapbot/api/internal/validate"
)

// Caller-facing failure messages. Unknown-email and wrong-password login
// failures share one message so the endpoint cannot be used to enumerate
// accounts.
const (
	msgBadCredentials = "Email ou senha incorretos"
	msgEmailTaken     = "Este email já está cadastrado"
	msgTokenInvalid   = "Token inválido"
	msgTokenExpired   = "Token expirado"
	msgTokenUnknown   = "Token inválido ou expirado"
	msgUserNotFound   = "Usuário não encontrado"
	msgLoginFailed    = "Erro ao fazer login"
	msgRegisterFailed = "Erro ao criar usuário"
)

// Result is the uniform outcome shape of every auth operation. Operations
// never return Go errors to handlers; failures are carried in Message.
type Result struct {
	Success bool               `json:"success"`
	Message string             `json:"message,omitempty"`
	User    *models.PublicUser `json:"user,omitempty"`
	Token   string             `json:"token,omitempty"`
}

func failure(message string) Result {
	return Result{Success: false, Message: message}
}

// Service implements login, register, logout and token verification on top
// of whichever store variant was selected at startup.
type Service struct {
	users     store.UserStore
	tokens    store.TokenStore
	secret    string
	log       zerolog.Logger
	dummyHash []byte
}

func NewService(users store.UserStore, tokens store.TokenStore, secret string, log zerolog.Logger) *Service {
	// Hashed once so the unknown-email login path can burn a comparable
	// amount of time to the wrong-password path.
	dummyHash, err := HashPassword("zapbot-dummy-credential")
	if err != nil {
		panic(err)
	}

	return &Service{
		users:     users,
		tokens:    tokens,
		secret:    secret,
		log:       log,
		dummyHash: dummyHash,
	}
}

func (s *Service) Login(ctx context.Context, email, password string) Result {
	email, err := validate.Email(email)
	if err != nil {
		return failure(err.Error())
	}
	password, err = validate.Password(password)
	if err != nil {
		return failure(err.Error())
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			VerifyPassword(password, s.dummyHash)
			return failure(msgBadCredentials)
		}
		s.log.Error().Err(err).Msg("login: user lookup failed")
		return failure(msgLoginFailed)
	}

	if !VerifyPassword(password, user.PasswordHash) {
		return failure(msgBadCredentials)
	}

	return s.issueToken(ctx, user, msgLoginFailed)
}

func (s *Service) Register(ctx context.Context, email, password, name, phone string) Result {
	email, err := validate.Email(email)
	if err != nil {
		return failure(err.Error())
	}
	password, err = validate.Password(password)
	if err != nil {
		return failure(err.Error())
	}
	name, err = validate.Name(name)
	if err != nil {
		return failure(err.Error())
	}
	normalizedPhone, err := validate.Phone(phone)
	if err != nil {
		return failure(err.Error())
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		s.log.Error().Err(err).Msg("register: password hash failed")
		return failure(msgRegisterFailed)
	}

	user, err := s.users.Create(ctx, models.User{
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Phone:        normalizedPhone,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return failure(msgEmailTaken)
		}
		s.log.Error().Err(err).Msg("register: user insert failed")
		return failure(msgRegisterFailed)
	}

	return s.issueToken(ctx, user, msgRegisterFailed)
}

func (s *Service) issueToken(ctx context.Context, user models.User, failMessage string) Result {
	token, err := GenerateToken(s.secret, user.ID, user.Email, TokenTTL)
	if err != nil {
		s.log.Error().Err(err).Msg("token generation failed")
		return failure(failMessage)
	}

	if err := s.tokens.Create(ctx, models.AuthToken{
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(TokenTTL),
	}); err != nil {
		s.log.Error().Err(err).Int64("user_id", user.ID).Msg("token persist failed")
		return failure(failMessage)
	}

	public := user.Public()
	return Result{Success: true, User: &public, Token: token}
}

// Logout removes the token from the active set. Logging out a token that is
// already gone still succeeds.
func (s *Service) Logout(ctx context.Context, token string) Result {
	token, err := validate.Token(token)
	if err != nil {
		return failure(err.Error())
	}

	if err := s.tokens.Delete(ctx, token); err != nil {
		s.log.Error().Err(err).Msg("logout: token delete failed")
		return failure("Erro ao fazer logout")
	}
	return Result{Success: true}
}

// VerifyToken accepts a token only when it is still tracked, unexpired and
// carries a valid signature resolving to an existing user. Expired tokens
// are deleted as a side effect of detection.
func (s *Service) VerifyToken(ctx context.Context, token string) Result {
	token, err := validate.Token(token)
	if err != nil {
		return failure(err.Error())
	}

	record, err := s.tokens.Get(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrTokenNotFound) {
			return failure(msgTokenUnknown)
		}
		s.log.Error().Err(err).Msg("verify: token lookup failed")
		return failure(msgTokenInvalid)
	}

	if record.ExpiresAt.Before(time.Now()) {
		_ = s.tokens.Delete(ctx, token)
		return failure(msgTokenExpired)
	}

	claims, err := ParseToken(token, s.secret)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			_ = s.tokens.Delete(ctx, token)
			return failure(msgTokenExpired)
		}
		return failure(msgTokenInvalid)
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return failure(msgUserNotFound)
		}
		s.log.Error().Err(err).Msg("verify: user lookup failed")
		return failure(msgTokenInvalid)
	}

	public := user.Public()
	return Result{Success: true, User: &public}
}

// CleanupExpiredTokens drops every tracked token past its expiry. Scheduled
// periodically by the jobs package.
func (s *Service) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	return s.tokens.DeleteExpired(ctx, time.Now())
}
