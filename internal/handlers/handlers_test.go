package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"zapbot/api/internal/auth"
	"zapbot/api/internal/bot"
	"zapbot/api/internal/config"
	"zapbot/api/internal/middleware"
	"zapbot/api/internal/store"
	"zapbot/api/internal/wa"
	"zapbot/api/internal/ws"
)

type stubClient struct{}

func (stubClient) Connect(ctx context.Context) error                         { return nil }
func (stubClient) Disconnect()                                               {}
func (stubClient) IsConnected() bool                                         { return true }
func (stubClient) SendText(ctx context.Context, chat, text string) error     { return nil }
func (stubClient) SendTyping(ctx context.Context, chat string, t bool) error { return nil }

type stubDialer struct {
	mu sync.Mutex
}

func (d *stubDialer) Dial(ctx context.Context, userID int64, handler wa.EventHandler) (wa.Client, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return stubClient{}, nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.AppConfig{
		Security:  config.SecurityConfig{JWTSecret: "test-secret"},
		RateLimit: config.RateLimitConfig{LoginPerMinute: 100, RegisterPerMinute: 100},
	}

	backing := store.NewMemory()
	authService := auth.NewService(backing.Users(), backing.Tokens(), cfg.Security.JWTSecret, zerolog.Nop())
	registry := bot.NewRegistry(&stubDialer{}, backing.BotConfigs(), zerolog.Nop())
	hub := ws.NewHub(authService, registry, zerolog.Nop())
	registry.SetNotifier(hub)
	t.Cleanup(registry.StopAll)

	handlerSet := NewHandlerSet(zerolog.Nop(), cfg, authService, registry, hub, middleware.NewMemoryCounter(), nil, nil)

	engine := gin.New()
	handlerSet.Register(engine.Group("/api"))
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	var parsed map[string]any
	if len(w.Body.Bytes()) > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	}
	return w, parsed
}

func registerAndLogin(t *testing.T, engine *gin.Engine) string {
	t.Helper()
	w, body := doJSON(t, engine, http.MethodPost, "/api/register", "", map[string]any{
		"email":    "maria@empresa.com",
		"password": "senha123",
		"name":     "Maria Silva",
	})
	require.Equal(t, http.StatusOK, w.Code)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestRegisterAndMe(t *testing.T) {
	t.Parallel()
	engine := newTestRouter(t)
	token := registerAndLogin(t, engine)

	w, body := doJSON(t, engine, http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "maria@empresa.com", user["email"])
}

func TestRegister_MissingFields(t *testing.T) {
	t.Parallel()
	engine := newTestRouter(t)

	w, body := doJSON(t, engine, http.MethodPost, "/api/register", "", map[string]any{
		"email": "maria@empresa.com",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Email, senha e nome são obrigatórios", body["message"])
}

func TestLogin_WrongPassword(t *testing.T) {
	t.Parallel()
	engine := newTestRouter(t)
	registerAndLogin(t, engine)

	w, body := doJSON(t, engine, http.MethodPost, "/api/login", "", map[string]any{
		"email":    "maria@empresa.com",
		"password": "senhaerrada",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "Email ou senha incorretos", body["message"])
}

func TestLogout_InvalidatesToken(t *testing.T) {
	t.Parallel()
	engine := newTestRouter(t)
	token := registerAndLogin(t, engine)

	w, _ := doJSON(t, engine, http.MethodPost, "/api/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, body := doJSON(t, engine, http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "Token inválido ou expirado", body["message"])
}

func TestProtectedRoutes_RequireBearer(t *testing.T) {
	t.Parallel()
	engine := newTestRouter(t)

	w, body := doJSON(t, engine, http.MethodGet, "/api/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "Token não fornecido", body["message"])

	w, _ = doJSON(t, engine, http.MethodGet, "/api/bot/status", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBotLifecycle_OverHTTP(t *testing.T) {
	t.Parallel()
	engine := newTestRouter(t)
	token := registerAndLogin(t, engine)

	w, body := doJSON(t, engine, http.MethodGet, "/api/bot/status", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, false, body["isActive"])

	w, body = doJSON(t, engine, http.MethodPost, "/api/bot/start", token, map[string]any{
		"config": map[string]any{"botName": "Atendente"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, body["success"])

	w, body = doJSON(t, engine, http.MethodGet, "/api/bot/status", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, body["isActive"])
	botConfig, ok := body["config"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "Atendente", botConfig["botName"])

	// Starting twice is a conflict.
	w, body = doJSON(t, engine, http.MethodPost, "/api/bot/start", token, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Bot já está ativo", body["message"])

	w, body = doJSON(t, engine, http.MethodPost, "/api/bot/settings", token, map[string]any{
		"messageDelay": 5,
	})
	require.Equal(t, http.StatusOK, w.Code)
	settings, ok := body["settings"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, float64(5), settings["messageDelay"])

	w, body = doJSON(t, engine, http.MethodPost, "/api/bot/stop", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, body["success"])

	w, body = doJSON(t, engine, http.MethodGet, "/api/bot/status", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, false, body["isActive"])
}

func TestHealth_MemoryMode(t *testing.T) {
	t.Parallel()
	engine := newTestRouter(t)

	w, body := doJSON(t, engine, http.MethodGet, "/api/healthz", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ok", body["status"])
	checks, ok := body["checks"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "memory", checks["store"])
}
