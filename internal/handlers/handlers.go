package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"zapbot/api/internal/auth"
	"zapbot/api/internal/bot"
	"zapbot/api/internal/config"
	"zapbot/api/internal/middleware"
	"zapbot/api/internal/ws"
)

type HandlerSet struct {
	log         zerolog.Logger
	cfg         *config.AppConfig
	authService *auth.Service
	registry    *bot.Registry
	hub         *ws.Hub
	limiter     middleware.Counter

	// nil when the in-memory variants are selected.
	db    *pgxpool.Pool
	cache *redis.Client
}

func NewHandlerSet(
	log zerolog.Logger,
	cfg *config.AppConfig,
	authService *auth.Service,
	registry *bot.Registry,
	hub *ws.Hub,
	limiter middleware.Counter,
	db *pgxpool.Pool,
	cache *redis.Client,
) HandlerSet {
	return HandlerSet{
		log:         log,
		cfg:         cfg,
		authService: authService,
		registry:    registry,
		hub:         hub,
		limiter:     limiter,
		db:          db,
		cache:       cache,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	router.POST("/login",
		middleware.RateLimit(h.limiter, h.cfg.RateLimit.LoginPerMinute, time.Minute, h.log),
		h.Login,
	)
	router.POST("/register",
		middleware.RateLimit(h.limiter, h.cfg.RateLimit.RegisterPerMinute, time.Minute, h.log),
		h.SignUp,
	)

	protected := router.Group("")
	protected.Use(middleware.Auth(h.authService))
	protected.POST("/logout", h.Logout)
	protected.GET("/me", h.Me)

	botGroup := protected.Group("/bot")
	botGroup.GET("/status", h.BotStatus)
	botGroup.POST("/start", h.BotStart)
	botGroup.POST("/stop", h.BotStop)
	botGroup.POST("/config", h.BotConfig)
	botGroup.POST("/settings", h.BotSettings)
}

// RegisterWS mounts the realtime channel outside the /api group.
func (h HandlerSet) RegisterWS(router gin.IRoutes) {
	router.GET("/ws", h.hub.Handle)
}
