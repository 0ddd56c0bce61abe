package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"zapbot/api/internal/auth"
	"zapbot/api/internal/bot"
	"zapbot/api/internal/cache"
	"zapbot/api/internal/config"
	"zapbot/api/internal/database"
	"zapbot/api/internal/handlers"
	"zapbot/api/internal/jobs"
	"zapbot/api/internal/log"
	"zapbot/api/internal/middleware"
	"zapbot/api/internal/server"
	"zapbot/api/internal/store"
	"zapbot/api/internal/wa"
	"zapbot/api/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	var (
		dbPool  *pgxpool.Pool
		backing store.Store
	)
	if cfg.UsePostgres() {
		dbPool, err = database.NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect postgres")
		}
		if err := database.Migrate(ctx, dbPool); err != nil {
			logger.Fatal().Err(err).Msg("failed to migrate schema")
		}
		backing = store.NewPostgres(dbPool)
	} else {
		logger.Warn().Msg("no postgres dsn configured, all data is lost on restart")
		backing = store.NewMemory()
	}

	if cfg.Security.JWTSecret == config.PlaceholderJWTSecret {
		logger.Warn().Msg("jwt secret is the development placeholder, do not expose this instance")
	}

	var (
		redisClient *redis.Client
		limiter     middleware.Counter
	)
	if cfg.UseRedis() {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
		limiter = middleware.NewRedisCounter(redisClient)
	} else {
		limiter = middleware.NewMemoryCounter()
	}

	authService := auth.NewService(backing.Users(), backing.Tokens(), cfg.Security.JWTSecret, logger)

	dialer := wa.NewWhatsmeowDialer(cfg.Bot.SessionDir, logger)
	registry := bot.NewRegistry(dialer, backing.BotConfigs(), logger)

	hub := ws.NewHub(authService, registry, logger)
	registry.SetNotifier(hub)

	handlerSet := handlers.NewHandlerSet(logger, cfg, authService, registry, hub, limiter, dbPool, redisClient)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(authService, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, registry, dbPool, redisClient)
}

func waitForShutdown(
	logger zerolog.Logger,
	srv *server.HTTPServer,
	scheduler *jobs.Scheduler,
	registry *bot.Registry,
	db *pgxpool.Pool,
	redisClient *redis.Client,
) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("forced shutdown failed")
		}
	}

	scheduler.Stop()
	registry.StopAll()

	if db != nil {
		db.Close()
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}

	logger.Info().Msg("server exited cleanly")
}
