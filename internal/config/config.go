package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// PlaceholderJWTSecret is the well-known development default. The postgres
// variant refuses to start with it.
const PlaceholderJWTSecret = "seu-secret-key-aqui-mude-em-producao"

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PostgresConfig struct {
	// DSN presence selects the postgres store; empty selects the in-memory
	// fallback.
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	// Addr is optional; without it the rate limiter counts in-process.
	Addr     string
	Password string
	DB       int
}

type SecurityConfig struct {
	JWTSecret string
}

type BotConfig struct {
	// SessionDir holds one isolated credential store per user.
	SessionDir string
}

type RateLimitConfig struct {
	LoginPerMinute    int
	RegisterPerMinute int
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Security         SecurityConfig
	Bot              BotConfig
	RateLimit        RateLimitConfig
	AllowCORSOrigins []string
}

func (c *AppConfig) UsePostgres() bool {
	return c.Postgres.DSN != ""
}

func (c *AppConfig) UseRedis() bool {
	return c.Redis.Addr != ""
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("ZAPBOT")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *AppConfig) validate() error {
	if c.UsePostgres() {
		if c.Security.JWTSecret == "" {
			return errors.New("security.jwtsecret is required with a postgres dsn")
		}
		if c.Security.JWTSecret == PlaceholderJWTSecret {
			return errors.New("security.jwtsecret is still the placeholder value")
		}
	}
	if c.Security.JWTSecret == "" {
		// Memory fallback keeps working in development; main logs a warning.
		c.Security.JWTSecret = PlaceholderJWTSecret
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 3000)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 10)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.db", 0)

	v.SetDefault("bot.sessiondir", ".wa_sessions")

	v.SetDefault("ratelimit.loginperminute", 5)
	v.SetDefault("ratelimit.registerperminute", 3)
}
