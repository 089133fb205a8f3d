package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName              string
	AppEnv               string
	AppPort              string
	DatabaseDriver       string
	DatabaseURL          string
	DatabaseMaxOpenConns int
	RedisURL             string
	NATSURL              string
	EventsChannel        string
	JWTSecret            string
	RequestTimeout       time.Duration
	MatchCacheTTL        time.Duration
	MatchDefaultLimit    int
	RateLimitMax         int
	RateLimitWindow      time.Duration
	CORSOrigins          []string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("VINCULA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Vincula API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("events.channel", "vincula")
	v.SetDefault("request.timeout", "5s")
	v.SetDefault("matching.cache_ttl", "30s")
	v.SetDefault("matching.default_limit", 10)
	v.SetDefault("rate_limit.max", 20)
	v.SetDefault("rate_limit.window", "1m")
	v.SetDefault("cors.origins", "*")

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	requestTimeout, err := parseDuration(v, "request.timeout")
	if err != nil {
		return Config{}, err
	}
	cacheTTL, err := parseDuration(v, "matching.cache_ttl")
	if err != nil {
		return Config{}, err
	}
	rateWindow, err := parseDuration(v, "rate_limit.window")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:              v.GetString("app.name"),
		AppEnv:               v.GetString("app.env"),
		AppPort:              v.GetString("app.port"),
		DatabaseDriver:       strings.ToLower(strings.TrimSpace(v.GetString("database.driver"))),
		DatabaseURL:          v.GetString("database.url"),
		DatabaseMaxOpenConns: v.GetInt("database.max_open_conns"),
		RedisURL:             v.GetString("redis.url"),
		NATSURL:              v.GetString("nats.url"),
		EventsChannel:        v.GetString("events.channel"),
		JWTSecret:            v.GetString("jwt.secret"),
		RequestTimeout:       requestTimeout,
		MatchCacheTTL:        cacheTTL,
		MatchDefaultLimit:    v.GetInt("matching.default_limit"),
		RateLimitMax:         v.GetInt("rate_limit.max"),
		RateLimitWindow:      rateWindow,
		CORSOrigins:          splitList(v.GetString("cors.origins")),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}
	if cfg.DatabaseDriver != "postgres" && cfg.DatabaseDriver != "sqlite" {
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}
	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database url must be provided")
	}
	if cfg.MatchDefaultLimit <= 0 || cfg.MatchDefaultLimit > 50 {
		cfg.MatchDefaultLimit = 10
	}
	if cfg.DatabaseMaxOpenConns <= 0 {
		cfg.DatabaseMaxOpenConns = 20
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return 0, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
