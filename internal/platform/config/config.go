// Package config loads service configuration from the environment so main
// stays lean. A .env file, when present, seeds the environment for local
// development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config captures everything the server needs at startup.
type Config struct {
	Addr        string
	DatabaseURL string
	Redis       RedisConfig

	JWTSigningKey string
	JWTIssuer     string
	TokenTTL      time.Duration

	// CacheTTL bounds how long a copy detail may live in Redis.
	CacheTTL time.Duration

	LogLevel string
}

// RedisConfig configures the optional Redis cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds the config from environment variables, loading .env first
// if one exists.
func FromEnv() Config {
	_ = godotenv.Load()

	cfg := Config{
		Addr:          getEnv("LIBRIS_ADDR", ":8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JWTSigningKey: getEnv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:     getEnv("JWT_ISSUER", "libris"),
		TokenTTL:      getDuration("TOKEN_TTL", time.Hour),
		CacheTTL:      getDuration("CACHE_TTL", 5*time.Minute),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
