package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultJWTSecret = "dev-secret-change-in-production"

// Storage backends.
const (
	StorageMySQL  = "mysql"
	StorageMemory = "memory"
)

type Config struct {
	Port     string
	Env      string
	LogLevel slog.Level

	Storage     string
	DatabaseDSN string

	JWTSecret          string
	JWTExpiry          time.Duration
	TokenSweepInterval time.Duration

	GeminiAPIKey string
	GeminiModel  string
	LLMTimeout   time.Duration

	StreamChunkWords int
	StreamChunkDelay time.Duration

	CORSOrigins []string

	RedisURL string
	CacheTTL time.Duration
}

func Load() Config {
	cfg := Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getLogLevel("LOG_LEVEL", slog.LevelInfo),

		Storage:     strings.ToLower(getEnv("STORAGE", StorageMySQL)),
		DatabaseDSN: getEnv("DATABASE_DSN", "root:password@tcp(127.0.0.1:3306)/parley?parseTime=true&loc=UTC"),

		JWTSecret:          getEnv("JWT_SECRET", defaultJWTSecret),
		JWTExpiry:          24 * time.Hour,
		TokenSweepInterval: getDuration("TOKEN_SWEEP_INTERVAL", 10*time.Minute),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		LLMTimeout:   getDuration("LLM_TIMEOUT", 60*time.Second),

		StreamChunkWords: getInt("STREAM_CHUNK_WORDS", 3),
		StreamChunkDelay: getDuration("STREAM_CHUNK_DELAY", 100*time.Millisecond),

		CORSOrigins: getList("CORS_ORIGINS", []string{"http://localhost:3000"}),

		RedisURL: getEnv("REDIS_URL", ""),
		CacheTTL: getDuration("CACHE_TTL", 5*time.Minute),
	}

	if cfg.Env == "production" && cfg.JWTSecret == defaultJWTSecret {
		slog.Error("JWT_SECRET must be set in production environment")
		os.Exit(1)
	}

	if cfg.Storage != StorageMySQL && cfg.Storage != StorageMemory {
		slog.Warn("unknown STORAGE, falling back to mysql", "storage", cfg.Storage)
		cfg.Storage = StorageMySQL
	}

	if cfg.StreamChunkWords < 1 {
		slog.Warn("STREAM_CHUNK_WORDS must be positive, using 3", "value", cfg.StreamChunkWords)
		cfg.StreamChunkWords = 3
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
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", v)
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		slog.Warn("invalid duration in environment, using default", "key", key, "value", v)
		return fallback
	}
	return d
}

// getList splits a comma separated value, dropping blanks.
func getList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func getLogLevel(key string, fallback slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(v)); err != nil {
		slog.Warn("invalid log level in environment, using default", "key", key, "value", v)
		return fallback
	}
	return lvl
}
