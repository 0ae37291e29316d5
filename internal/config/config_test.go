package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "ENV", "LOG_LEVEL", "STORAGE", "JWT_SECRET", "GEMINI_API_KEY",
		"LLM_TIMEOUT", "STREAM_CHUNK_WORDS", "STREAM_CHUNK_DELAY", "CORS_ORIGINS",
		"REDIS_URL", "CACHE_TTL", "TOKEN_SWEEP_INTERVAL",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.Storage != StorageMySQL {
		t.Errorf("Storage = %q, want %q", cfg.Storage, StorageMySQL)
	}
	if cfg.JWTExpiry != 24*time.Hour {
		t.Errorf("JWTExpiry = %v, want %v", cfg.JWTExpiry, 24*time.Hour)
	}
	if cfg.LLMTimeout != 60*time.Second {
		t.Errorf("LLMTimeout = %v, want %v", cfg.LLMTimeout, 60*time.Second)
	}
	if cfg.StreamChunkWords != 3 {
		t.Errorf("StreamChunkWords = %d, want %d", cfg.StreamChunkWords, 3)
	}
	if cfg.StreamChunkDelay != 100*time.Millisecond {
		t.Errorf("StreamChunkDelay = %v, want %v", cfg.StreamChunkDelay, 100*time.Millisecond)
	}
	if cfg.GeminiModel != "gemini-2.0-flash" {
		t.Errorf("GeminiModel = %q, want %q", cfg.GeminiModel, "gemini-2.0-flash")
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want %v", cfg.LogLevel, slog.LevelInfo)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("STORAGE", "Memory")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LLM_TIMEOUT", "5s")
	t.Setenv("STREAM_CHUNK_WORDS", "5")
	t.Setenv("STREAM_CHUNK_DELAY", "0s")
	t.Setenv("CORS_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("CACHE_TTL", "1m")

	cfg := Load()

	if cfg.Storage != StorageMemory {
		t.Errorf("Storage = %q, want %q", cfg.Storage, StorageMemory)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want %v", cfg.LogLevel, slog.LevelDebug)
	}
	if cfg.LLMTimeout != 5*time.Second {
		t.Errorf("LLMTimeout = %v, want %v", cfg.LLMTimeout, 5*time.Second)
	}
	if cfg.StreamChunkWords != 5 {
		t.Errorf("StreamChunkWords = %d, want %d", cfg.StreamChunkWords, 5)
	}
	if cfg.StreamChunkDelay != 0 {
		t.Errorf("StreamChunkDelay = %v, want 0", cfg.StreamChunkDelay)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[0] != "https://a.example" || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %v, want [https://a.example https://b.example]", cfg.CORSOrigins)
	}
	if cfg.CacheTTL != time.Minute {
		t.Errorf("CacheTTL = %v, want %v", cfg.CacheTTL, time.Minute)
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("STORAGE", "postgres")
	t.Setenv("LLM_TIMEOUT", "soon")
	t.Setenv("STREAM_CHUNK_WORDS", "0")
	t.Setenv("LOG_LEVEL", "loud")

	cfg := Load()

	if cfg.Storage != StorageMySQL {
		t.Errorf("Storage = %q, want %q", cfg.Storage, StorageMySQL)
	}
	if cfg.LLMTimeout != 60*time.Second {
		t.Errorf("LLMTimeout = %v, want %v", cfg.LLMTimeout, 60*time.Second)
	}
	if cfg.StreamChunkWords != 3 {
		t.Errorf("StreamChunkWords = %d, want %d", cfg.StreamChunkWords, 3)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want %v", cfg.LogLevel, slog.LevelInfo)
	}
}
