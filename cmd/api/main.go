package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/parley/parley-go/internal/cache"
	"github.com/parley/parley-go/internal/config"
	"github.com/parley/parley-go/internal/handler"
	"github.com/parley/parley-go/internal/llm"
	"github.com/parley/parley-go/internal/repository"
	"github.com/parley/parley-go/internal/repository/memory"
	"github.com/parley/parley-go/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func run(ctx context.Context, cfg config.Config) error {
	var (
		users         service.UserStore
		tokenStore    service.TokenStore
		conversations service.ConversationStore
	)

	switch cfg.Storage {
	case config.StorageMemory:
		slog.Warn("using in-memory storage, data is lost on restart")
		users = memory.NewUserStore()
		tokenStore = memory.NewTokenStore()
		conversations = memory.NewConversationStore()
	default:
		db, err := repository.NewDB(cfg.DatabaseDSN)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := repository.Migrate(ctx, db); err != nil {
			return err
		}
		users = repository.NewUserRepository(db)
		tokenStore = repository.NewTokenRepository(db)
		conversations = repository.NewConversationRepository(db)
	}

	tokens := service.NewTokenService(tokenStore, cfg.JWTSecret, cfg.JWTExpiry)
	auth := service.NewAuthService(users, tokens)

	routerCfg := handler.RouterConfig{
		Env:           cfg.Env,
		CORSOrigins:   cfg.CORSOrigins,
		Auth:          auth,
		Tokens:        tokens,
		AuthRateLimit: 5,
		AuthBurst:     10,
	}

	provider, err := llm.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		slog.Warn("completion provider unavailable, conversation routes disabled", "error", err)
	} else {
		var convCache service.ConversationCache
		if cfg.RedisURL != "" {
			client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
			if err != nil {
				slog.Warn("redis unavailable, conversation cache disabled", "error", err)
			} else {
				defer client.Close()
				convCache = cache.NewConversationCache(client, cfg.CacheTTL)
			}
		}

		routerCfg.Conversations = service.NewConversationService(conversations, provider, convCache, service.ConversationConfig{
			LLMTimeout: cfg.LLMTimeout,
			ChunkWords: cfg.StreamChunkWords,
			ChunkDelay: cfg.StreamChunkDelay,
		})
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.NewRouter(ctx, routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env, "storage", cfg.Storage)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return tokens.RunSweeper(gctx, cfg.TokenSweepInterval)
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
