package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/parley/parley-go/internal/middleware"
	"github.com/parley/parley-go/internal/service"
)

// RouterConfig wires services into the HTTP surface.
type RouterConfig struct {
	Env           string
	CORSOrigins   []string
	Auth          *service.AuthService
	Tokens        middleware.Authenticator
	Conversations *service.ConversationService // nil disables conversation routes

	// AuthRateLimit applies to register and login; zero disables it.
	AuthRateLimit float64
	AuthBurst     int
}

// NewRouter builds the router. ctx bounds background work such as rate
// limiter cleanup.
func NewRouter(ctx context.Context, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":      "healthy",
			"environment": cfg.Env,
		})
	})

	authHandler := NewAuthHandler(cfg.Auth)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if cfg.AuthRateLimit > 0 {
				r.Use(middleware.RateLimit(ctx, cfg.AuthRateLimit, cfg.AuthBurst))
			}
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/login", authHandler.HandleLogin)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(cfg.Tokens))
			r.Post("/logout", authHandler.HandleLogout)
			r.Get("/me", authHandler.HandleMe)
			r.Put("/me", authHandler.HandleUpdateMe)

			if cfg.Conversations == nil {
				return
			}
			convHandler := NewConversationHandler(cfg.Conversations)
			r.Get("/conversations", convHandler.HandleList)
			r.Post("/conversations", convHandler.HandleStart)
			r.Get("/conversations/{id}", convHandler.HandleGet)
			r.Delete("/conversations/{id}", convHandler.HandleDelete)
			r.Post("/conversations/{id}/messages", convHandler.HandleAppend)
			r.Post("/conversations/{id}/messages/stream", convHandler.HandleStream)
		})
	})

	return r
}
