package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/mealwise/mealwise/internal/config"
	"github.com/mealwise/mealwise/internal/handler"
	"github.com/mealwise/mealwise/internal/middleware"
)

// NewRouter mounts every endpoint on a chi router. The returned limiter must
// be closed when the router is discarded.
func NewRouter(cfg *config.Config, svc *Services) (http.Handler, *middleware.RateLimiter) {
	// ─── Handlers ────────────────────────────────────────────────────────────────
	healthH := handler.NewHealthHandler(svc.Checks)
	toolsH := handler.NewToolsHandler(svc.Meals)
	recipesH := handler.NewRecipesHandler(svc.Meals)
	var chatH *handler.ChatHandler
	if svc.ChatEnabled {
		chatH = handler.NewChatHandler(svc.Meals)
	}

	// ─── Router ──────────────────────────────────────────────────────────────────
	r := chi.NewRouter()

	// RequestID runs first so panics and access logs carry the id.
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigins)))
	r.Use(chiMiddleware.RealIP)

	// Public routes
	r.Get("/health", healthH.Health)
	r.Get("/", healthH.Health)

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)

	r.Group(func(r chi.Router) {
		r.Use(limiter.Middleware(cfg.APIKeyHeader))
		if cfg.EnableAuth {
			r.Use(middleware.Auth(cfg.APIKeys, cfg.APIKeyHeader))
		}

		mount := func(r chi.Router) {
			if chatH != nil {
				r.Post("/chat", chatH.Chat)
			}

			r.Get("/tools", toolsH.List)
			r.Post("/tools/{name}", toolsH.Call)

			r.Get("/recipes", recipesH.List)
			r.Get("/recipes/{id}", recipesH.Get)
			r.Get("/recipes/{id}/swap", recipesH.Swap)
		}
		// chi rejects an empty mount pattern.
		if cfg.APIPrefix == "" {
			mount(r)
		} else {
			r.Route(cfg.APIPrefix, mount)
		}
	})

	return r, limiter
}
