package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"promptvault/internal/analytics"
	"promptvault/internal/api/handlers"
	"promptvault/internal/api/middleware"
	"promptvault/internal/cache"
	"promptvault/internal/config"
	"promptvault/internal/llm"
	"promptvault/internal/prompt"
	"promptvault/internal/queue"
	"promptvault/internal/webhook"
)

type Router struct {
	mux   *chi.Mux
	db    *pgxpool.Pool
	redis *redis.Client
	cfg   *config.Config
}

func NewRouter(db *pgxpool.Pool, rdb *redis.Client, cfg *config.Config) *Router {
	return &Router{
		mux:   chi.NewRouter(),
		db:    db,
		redis: rdb,
		cfg:   cfg,
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	rl := middleware.NewRateLimiter(rt.cfg.Server)
	r.Use(rl.Limit)

	// Health and metrics (no rate-limited API prefix)
	health := handlers.NewHealthHandler(rt.db, rt.redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	// Services
	var c *cache.Cache
	if rt.redis != nil {
		c = cache.New(rt.redis)
	}

	promptSvc := prompt.NewService(rt.db)
	analyticsSvc := analytics.NewService(rt.db)
	queueClient := queue.NewClient(rt.cfg.Redis, rt.cfg.Webhook)
	webhookSvc := webhook.NewService(rt.db, queueClient)

	provider, err := llm.NewFromConfig(rt.cfg.LLM)
	if err != nil {
		if !errors.Is(err, llm.ErrNotConfigured) {
			slog.Warn("LLM provider setup failed", "error", err)
		}
		provider = nil
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		promptH := handlers.NewPromptHandler(promptSvc, webhookSvc, provider)
		r.Route("/prompts", func(r chi.Router) {
			r.Post("/", promptH.Create)
			r.Get("/", promptH.List)
			r.Get("/{id}", promptH.Get)
			r.Put("/{id}", promptH.Update)
			r.Delete("/{id}", promptH.Delete)
			r.Post("/{id}/favorite", promptH.ToggleFavorite)
			r.Post("/{id}/execute", promptH.Execute)
			r.Post("/{id}/render", promptH.Render)
			r.Post("/{id}/test", promptH.Test)
			r.Post("/{id}/ratings", promptH.AddRating)
			r.Get("/{id}/ratings", promptH.ListRatings)
		})

		analyticsH := handlers.NewAnalyticsHandler(analyticsSvc, promptSvc, c)
		r.Get("/filters", analyticsH.Filters)
		r.Get("/analytics", analyticsH.Dashboard)

		webhookH := handlers.NewWebhookHandler(webhookSvc)
		r.Route("/webhooks", func(r chi.Router) {
			r.Post("/", webhookH.Create)
			r.Get("/", webhookH.List)
			r.Delete("/{id}", webhookH.Delete)
		})
	})

	return r
}
