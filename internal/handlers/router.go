package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	mW "github.com/betablockz/backend/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type RouterConfig struct {
	Wager          *WagerHandler
	Account        *AccountHandler
	Admin          *AdminHandler
	Metrics        http.Handler
	SwaggerURL     string
	AllowedOrigins []string
}

// NewRouter mounts the public, player and admin routes.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"https://*", "http://*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}
	if cfg.SwaggerURL != "" {
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(cfg.SwaggerURL)))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mW.AuthMiddleware)

		r.Post("/games/dice", cfg.Wager.PlayDice)
		r.Post("/games/mines", cfg.Wager.PlayMines)

		r.Get("/account", cfg.Account.GetAccount)
		r.Get("/account/entries", cfg.Account.RecentEntries)
		r.Get("/account/stats", cfg.Account.Stats)
		r.Get("/account/tier", cfg.Account.TierProgress)
		r.Post("/account/redeem", cfg.Account.Redeem)
		r.Post("/account/claim", cfg.Account.Claim)

		r.Route("/admin", func(r chi.Router) {
			r.Use(mW.AdminOnly)

			r.Get("/redemptions", cfg.Admin.PendingRedemptions)
			r.Post("/redemptions/{entryId}/{action}", cfg.Admin.ActionRedemption)
			r.Post("/accounts/{accountId}/credit-bonus", cfg.Admin.CreditBonus)
			r.Post("/accounts/{accountId}/adjust", cfg.Admin.Adjust)
			r.Get("/accounts/{accountId}/stats", cfg.Admin.AccountStats)
			r.Get("/accounts/{accountId}/reconcile", cfg.Admin.Reconcile)
		})
	})

	return r
}
