package app

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	_ "github.com/doorline/backend/docs"
	"github.com/doorline/backend/internal/handlers"
	"github.com/doorline/backend/internal/metrics"
	mW "github.com/doorline/backend/internal/middleware"
)

// Router builds the HTTP surface. /health, /metrics and /swagger are public;
// everything under /api/v1 needs a bearer token with a suitable role.
func (a *App) Router() http.Handler {
	tokenHandler := handlers.NewTokenHandler(a.Tokens, a.QR, a.Logger)
	splitHandler := handlers.NewSplitHandler(a.Splits)
	payoutHandler := handlers.NewPayoutHandler(a.Payouts)
	ledgerHandler := handlers.NewLedgerHandler(a.Ledger)
	walletHandler := handlers.NewWalletHandler(a.Wallets)
	poolHandler := handlers.NewPoolHandler(a.Pool)

	r := chi.NewRouter()

	r.Use(mW.SecurityHeaders)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mW.RequestLogger(a.Logger))
	r.Use(chimw.Recoverer)
	r.Use(mW.HTTPMetrics)
	r.Use(chimw.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   viper.GetStringSlice("server.cors_origins"),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           86400,
	}))

	r.Get("/health", a.health)
	r.Handle("/metrics", metrics.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mW.AuthMiddleware)

		r.With(mW.RequireRole(mW.RoleMember, mW.RoleOperator)).Post("/tokens", tokenHandler.Issue)
		r.With(mW.RequireRole(mW.RoleDevice)).Post("/tokens/validate", tokenHandler.Validate)

		r.With(mW.RequireRole(mW.RolePOS, mW.RoleOperator)).Post("/splits", splitHandler.Apply)

		r.Group(func(r chi.Router) {
			r.Use(mW.RequireRole(mW.RoleOperator))

			r.Post("/payouts/settle", payoutHandler.Settle)
			r.Post("/payouts/sweep", payoutHandler.Sweep)
			r.Get("/payouts/{beneficiaryId}", payoutHandler.History)

			r.Get("/ledger/{beneficiaryId}/balance", ledgerHandler.Balance)
			r.Get("/ledger/{beneficiaryId}/entries", ledgerHandler.Entries)

			r.Post("/pool-distributions/{id}/attribute", poolHandler.Attribute)
		})

		r.Group(func(r chi.Router) {
			r.Use(mW.RequireRole(mW.RoleMember, mW.RolePOS, mW.RoleOperator))

			r.Get("/wallets/{subjectId}", walletHandler.Balance)
			r.Get("/wallets/{subjectId}/transactions", walletHandler.Transactions)
		})

		r.Group(func(r chi.Router) {
			r.Use(mW.RequireRole(mW.RolePOS, mW.RoleOperator))

			r.Post("/wallets/{subjectId}/credit", walletHandler.Credit)
			r.Post("/wallets/{subjectId}/debit", walletHandler.Debit)
			r.Post("/wallets/{subjectId}/transactions/{txId}/reverse", walletHandler.Reverse)
		})
	})

	return r
}

func (a *App) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"status": "healthy", "database": "up", "redis": "disabled"}
	code := http.StatusOK
	if err := a.DB.PingContext(ctx); err != nil {
		a.Logger.Warn("health: database ping failed", zap.Error(err))
		status["status"] = "degraded"
		status["database"] = "down"
		code = http.StatusServiceUnavailable
	}
	if a.Redis != nil {
		status["redis"] = "up"
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			status["redis"] = "down"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(status)
}
