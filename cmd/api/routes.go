package main

import (
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adsgram/backend/internal/ads"
	"github.com/adsgram/backend/internal/auth"
	"github.com/adsgram/backend/internal/config"
	"github.com/adsgram/backend/internal/daily"
	"github.com/adsgram/backend/internal/dashboard"
	"github.com/adsgram/backend/internal/ledger"
	"github.com/adsgram/backend/internal/ratelimit"
	"github.com/adsgram/backend/internal/router"
	"github.com/adsgram/backend/internal/schema"
	"github.com/adsgram/backend/internal/tasks"
	"github.com/adsgram/backend/internal/withdrawals"
)

// buildRouter wires repositories, services and handlers over one pool.
func buildRouter(
	pool *pgxpool.Pool,
	cfg *config.Config,
	cal *daily.Calendar,
	dailyRepo *daily.Repository,
	limiter *ratelimit.Limiter,
	logger *slog.Logger,
) (http.Handler, error) {
	ledgerSvc := ledger.NewService(ledger.NewRepository(pool))

	authSvc, err := auth.NewService(auth.NewRepository(pool), limiter, auth.Options{
		Secret:     cfg.JWTSecret,
		SessionTTL: cfg.SessionTTL,
		AdminTTL:   cfg.AdminTTL,
		AdminPIN:   cfg.AdminPIN,
		DevLogin:   cfg.DevLoginEnabled,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	if cfg.DevLoginEnabled {
		slog.Warn("Dev login is enabled; do not run this configuration in production")
		if insecure := cfg.InsecureDefaults(); len(insecure) > 0 {
			slog.Warn("Development credentials in use", "vars", insecure)
		}
	}

	bodies, err := schema.New()
	if err != nil {
		return nil, err
	}

	adsSvc := ads.NewService(pool, ads.NewRepository(pool), dailyRepo, ledgerSvc, cal)
	tasksSvc := tasks.NewService(pool, tasks.NewRepository(pool), dailyRepo, ledgerSvc, cal)
	withdrawalsSvc := withdrawals.NewService(pool, withdrawals.NewRepository(pool), ledgerSvc, cfg.MinWithdrawalCents)

	return router.New(router.Deps{
		Auth:        auth.NewHandler(authSvc, cfg.SecureCookies, logger),
		Profile:     auth.NewProfileHandler(authSvc, logger),
		Ads:         ads.NewHandler(adsSvc, logger),
		Tasks:       tasks.NewHandler(tasksSvc, logger),
		Withdrawals: withdrawals.NewHandler(withdrawalsSvc, logger),
		Dashboard:   dashboard.NewHandler(dashboard.NewRepository(pool), logger),
		Resolver:    authSvc,
		Admin:       authSvc,
		Limiter:     limiter,
		Bodies:      bodies,
		TrustProxy:  cfg.TrustProxy,
		Health: func(r *http.Request) error {
			return pool.Ping(r.Context())
		},
		Logger: logger,
	}), nil
}
