// Package app assembles config, stores, services and the HTTP router shared by
// the API server and doorctl.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/doorline/backend/internal/config"
	"github.com/doorline/backend/internal/database"
	"github.com/doorline/backend/internal/metrics"
	"github.com/doorline/backend/internal/payoutrail"
	"github.com/doorline/backend/internal/services"
)

type App struct {
	Logger *zap.Logger
	DB     *sql.DB
	Redis  *redis.Client

	Directory *services.DirectoryService
	Tokens    *services.TokenService
	QR        *services.QRService
	Splits    *services.SplitService
	Wallets   *services.WalletService
	Ledger    *services.LedgerService
	Pool      *services.PoolService
	Payouts   *services.PayoutService
}

// New opens Postgres and Redis and builds every service. config.Init must
// have run. Redis is optional.
func New(ctx context.Context, logger *zap.Logger) (*App, error) {
	db, err := database.Open(ctx, logger)
	if err != nil {
		return nil, err
	}
	rdb := database.InitRedis(ctx, logger)

	rail, err := payoutrail.New(config.LoadRailConfig(), logger)
	if err != nil {
		db.Close()
		if rdb != nil {
			rdb.Close()
		}
		return nil, fmt.Errorf("payout rail: %w", err)
	}

	return build(db, rdb, rail, logger), nil
}

func build(db *sql.DB, rdb *redis.Client, rail payoutrail.Rail, logger *zap.Logger) *App {
	metrics.Init()

	tokenCfg := config.LoadTokenConfig()
	if tokenCfg.Pepper == "" {
		logger.Warn("token.pepper is empty; secret hashes are unkeyed")
	}

	directory := services.NewDirectoryService(db)
	wallets := services.NewWalletService(db, logger)

	return &App{
		Logger:    logger,
		DB:        db,
		Redis:     rdb,
		Directory: directory,
		Tokens:    services.NewTokenService(db, rdb, directory, tokenCfg, logger),
		QR:        services.NewQRService(tokenCfg.QRSize),
		Splits:    services.NewSplitService(db, directory, directory, wallets, config.LoadSplitConfig(), logger),
		Wallets:   wallets,
		Ledger:    services.NewLedgerService(db),
		Pool:      services.NewPoolService(db, logger),
		Payouts:   services.NewPayoutService(db, rdb, rail, config.LoadPayoutConfig(), logger),
	}
}

func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warn("close redis", zap.Error(err))
		}
	}
	if err := a.DB.Close(); err != nil {
		a.Logger.Warn("close database", zap.Error(err))
	}
}
