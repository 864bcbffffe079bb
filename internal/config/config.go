// Package config loads runtime settings through viper. Values come from an
// optional .env file, overridden by environment variables.
package config

import (
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var envBindings = map[string]string{
	"app.env":     "APP_ENV",
	"server.port": "SERVER_PORT",

	"server.cors_origins": "SERVER_CORS_ORIGINS",

	"database.host":     "DATABASE_HOST",
	"database.port":     "DATABASE_PORT",
	"database.user":     "DATABASE_USER",
	"database.password": "DATABASE_PASSWORD",
	"database.name":     "DATABASE_NAME",
	"database.ssl_mode": "DATABASE_SSL_MODE",

	"redis.host":     "REDIS_HOST",
	"redis.port":     "REDIS_PORT",
	"redis.password": "REDIS_PASSWORD",
	"redis.db":       "REDIS_DB",

	"jwt.secret_key": "JWT_SECRET_KEY",

	"token.ttl":          "TOKEN_TTL",
	"token.pepper":       "TOKEN_PEPPER",
	"token.secret_bytes": "TOKEN_SECRET_BYTES",
	"token.issue_limit":  "TOKEN_ISSUE_LIMIT",
	"token.issue_window": "TOKEN_ISSUE_WINDOW",
	"token.scan_timeout": "TOKEN_SCAN_TIMEOUT",
	"token.qr_size":      "TOKEN_QR_SIZE",

	"split.promoter_cut_bps":     "SPLIT_PROMOTER_CUT_BPS",
	"split.platform_share_bps":   "SPLIT_PLATFORM_SHARE_BPS",
	"split.platform_beneficiary": "SPLIT_PLATFORM_BENEFICIARY",
	"split.pool_beneficiary":     "SPLIT_POOL_BENEFICIARY",
	"split.pass_validity":        "SPLIT_PASS_VALIDITY",

	"payout.currency":      "PAYOUT_CURRENCY",
	"payout.lock_ttl":      "PAYOUT_LOCK_TTL",
	"payout.sweep_workers": "PAYOUT_SWEEP_WORKERS",
	"payout.timezone":      "PAYOUT_TIMEZONE",

	"rail.mode":       "RAIL_MODE",
	"rail.base_url":   "RAIL_BASE_URL",
	"rail.api_key":    "RAIL_API_KEY",
	"rail.timeout":    "RAIL_TIMEOUT",
	"rail.debtor_bic": "RAIL_DEBTOR_BIC",
}

// Init wires viper to the .env file and environment, and registers defaults.
func Init(logger *zap.Logger) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	for key, env := range envBindings {
		_ = viper.BindEnv(key, env)
	}
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		logger.Info("config file not found, using environment and defaults", zap.Error(err))
	}
}

func setDefaults() {
	viper.SetDefault("app.env", "development")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.cors_origins", []string{"https://*", "http://*"})

	viper.SetDefault("token.ttl", 60*time.Second)
	viper.SetDefault("token.secret_bytes", 32)
	viper.SetDefault("token.issue_limit", 30)
	viper.SetDefault("token.issue_window", time.Minute)
	viper.SetDefault("token.scan_timeout", 3*time.Second)
	viper.SetDefault("token.qr_size", 256)

	viper.SetDefault("split.promoter_cut_bps", 1000)
	viper.SetDefault("split.platform_share_bps", 6000)
	viper.SetDefault("split.platform_beneficiary", "platform")
	viper.SetDefault("split.pool_beneficiary", "venue-pool")
	viper.SetDefault("split.pass_validity", 720*time.Hour)

	viper.SetDefault("payout.currency", "USD")
	viper.SetDefault("payout.lock_ttl", 2*time.Minute)
	viper.SetDefault("payout.sweep_workers", 4)
	viper.SetDefault("payout.timezone", "UTC")

	viper.SetDefault("rail.mode", "sandbox")
	viper.SetDefault("rail.timeout", 10*time.Second)
	viper.SetDefault("rail.debtor_bic", "DOORUS33XXX")
}

// TokenConfig controls issuance and validation of access tokens.
type TokenConfig struct {
	TTL         time.Duration
	Pepper      string
	SecretBytes int
	IssueLimit  int
	IssueWindow time.Duration
	ScanTimeout time.Duration
	QRSize      int
}

func LoadTokenConfig() *TokenConfig {
	return &TokenConfig{
		TTL:         viper.GetDuration("token.ttl"),
		Pepper:      viper.GetString("token.pepper"),
		SecretBytes: viper.GetInt("token.secret_bytes"),
		IssueLimit:  viper.GetInt("token.issue_limit"),
		IssueWindow: viper.GetDuration("token.issue_window"),
		ScanTimeout: viper.GetDuration("token.scan_timeout"),
		QRSize:      viper.GetInt("token.qr_size"),
	}
}

// SplitConfig holds the waterfall constants in basis points.
type SplitConfig struct {
	PromoterCutBps      int64
	PlatformShareBps    int64
	PlatformBeneficiary string
	PoolBeneficiary     string
	PassValidity        time.Duration
}

func LoadSplitConfig() *SplitConfig {
	return &SplitConfig{
		PromoterCutBps:      viper.GetInt64("split.promoter_cut_bps"),
		PlatformShareBps:    viper.GetInt64("split.platform_share_bps"),
		PlatformBeneficiary: viper.GetString("split.platform_beneficiary"),
		PoolBeneficiary:     viper.GetString("split.pool_beneficiary"),
		PassValidity:        viper.GetDuration("split.pass_validity"),
	}
}

type PayoutConfig struct {
	Currency     string
	LockTTL      time.Duration
	SweepWorkers int
	Location     *time.Location
}

// LoadPayoutConfig falls back to UTC when payout.timezone cannot be resolved.
func LoadPayoutConfig() *PayoutConfig {
	loc, err := time.LoadLocation(viper.GetString("payout.timezone"))
	if err != nil {
		loc = time.UTC
	}
	return &PayoutConfig{
		Currency:     viper.GetString("payout.currency"),
		LockTTL:      viper.GetDuration("payout.lock_ttl"),
		SweepWorkers: viper.GetInt("payout.sweep_workers"),
		Location:     loc,
	}
}

type RailConfig struct {
	Mode      string
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	DebtorBIC string
}

func LoadRailConfig() *RailConfig {
	return &RailConfig{
		Mode:      viper.GetString("rail.mode"),
		BaseURL:   viper.GetString("rail.base_url"),
		APIKey:    viper.GetString("rail.api_key"),
		Timeout:   viper.GetDuration("rail.timeout"),
		DebtorBIC: viper.GetString("rail.debtor_bic"),
	}
}
