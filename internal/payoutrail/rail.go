// Package payoutrail is the outbound transfer primitive used by settlement.
// Every transfer carries an idempotency key; a rail must return the original
// receipt when it sees a key again.
package payoutrail

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/doorline/backend/internal/config"
)

var (
	// ErrTransferRejected is a permanent refusal (bad account, invalid amount).
	ErrTransferRejected = errors.New("transfer rejected")
	// ErrTransferUnavailable is a retryable failure (timeout, 5xx, network).
	ErrTransferUnavailable = errors.New("transfer unavailable")
)

type TransferRequest struct {
	IdempotencyKey string
	BeneficiaryID  string
	Amount         int64 // minor units
	Currency       string
	Reference      string
}

type TransferReceipt struct {
	TransferID string
	Status     string
	AcceptedAt time.Time
}

type Rail interface {
	Transfer(ctx context.Context, req TransferRequest) (*TransferReceipt, error)
}

// New picks the rail named by rail.mode.
func New(cfg *config.RailConfig, logger *zap.Logger) (Rail, error) {
	switch cfg.Mode {
	case "", "sandbox":
		logger.Warn("payout rail running in sandbox mode")
		return NewSandboxRail(), nil
	case "iso20022":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("rail.base_url is required for iso20022 mode")
		}
		return NewISO20022Rail(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown rail mode %q", cfg.Mode)
	}
}
