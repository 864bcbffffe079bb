package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/doorline/backend/internal/audit"
	"github.com/doorline/backend/internal/errs"
	"github.com/doorline/backend/internal/metrics"
	"github.com/doorline/backend/internal/models"
)

// WalletService keeps each subject's wallet as an append-only log. The
// current balance is the balance_after of the highest seq row and is never
// stored anywhere else.
type WalletService struct {
	db     *sql.DB
	logger *zap.Logger
	audit  *audit.Logger
	now    func() time.Time
}

func NewWalletService(db *sql.DB, logger *zap.Logger) *WalletService {
	return &WalletService{
		db:     db,
		logger: logger.Named("wallet"),
		audit:  audit.NewLogger(logger),
		now:    time.Now,
	}
}

func (s *WalletService) CurrentBalance(ctx context.Context, subjectID string) (int64, error) {
	_, balance, err := latestWalletRow(ctx, s.db, subjectID)
	if err != nil {
		return 0, fmt.Errorf("%w: wallet balance: %v", errs.ErrStoreUnavailable, err)
	}
	return balance, nil
}

func (s *WalletService) Credit(ctx context.Context, subjectID string, amount int64, reference string) (*models.WalletTransaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: credit amount must be positive", errs.ErrInvalidInput)
	}
	return s.apply(ctx, subjectID, models.WalletRefill, func(ctx context.Context, tx *sql.Tx) (*models.WalletTransaction, error) {
		return s.appendTx(ctx, tx, subjectID, models.WalletRefill, amount, reference, nil)
	})
}

// Debit fails with errs.ErrInsufficientFunds, writing nothing, when the
// balance would go below zero.
func (s *WalletService) Debit(ctx context.Context, subjectID string, amount int64, reference string) (*models.WalletTransaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: debit amount must be positive", errs.ErrInvalidInput)
	}
	return s.apply(ctx, subjectID, models.WalletCharge, func(ctx context.Context, tx *sql.Tx) (*models.WalletTransaction, error) {
		return s.debitTx(ctx, tx, subjectID, amount, reference)
	})
}

// Reverse appends the opposite of walletTxID. A transaction can be reversed once.
func (s *WalletService) Reverse(ctx context.Context, subjectID, walletTxID, reference string) (*models.WalletTransaction, error) {
	return s.apply(ctx, subjectID, models.WalletReversal, func(ctx context.Context, tx *sql.Tx) (*models.WalletTransaction, error) {
		if err := lockWallet(ctx, tx, subjectID); err != nil {
			return nil, fmt.Errorf("%w: wallet lock: %v", errs.ErrStoreUnavailable, err)
		}

		var txType models.WalletTxType
		var amount int64
		var alreadyReversed bool
		err := tx.QueryRowContext(ctx, `
			SELECT w.type, w.amount,
			       EXISTS (SELECT 1 FROM wallet_transactions r WHERE r.reverses_id = w.id)
			FROM wallet_transactions w
			WHERE w.id = $1 AND w.subject_id = $2
		`, walletTxID, subjectID).Scan(&txType, &amount, &alreadyReversed)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("wallet transaction %s: %w", walletTxID, errs.ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: load wallet transaction: %v", errs.ErrStoreUnavailable, err)
		}
		if txType == models.WalletReversal {
			return nil, fmt.Errorf("%w: a reversal cannot be reversed", errs.ErrInvalidInput)
		}
		if alreadyReversed {
			return nil, fmt.Errorf("%w: wallet transaction %s already reversed", errs.ErrInvalidInput, walletTxID)
		}
		if reference == "" {
			reference = "reversal:" + walletTxID
		}
		return s.appendLocked(ctx, tx, subjectID, models.WalletReversal, -amount, reference, &walletTxID)
	})
}

func (s *WalletService) History(ctx context.Context, subjectID string, limit int) ([]models.WalletTransaction, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, subject_id, seq, type, amount, balance_after, reference, reverses_id, created_at
		FROM wallet_transactions
		WHERE subject_id = $1
		ORDER BY seq DESC
		LIMIT $2
	`, subjectID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: wallet history: %v", errs.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	history := []models.WalletTransaction{}
	for rows.Next() {
		var w models.WalletTransaction
		var reverses sql.NullString
		if err := rows.Scan(&w.ID, &w.SubjectID, &w.Seq, &w.Type, &w.Amount, &w.BalanceAfter, &w.Reference, &reverses, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: wallet history: %v", errs.ErrStoreUnavailable, err)
		}
		if reverses.Valid {
			w.ReversesID = &reverses.String
		}
		history = append(history, w)
	}
	return history, rows.Err()
}

func (s *WalletService) apply(ctx context.Context, subjectID string, op models.WalletTxType, fn func(context.Context, *sql.Tx) (*models.WalletTransaction, error)) (*models.WalletTransaction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		metrics.WalletOps.WithLabelValues(string(op), "error").Inc()
		return nil, fmt.Errorf("%w: begin wallet tx: %v", errs.ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	wt, err := fn(ctx, tx)
	if err != nil {
		metrics.WalletOps.WithLabelValues(string(op), walletResult(err)).Inc()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		metrics.WalletOps.WithLabelValues(string(op), "error").Inc()
		s.logger.Error("commit wallet tx", zap.String("subject_id", subjectID), zap.Error(err))
		return nil, fmt.Errorf("%w: commit wallet tx: %v", errs.ErrStoreUnavailable, err)
	}

	metrics.WalletOps.WithLabelValues(string(op), "ok").Inc()
	s.audit.Wallet(subjectID, string(wt.Type), wt.Amount, wt.BalanceAfter)
	return wt, nil
}

// debitTx runs inside a caller's transaction so a wallet-funded charge and its
// ledger entries commit together.
func (s *WalletService) debitTx(ctx context.Context, tx *sql.Tx, subjectID string, amount int64, reference string) (*models.WalletTransaction, error) {
	return s.appendTx(ctx, tx, subjectID, models.WalletCharge, -amount, reference, nil)
}

func (s *WalletService) appendTx(ctx context.Context, tx *sql.Tx, subjectID string, txType models.WalletTxType, amount int64, reference string, reverses *string) (*models.WalletTransaction, error) {
	if err := lockWallet(ctx, tx, subjectID); err != nil {
		return nil, fmt.Errorf("%w: wallet lock: %v", errs.ErrStoreUnavailable, err)
	}
	return s.appendLocked(ctx, tx, subjectID, txType, amount, reference, reverses)
}

// appendLocked expects the subject's advisory lock to be held by tx.
func (s *WalletService) appendLocked(ctx context.Context, tx *sql.Tx, subjectID string, txType models.WalletTxType, amount int64, reference string, reverses *string) (*models.WalletTransaction, error) {
	seq, balance, err := latestWalletRow(ctx, tx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("%w: wallet balance: %v", errs.ErrStoreUnavailable, err)
	}

	next := balance + amount
	if next < 0 {
		return nil, fmt.Errorf("%w: balance %d, requested %d", errs.ErrInsufficientFunds, balance, -amount)
	}

	wt := &models.WalletTransaction{
		ID:           uuid.NewString(),
		SubjectID:    subjectID,
		Seq:          seq + 1,
		Type:         txType,
		Amount:       amount,
		BalanceAfter: next,
		Reference:    reference,
		ReversesID:   reverses,
		CreatedAt:    s.now().UTC(),
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO wallet_transactions (id, subject_id, seq, type, amount, balance_after, reference, reverses_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, wt.ID, wt.SubjectID, wt.Seq, string(wt.Type), wt.Amount, wt.BalanceAfter, wt.Reference, nullStringPtr(reverses), wt.CreatedAt)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("%w: concurrent wallet write for %s", errs.ErrStoreUnavailable, subjectID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: insert wallet transaction: %v", errs.ErrStoreUnavailable, err)
	}
	return wt, nil
}

func lockWallet(ctx context.Context, tx *sql.Tx, subjectID string) error {
	_, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "wallet:"+subjectID)
	return err
}

func latestWalletRow(ctx context.Context, q querier, subjectID string) (seq, balance int64, err error) {
	err = q.QueryRowContext(ctx, `
		SELECT seq, balance_after
		FROM wallet_transactions
		WHERE subject_id = $1
		ORDER BY seq DESC
		LIMIT 1
	`, subjectID).Scan(&seq, &balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, nil
	}
	return seq, balance, err
}

func walletResult(err error) string {
	switch {
	case errors.Is(err, errs.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, errs.ErrNotFound), errors.Is(err, errs.ErrInvalidInput):
		return "rejected"
	default:
		return "error"
	}
}
