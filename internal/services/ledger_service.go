package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/doorline/backend/internal/errs"
	"github.com/doorline/backend/internal/models"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const ledgerColumns = `id, beneficiary_type, beneficiary_id, transaction_id, entry_type, amount, created_at, paid_at, payout_id`

// LedgerService reads beneficiary balances and writes immutable ledger rows.
type LedgerService struct {
	db *sql.DB
}

func NewLedgerService(db *sql.DB) *LedgerService {
	return &LedgerService{db: db}
}

// UnpaidBalance is the settleable balance: the sum of entries not yet paid.
func (s *LedgerService) UnpaidBalance(ctx context.Context, beneficiaryID string) (int64, error) {
	var balance int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM ledger_entries
		WHERE beneficiary_id = $1 AND paid_at IS NULL
	`, beneficiaryID).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("%w: unpaid balance: %v", errs.ErrStoreUnavailable, err)
	}
	return balance, nil
}

// ListEntries returns a beneficiary's most recent entries, newest first.
func (s *LedgerService) ListEntries(ctx context.Context, beneficiaryID string, limit int) ([]models.LedgerEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+ledgerColumns+`
		FROM ledger_entries
		WHERE beneficiary_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2
	`, beneficiaryID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list entries: %v", errs.ErrStoreUnavailable, err)
	}
	return scanLedgerEntries(rows)
}

func insertLedgerEntry(ctx context.Context, q querier, e *models.LedgerEntry) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO ledger_entries (id, beneficiary_type, beneficiary_id, transaction_id, entry_type, amount, created_at, paid_at, payout_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, e.ID, string(e.BeneficiaryType), e.BeneficiaryID, e.TransactionID, string(e.EntryType), e.Amount, e.CreatedAt,
		nullTime(e.PaidAt), nullStringPtr(e.PayoutID))
	return err
}

func entriesByTransaction(ctx context.Context, q querier, transactionID string, entryType models.EntryType) ([]models.LedgerEntry, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+ledgerColumns+`
		FROM ledger_entries
		WHERE transaction_id = $1 AND entry_type = $2
		ORDER BY created_at, id
	`, transactionID, string(entryType))
	if err != nil {
		return nil, err
	}
	return scanLedgerEntries(rows)
}

func scanLedgerEntries(rows *sql.Rows) ([]models.LedgerEntry, error) {
	defer rows.Close()

	entries := []models.LedgerEntry{}
	for rows.Next() {
		var e models.LedgerEntry
		var paidAt sql.NullTime
		var payoutID sql.NullString
		if err := rows.Scan(&e.ID, &e.BeneficiaryType, &e.BeneficiaryID, &e.TransactionID, &e.EntryType,
			&e.Amount, &e.CreatedAt, &paidAt, &payoutID); err != nil {
			return nil, err
		}
		if paidAt.Valid {
			e.PaidAt = &paidAt.Time
		}
		if payoutID.Valid {
			e.PayoutID = &payoutID.String
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// isUniqueViolation reports a Postgres 23505 error.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
