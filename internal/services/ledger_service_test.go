package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doorline/backend/internal/errs"
	"github.com/doorline/backend/internal/models"
)

func TestLedgerService_UnpaidBalance(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewLedgerService(db)

	t.Run("sums unpaid entries", func(t *testing.T) {
		mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) FROM ledger_entries WHERE beneficiary_id = \\$1 AND paid_at IS NULL").
			WithArgs("venue-1").
			WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(int64(4250)))

		balance, err := service.UnpaidBalance(context.Background(), "venue-1")
		assert.NoError(t, err)
		assert.Equal(t, int64(4250), balance)
	})

	t.Run("store failure", func(t *testing.T) {
		mock.ExpectQuery("SELECT COALESCE").
			WithArgs("venue-1").
			WillReturnError(errors.New("connection refused"))

		_, err := service.UnpaidBalance(context.Background(), "venue-1")
		assert.ErrorIs(t, err, errs.ErrStoreUnavailable)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerService_ListEntries(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	service := NewLedgerService(db)
	created := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT id, beneficiary_type").
		WithArgs("venue-1", 100).
		WillReturnRows(sqlmock.NewRows([]string{"id", "beneficiary_type", "beneficiary_id", "transaction_id", "entry_type", "amount", "created_at", "paid_at", "payout_id"}).
			AddRow("e2", "venue", "venue-1", "payout:p1", "payout", int64(-2000), created, created, "p1").
			AddRow("e1", "venue", "venue-1", "tx-1", "sale", int64(2000), created, created, "p1"))

	entries, err := service.ListEntries(context.Background(), "venue-1", 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.EntryPayout, entries[0].EntryType)
	require.NotNil(t, entries[1].PaidAt)
	assert.Equal(t, "p1", *entries[1].PayoutID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(uniqueViolation()))
	assert.True(t, isUniqueViolation(storeErr("insert", uniqueViolation())))
	assert.False(t, isUniqueViolation(errors.New("23505")))
	assert.False(t, isUniqueViolation(nil))
}
