package services

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/doorline/backend/internal/audit"
	"github.com/doorline/backend/internal/config"
	"github.com/doorline/backend/internal/errs"
	"github.com/doorline/backend/internal/metrics"
	"github.com/doorline/backend/internal/models"
	"github.com/doorline/backend/internal/payoutrail"
	"github.com/doorline/backend/internal/worker"
)

// PayoutService converts a beneficiary's unpaid ledger balance into one
// outbound transfer and marks the covered entries paid.
type PayoutService struct {
	db     *sql.DB
	redis  *redis.Client
	rail   payoutrail.Rail
	config *config.PayoutConfig
	logger *zap.Logger
	audit  *audit.Logger
	now    func() time.Time

	lockToken func() string
}

func NewPayoutService(db *sql.DB, rdb *redis.Client, rail payoutrail.Rail, cfg *config.PayoutConfig, logger *zap.Logger) *PayoutService {
	return &PayoutService{
		db:     db,
		redis:  rdb,
		rail:   rail,
		config: cfg,
		logger: logger.Named("payout"),
		audit:  audit.NewLogger(logger),
		now:    time.Now,

		lockToken: uuid.NewString,
	}
}

type unpaidEntry struct {
	id              string
	amount          int64
	beneficiaryType models.BeneficiaryType
}

// Settle pays out beneficiaryID's unpaid balance. requestID is optional; when
// set, a repeat with the same id returns the original outcome as
// AlreadySettled. Without a requestID a repeat finds the entries already paid
// and returns NoBalance; either way only one transfer is made.
func (s *PayoutService) Settle(ctx context.Context, beneficiaryID, requestID string) (*models.PayoutResult, error) {
	if beneficiaryID == "" {
		return nil, fmt.Errorf("%w: beneficiaryId is required", errs.ErrInvalidInput)
	}

	release, err := s.acquireLock(ctx, beneficiaryID)
	if err != nil {
		metrics.PayoutsTotal.WithLabelValues("InProgress").Inc()
		return nil, err
	}
	defer release()

	result, err := s.settle(ctx, beneficiaryID, requestID)
	switch {
	case errors.Is(err, errs.ErrPayoutRail):
		metrics.PayoutsTotal.WithLabelValues("RailError").Inc()
	case err != nil:
		metrics.PayoutsTotal.WithLabelValues("Failed").Inc()
	default:
		metrics.PayoutsTotal.WithLabelValues(string(result.Status)).Inc()
	}
	return result, err
}

func (s *PayoutService) settle(ctx context.Context, beneficiaryID, requestID string) (*models.PayoutResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin payout: %v", errs.ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "payout:"+beneficiaryID); err != nil {
		return nil, fmt.Errorf("%w: payout lock: %v", errs.ErrStoreUnavailable, err)
	}

	if requestID != "" {
		rec, err := payoutRecordBy(ctx, tx, "request_id", requestID)
		if err != nil {
			return nil, fmt.Errorf("%w: payout lookup: %v", errs.ErrStoreUnavailable, err)
		}
		if rec != nil {
			if rec.BeneficiaryID != beneficiaryID {
				return nil, fmt.Errorf("%w: request id %s belongs to another beneficiary", errs.ErrInvalidInput, requestID)
			}
			return alreadySettled(rec), nil
		}
	}

	entries, err := s.lockUnpaid(ctx, tx, beneficiaryID)
	if err != nil {
		return nil, fmt.Errorf("%w: unpaid entries: %v", errs.ErrStoreUnavailable, err)
	}

	var balance int64
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.beneficiaryType == models.BeneficiaryPool {
			return nil, fmt.Errorf("%w: pool balances are distributed by attribution", errs.ErrInvalidInput)
		}
		balance += e.amount
		ids = append(ids, e.id)
	}
	if balance <= 0 {
		return &models.PayoutResult{BeneficiaryID: beneficiaryID, Status: models.PayoutNoBalance, Amount: balance}, nil
	}

	now := s.now()
	key := idempotencyKey(beneficiaryID, now.In(s.config.Location), balance, ids)

	rec, err := payoutRecordBy(ctx, tx, "idempotency_key", key)
	if err != nil {
		return nil, fmt.Errorf("%w: payout lookup: %v", errs.ErrStoreUnavailable, err)
	}
	if rec != nil {
		return alreadySettled(rec), nil
	}

	receipt, err := s.rail.Transfer(ctx, payoutrail.TransferRequest{
		IdempotencyKey: key,
		BeneficiaryID:  beneficiaryID,
		Amount:         balance,
		Currency:       s.config.Currency,
		Reference:      "doorline payout " + now.In(s.config.Location).Format("2006-01-02"),
	})
	if err != nil {
		s.logger.Warn("payout rail failed",
			zap.String("beneficiary_id", beneficiaryID),
			zap.Int64("amount", balance),
			zap.String("idempotency_key", key),
			zap.Error(err),
		)
		s.audit.Error("PAYOUT", beneficiaryID, err)
		return nil, fmt.Errorf("%w: %v", errs.ErrPayoutRail, err)
	}

	settledAt := now.UTC()
	payoutID := uuid.NewString()
	closing := models.LedgerEntry{
		ID:              uuid.NewString(),
		BeneficiaryType: entries[0].beneficiaryType,
		BeneficiaryID:   beneficiaryID,
		TransactionID:   "payout:" + payoutID,
		EntryType:       models.EntryPayout,
		Amount:          -balance,
		CreatedAt:       settledAt,
		PaidAt:          &settledAt,
		PayoutID:        &payoutID,
	}

	if err := s.recordSettlement(ctx, tx, closing, ids, &models.PayoutRecord{
		ID:                 payoutID,
		BeneficiaryID:      beneficiaryID,
		Amount:             balance,
		IdempotencyKey:     key,
		ExternalTransferID: receipt.TransferID,
		SettledAt:          settledAt,
	}, requestID); err != nil {
		// the transfer went out; a retry derives the same key and the rail
		// returns the same transfer id
		s.logger.Error("payout transferred but not recorded",
			zap.String("beneficiary_id", beneficiaryID),
			zap.String("idempotency_key", key),
			zap.String("external_transfer_id", receipt.TransferID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: record payout: %v", errs.ErrStoreUnavailable, err)
	}

	s.logger.Info("payout settled",
		zap.String("beneficiary_id", beneficiaryID),
		zap.Int64("amount", balance),
		zap.Int("entries", len(ids)),
		zap.String("external_transfer_id", receipt.TransferID),
	)
	s.audit.Payout(beneficiaryID, string(models.PayoutSettled), balance, receipt.TransferID, key)

	return &models.PayoutResult{
		BeneficiaryID:      beneficiaryID,
		Status:             models.PayoutSettled,
		Amount:             balance,
		ExternalTransferID: receipt.TransferID,
		IdempotencyKey:     key,
		EntriesSettled:     len(ids),
	}, nil
}

func (s *PayoutService) lockUnpaid(ctx context.Context, tx *sql.Tx, beneficiaryID string) ([]unpaidEntry, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, amount, beneficiary_type
		FROM ledger_entries
		WHERE beneficiary_id = $1 AND paid_at IS NULL
		ORDER BY id
		FOR UPDATE
	`, beneficiaryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []unpaidEntry
	for rows.Next() {
		var e unpaidEntry
		if err := rows.Scan(&e.id, &e.amount, &e.beneficiaryType); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *PayoutService) recordSettlement(ctx context.Context, tx *sql.Tx, closing models.LedgerEntry, ids []string, rec *models.PayoutRecord, requestID string) error {
	if err := insertLedgerEntry(ctx, tx, &closing); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE ledger_entries
		SET paid_at = $1, payout_id = $2
		WHERE id = ANY($3) AND paid_at IS NULL
	`, rec.SettledAt, rec.ID, pq.Array(ids))
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n != int64(len(ids)) {
		return fmt.Errorf("marked %d of %d entries paid", n, len(ids))
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO payout_records (id, beneficiary_id, amount, idempotency_key, request_id, external_transfer_id, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, rec.ID, rec.BeneficiaryID, rec.Amount, rec.IdempotencyKey, nullString(requestID), rec.ExternalTransferID, rec.SettledAt)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Sweep settles every non-pool beneficiary with a positive unpaid balance.
func (s *PayoutService) Sweep(ctx context.Context) ([]models.SweepResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT beneficiary_id
		FROM ledger_entries
		WHERE paid_at IS NULL AND beneficiary_type <> $1
		GROUP BY beneficiary_id
		HAVING SUM(amount) > 0
		ORDER BY beneficiary_id
	`, string(models.BeneficiaryPool))
	if err != nil {
		return nil, fmt.Errorf("%w: sweep candidates: %v", errs.ErrStoreUnavailable, err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("%w: sweep candidates: %v", errs.ErrStoreUnavailable, err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: sweep candidates: %v", errs.ErrStoreUnavailable, err)
	}

	results := make([]models.SweepResult, len(ids))
	pool := worker.NewPool(s.config.SweepWorkers, len(ids))
	for i, id := range ids {
		i, id := i, id
		pool.Submit(func() {
			results[i].BeneficiaryID = id
			res, err := s.Settle(ctx, id, "")
			if err != nil {
				results[i].Error = err.Error()
				return
			}
			results[i].Result = res
		})
	}
	pool.Stop()

	s.logger.Info("payout sweep finished", zap.Int("beneficiaries", len(ids)))
	return results, nil
}

func (s *PayoutService) History(ctx context.Context, beneficiaryID string) ([]models.PayoutRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, beneficiary_id, amount, idempotency_key, request_id, external_transfer_id, settled_at
		FROM payout_records
		WHERE beneficiary_id = $1
		ORDER BY settled_at DESC
	`, beneficiaryID)
	if err != nil {
		return nil, fmt.Errorf("%w: payout history: %v", errs.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	records := []models.PayoutRecord{}
	for rows.Next() {
		rec, err := scanPayoutRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: payout history: %v", errs.ErrStoreUnavailable, err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// acquireLock takes payout:lock:<beneficiary> in Redis. Without Redis the
// advisory lock inside settle still serializes runs.
func (s *PayoutService) acquireLock(ctx context.Context, beneficiaryID string) (func(), error) {
	noop := func() {}
	if s.redis == nil {
		return noop, nil
	}

	key := fmt.Sprintf("payout:lock:%s", beneficiaryID)
	token := s.lockToken()
	ok, err := s.redis.SetNX(ctx, key, token, s.config.LockTTL).Result()
	if err != nil {
		s.logger.Warn("payout lock unavailable, relying on database lock", zap.String("beneficiary_id", beneficiaryID), zap.Error(err))
		return noop, nil
	}
	if !ok {
		return nil, fmt.Errorf("beneficiary %s: %w", beneficiaryID, errs.ErrSettlementInProgress)
	}
	return func() {
		err := releaseLock.Eval(context.Background(), s.redis, []string{key}, token).Err()
		if err != nil && !errors.Is(err, redis.Nil) {
			s.logger.Warn("payout lock release failed", zap.String("beneficiary_id", beneficiaryID), zap.Error(err))
		}
	}, nil
}

const releaseLockSrc = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`

// releaseLock deletes the lock only while it still holds our token, so a run
// whose lock expired cannot free a lock taken since by another run.
var releaseLock = redis.NewScript(releaseLockSrc)

// idempotencyKey binds a transfer to the beneficiary, the settlement day, the
// balance and the exact set of entries it covers.
func idempotencyKey(beneficiaryID string, day time.Time, balance int64, entryIDs []string) string {
	sorted := append([]string(nil), entryIDs...)
	sort.Strings(sorted)

	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%d|%s", beneficiaryID, day.Format("2006-01-02"), balance, strings.Join(sorted, ","))
	return hex.EncodeToString(h.Sum(nil))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayoutRecord(row rowScanner) (*models.PayoutRecord, error) {
	var rec models.PayoutRecord
	var requestID sql.NullString
	if err := row.Scan(&rec.ID, &rec.BeneficiaryID, &rec.Amount, &rec.IdempotencyKey, &requestID,
		&rec.ExternalTransferID, &rec.SettledAt); err != nil {
		return nil, err
	}
	if requestID.Valid {
		rec.RequestID = &requestID.String
	}
	return &rec, nil
}

// payoutRecordBy looks a record up by a unique column; nil when absent.
func payoutRecordBy(ctx context.Context, q querier, column, value string) (*models.PayoutRecord, error) {
	if column != "request_id" && column != "idempotency_key" {
		return nil, fmt.Errorf("unsupported payout lookup column %q", column)
	}
	rec, err := scanPayoutRecord(q.QueryRowContext(ctx, `
		SELECT id, beneficiary_id, amount, idempotency_key, request_id, external_transfer_id, settled_at
		FROM payout_records
		WHERE `+column+` = $1
	`, value))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

func alreadySettled(rec *models.PayoutRecord) *models.PayoutResult {
	return &models.PayoutResult{
		BeneficiaryID:      rec.BeneficiaryID,
		Status:             models.PayoutAlreadySettled,
		Amount:             rec.Amount,
		ExternalTransferID: rec.ExternalTransferID,
		IdempotencyKey:     rec.IdempotencyKey,
	}
}
