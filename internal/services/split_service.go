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
	"github.com/doorline/backend/internal/config"
	"github.com/doorline/backend/internal/errs"
	"github.com/doorline/backend/internal/metrics"
	"github.com/doorline/backend/internal/models"
)

// SplitService applies revenue splits. All entries of one transaction, the
// optional wallet debit and the pool distribution commit together or not at all.
type SplitService struct {
	db         *sql.DB
	profiles   ProfileDirectory
	venues     VenueDirectory
	wallet     *WalletService
	strategies map[models.TransactionType]SplitStrategy
	config     *config.SplitConfig
	logger     *zap.Logger
	audit      *audit.Logger
	now        func() time.Time
}

func NewSplitService(db *sql.DB, profiles ProfileDirectory, venues VenueDirectory, wallet *WalletService, cfg *config.SplitConfig, logger *zap.Logger) *SplitService {
	return &SplitService{
		db:       db,
		profiles: profiles,
		venues:   venues,
		wallet:   wallet,
		strategies: map[models.TransactionType]SplitStrategy{
			models.TxAccessPass: passWaterfall{
				promoterBps: cfg.PromoterCutBps,
				platformBps: cfg.PlatformShareBps,
				platformID:  cfg.PlatformBeneficiary,
				poolID:      cfg.PoolBeneficiary,
			},
			models.TxVenueCharge: venueCommission{},
		},
		config: cfg,
		logger: logger.Named("split"),
		audit:  audit.NewLogger(logger),
		now:    time.Now,
	}
}

func (s *SplitService) Apply(ctx context.Context, req models.SplitRequest) (*models.SplitResult, error) {
	strategy, ok := s.strategies[req.TransactionType]
	if !ok {
		return nil, fmt.Errorf("%w: unknown transaction type %q", errs.ErrInvalidInput, req.TransactionType)
	}
	if req.GrossAmount <= 0 {
		return nil, fmt.Errorf("%w: gross amount must be positive", errs.ErrInvalidInput)
	}

	if req.TransactionID != "" {
		replayed, err := s.replay(ctx, req)
		if err != nil || replayed != nil {
			return replayed, err
		}
	} else {
		req.TransactionID = uuid.NewString()
	}

	// lookups happen before any write so a failed dependency leaves no trace
	in, err := s.allocationInput(ctx, req)
	if err != nil {
		return nil, err
	}
	shares, err := strategy.Allocate(in)
	if err != nil {
		return nil, err
	}
	if total := sumShares(shares); total != req.GrossAmount {
		return nil, fmt.Errorf("split of %d allocated %d", req.GrossAmount, total)
	}

	now := s.now().UTC()
	entries := make([]models.LedgerEntry, 0, len(shares))
	for _, sh := range shares {
		entries = append(entries, models.LedgerEntry{
			ID:              uuid.NewString(),
			BeneficiaryType: sh.BeneficiaryType,
			BeneficiaryID:   sh.BeneficiaryID,
			TransactionID:   req.TransactionID,
			EntryType:       models.EntrySale,
			Amount:          sh.Amount,
			CreatedAt:       now,
		})
	}

	dist, err := s.poolDistribution(req, entries, now)
	if err != nil {
		return nil, err
	}

	if err := s.write(ctx, req, entries, dist); err != nil {
		if isUniqueViolation(err) {
			replayed, rerr := s.replay(ctx, req)
			if rerr != nil || replayed != nil {
				return replayed, rerr
			}
		}
		return nil, err
	}

	metrics.SplitsTotal.WithLabelValues(string(req.TransactionType)).Inc()
	for _, e := range entries {
		metrics.LedgerAmount.WithLabelValues(string(e.BeneficiaryType)).Add(float64(e.Amount))
	}
	s.audit.Split(req.TransactionID, req.SubjectID, string(req.TransactionType), req.GrossAmount, len(entries))

	return &models.SplitResult{TransactionID: req.TransactionID, Entries: entries, Distribution: dist}, nil
}

// replay returns the stored result when req.TransactionID was already applied,
// or nil when it was not. A known id sent with different charge details is an
// ErrIdempotencyConflict and nothing is written.
func (s *SplitService) replay(ctx context.Context, req models.SplitRequest) (*models.SplitResult, error) {
	var (
		stored models.SplitRequest
		txType string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT subject_id, transaction_type, gross_amount, venue_id, promoter_id, funded_by_wallet
		FROM split_transactions
		WHERE transaction_id = $1
	`, req.TransactionID).Scan(&stored.SubjectID, &txType, &stored.GrossAmount, &stored.VenueID, &stored.PromoterID, &stored.FundedByWallet)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: replay lookup: %v", errs.ErrStoreUnavailable, err)
	}
	stored.TransactionType = models.TransactionType(txType)

	if !sameCharge(stored, req) {
		s.logger.Warn("transaction id reused for a different charge",
			zap.String("transaction_id", req.TransactionID),
			zap.String("subject_id", req.SubjectID),
			zap.Int64("gross_amount", req.GrossAmount),
			zap.Int64("stored_gross_amount", stored.GrossAmount),
		)
		return nil, fmt.Errorf("%w: transaction %s was applied with different details", errs.ErrIdempotencyConflict, req.TransactionID)
	}

	entries, err := entriesByTransaction(ctx, s.db, req.TransactionID, models.EntrySale)
	if err != nil {
		return nil, fmt.Errorf("%w: replay lookup: %v", errs.ErrStoreUnavailable, err)
	}
	return &models.SplitResult{TransactionID: req.TransactionID, Entries: entries, Replayed: true}, nil
}

func sameCharge(a, b models.SplitRequest) bool {
	return a.SubjectID == b.SubjectID &&
		a.TransactionType == b.TransactionType &&
		a.GrossAmount == b.GrossAmount &&
		a.VenueID == b.VenueID &&
		a.PromoterID == b.PromoterID &&
		a.FundedByWallet == b.FundedByWallet
}

func (s *SplitService) allocationInput(ctx context.Context, req models.SplitRequest) (AllocationInput, error) {
	in := AllocationInput{Gross: req.GrossAmount, PromoterID: req.PromoterID}

	if in.PromoterID == "" {
		profile, err := s.profiles.GetProfile(ctx, req.SubjectID)
		switch {
		case errors.Is(err, errs.ErrNotFound):
			return in, err
		case err != nil:
			return in, fmt.Errorf("%w: subject %s: %v", errs.ErrUpstreamLookupFailed, req.SubjectID, err)
		}
		if profile.ReferringPromoterID != nil {
			in.PromoterID = *profile.ReferringPromoterID
		}
	}

	if req.TransactionType == models.TxVenueCharge {
		if req.VenueID == "" {
			return in, fmt.Errorf("%w: venueId is required for %s", errs.ErrInvalidInput, req.TransactionType)
		}
		venue, err := s.venues.GetVenue(ctx, req.VenueID)
		switch {
		case errors.Is(err, errs.ErrNotFound):
			return in, err
		case err != nil:
			return in, fmt.Errorf("%w: venue %s: %v", errs.ErrUpstreamLookupFailed, req.VenueID, err)
		}
		in.Venue = venue
	}
	return in, nil
}

// poolDistribution describes the pool share of a pass purchase and the window
// during which venue visits earn part of it.
func (s *SplitService) poolDistribution(req models.SplitRequest, entries []models.LedgerEntry, now time.Time) (*models.PoolDistribution, error) {
	if req.TransactionType != models.TxAccessPass {
		return nil, nil
	}
	var pool *models.LedgerEntry
	for i := range entries {
		if entries[i].BeneficiaryType == models.BeneficiaryPool {
			pool = &entries[i]
		}
	}
	if pool == nil {
		return nil, nil
	}

	from := now
	if req.PassStartsAt != nil {
		from = req.PassStartsAt.UTC()
	}
	until := from.Add(s.config.PassValidity)
	if req.PassEndsAt != nil {
		until = req.PassEndsAt.UTC()
	}
	if !until.After(from) {
		return nil, fmt.Errorf("%w: pass window ends before it starts", errs.ErrInvalidInput)
	}

	return &models.PoolDistribution{
		ID:                uuid.NewString(),
		TransactionID:     req.TransactionID,
		SubjectID:         req.SubjectID,
		PoolBeneficiaryID: pool.BeneficiaryID,
		Amount:            pool.Amount,
		ActiveFrom:        from,
		ActiveUntil:       until,
	}, nil
}

func (s *SplitService) write(ctx context.Context, req models.SplitRequest, entries []models.LedgerEntry, dist *models.PoolDistribution) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin split tx: %v", errs.ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO split_transactions (transaction_id, subject_id, transaction_type, gross_amount, venue_id, promoter_id, funded_by_wallet, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, req.TransactionID, req.SubjectID, string(req.TransactionType), req.GrossAmount, req.VenueID, req.PromoterID, req.FundedByWallet, entries[0].CreatedAt)
	if err != nil {
		return storeErr("insert split transaction", err)
	}

	if req.FundedByWallet {
		if _, err := s.wallet.debitTx(ctx, tx, req.SubjectID, req.GrossAmount, "split:"+req.TransactionID); err != nil {
			return err
		}
	}

	for i := range entries {
		if err := insertLedgerEntry(ctx, tx, &entries[i]); err != nil {
			return storeErr("insert ledger entry", err)
		}
	}

	if dist != nil {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO pool_distributions (id, transaction_id, subject_id, pool_beneficiary_id, amount, active_from, active_until)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, dist.ID, dist.TransactionID, dist.SubjectID, dist.PoolBeneficiaryID, dist.Amount, dist.ActiveFrom, dist.ActiveUntil)
		if err != nil {
			return storeErr("insert pool distribution", err)
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("commit split", zap.String("transaction_id", req.TransactionID), zap.Error(err))
		return storeErr("commit split", err)
	}
	return nil
}

// storeErr wraps both the sentinel and the driver error so callers can still
// detect a unique violation.
func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", errs.ErrStoreUnavailable, op, err)
}
