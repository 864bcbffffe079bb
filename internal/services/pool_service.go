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
	"github.com/doorline/backend/internal/models"
)

// PoolService attributes a closed pass's pool share to the venues the
// subject visited during the pass window.
type PoolService struct {
	db     *sql.DB
	logger *zap.Logger
	audit  *audit.Logger
	now    func() time.Time
}

func NewPoolService(db *sql.DB, logger *zap.Logger) *PoolService {
	return &PoolService{
		db:     db,
		logger: logger.Named("pool"),
		audit:  audit.NewLogger(logger),
		now:    time.Now,
	}
}

// Attribute moves the pool amount to venues in proportion to VERIFIED scans
// inside [activeFrom, activeUntil). With no scans the distribution is closed
// without entries.
func (s *PoolService) Attribute(ctx context.Context, distributionID string) (*models.AttributionResult, error) {
	now := s.now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin attribution: %v", errs.ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	var d models.PoolDistribution
	var attributedAt sql.NullTime
	err = tx.QueryRowContext(ctx, `
		SELECT id, transaction_id, subject_id, pool_beneficiary_id, amount, active_from, active_until, attributed_at
		FROM pool_distributions
		WHERE id = $1
		FOR UPDATE
	`, distributionID).Scan(&d.ID, &d.TransactionID, &d.SubjectID, &d.PoolBeneficiaryID, &d.Amount,
		&d.ActiveFrom, &d.ActiveUntil, &attributedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("pool distribution %s: %w", distributionID, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load pool distribution: %v", errs.ErrStoreUnavailable, err)
	}
	if attributedAt.Valid {
		return nil, fmt.Errorf("pool distribution %s: %w", distributionID, errs.ErrAlreadyAttributed)
	}
	if now.Before(d.ActiveUntil) {
		return nil, fmt.Errorf("%w: pass window open until %s", errs.ErrInvalidInput, d.ActiveUntil.Format(time.RFC3339))
	}

	venues, visits, err := s.visitsByVenue(ctx, tx, d)
	if err != nil {
		return nil, fmt.Errorf("%w: count visits: %v", errs.ErrStoreUnavailable, err)
	}

	result := &models.AttributionResult{DistributionID: d.ID, Entries: []models.LedgerEntry{}}
	if len(venues) > 0 {
		parts := largestRemainder(d.Amount, visits)
		result.Entries = append(result.Entries, models.LedgerEntry{
			ID:              uuid.NewString(),
			BeneficiaryType: models.BeneficiaryPool,
			BeneficiaryID:   d.PoolBeneficiaryID,
			TransactionID:   d.TransactionID,
			EntryType:       models.EntryAllocation,
			Amount:          -d.Amount,
			CreatedAt:       now,
		})
		for i, venueID := range venues {
			if parts[i] == 0 {
				continue
			}
			result.Entries = append(result.Entries, models.LedgerEntry{
				ID:              uuid.NewString(),
				BeneficiaryType: models.BeneficiaryVenue,
				BeneficiaryID:   venueID,
				TransactionID:   d.TransactionID,
				EntryType:       models.EntryAllocation,
				Amount:          parts[i],
				CreatedAt:       now,
			})
		}
		result.Amount = d.Amount
	}

	for i := range result.Entries {
		if err := insertLedgerEntry(ctx, tx, &result.Entries[i]); err != nil {
			return nil, fmt.Errorf("%w: insert allocation: %v", errs.ErrStoreUnavailable, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE pool_distributions
		SET attributed_at = $1
		WHERE id = $2
	`, now, d.ID); err != nil {
		return nil, fmt.Errorf("%w: mark attributed: %v", errs.ErrStoreUnavailable, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit attribution: %v", errs.ErrStoreUnavailable, err)
	}

	s.logger.Info("pool attributed",
		zap.String("distribution_id", d.ID),
		zap.Int("venues", len(venues)),
		zap.Int64("amount", result.Amount),
	)
	s.audit.Record(audit.Event{
		Type:          "POOL_ATTRIBUTION",
		TransactionID: d.TransactionID,
		SubjectID:     d.SubjectID,
		Amount:        result.Amount,
		Status:        "SUCCESS",
	})
	return result, nil
}

// DueDistributions lists unattributed distributions whose window has closed.
func (s *PoolService) DueDistributions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id
		FROM pool_distributions
		WHERE attributed_at IS NULL AND active_until <= $1
		ORDER BY active_until
	`, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("%w: due distributions: %v", errs.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: due distributions: %v", errs.ErrStoreUnavailable, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *PoolService) visitsByVenue(ctx context.Context, tx *sql.Tx, d models.PoolDistribution) ([]string, []int64, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT venue_id, COUNT(*)
		FROM scan_logs
		WHERE subject_id = $1 AND status = $2 AND created_at >= $3 AND created_at < $4
		GROUP BY venue_id
		ORDER BY venue_id
	`, d.SubjectID, string(models.ScanVerified), d.ActiveFrom, d.ActiveUntil)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var venues []string
	var counts []int64
	for rows.Next() {
		var venueID string
		var n int64
		if err := rows.Scan(&venueID, &n); err != nil {
			return nil, nil, err
		}
		venues = append(venues, venueID)
		counts = append(counts, n)
	}
	return venues, counts, rows.Err()
}
