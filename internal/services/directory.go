package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doorline/backend/internal/errs"
	"github.com/doorline/backend/internal/models"
)

// ProfileDirectory resolves subject profiles maintained by the onboarding layer.
type ProfileDirectory interface {
	GetProfile(ctx context.Context, subjectID string) (*models.Profile, error)
}

// VenueDirectory resolves venue commission configuration.
type VenueDirectory interface {
	GetVenue(ctx context.Context, venueID string) (*models.Venue, error)
}

// DirectoryService reads profiles and venues from Postgres. Missing rows map
// to errs.ErrNotFound; anything else to errs.ErrUpstreamLookupFailed.
type DirectoryService struct {
	db *sql.DB
}

func NewDirectoryService(db *sql.DB) *DirectoryService {
	return &DirectoryService{db: db}
}

func (d *DirectoryService) GetProfile(ctx context.Context, subjectID string) (*models.Profile, error) {
	var p models.Profile
	var verificationExpires, membershipExpires sql.NullTime
	var promoter sql.NullString

	err := d.db.QueryRowContext(ctx, `
		SELECT subject_id, display_name, status, id_verified,
		       verification_expires_at, membership_expires_at, referring_promoter_id
		FROM profiles
		WHERE subject_id = $1
	`, subjectID).Scan(&p.SubjectID, &p.DisplayName, &p.Status, &p.IDVerified,
		&verificationExpires, &membershipExpires, &promoter)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %s: %w", subjectID, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: profile %s: %v", errs.ErrUpstreamLookupFailed, subjectID, err)
	}

	if verificationExpires.Valid {
		p.VerificationExpiresAt = &verificationExpires.Time
	}
	if membershipExpires.Valid {
		p.MembershipExpiresAt = &membershipExpires.Time
	}
	if promoter.Valid && promoter.String != "" {
		p.ReferringPromoterID = &promoter.String
	}
	return &p, nil
}

func (d *DirectoryService) GetVenue(ctx context.Context, venueID string) (*models.Venue, error) {
	var v models.Venue
	err := d.db.QueryRowContext(ctx, `
		SELECT id, name, promoter_commission_rate
		FROM venues
		WHERE id = $1
	`, venueID).Scan(&v.ID, &v.Name, &v.PromoterCommissionRate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("venue %s: %w", venueID, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: venue %s: %v", errs.ErrUpstreamLookupFailed, venueID, err)
	}
	return &v, nil
}
