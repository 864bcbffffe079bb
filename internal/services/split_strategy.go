package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/doorline/backend/internal/errs"
	"github.com/doorline/backend/internal/models"
)

const basisPoints = 10000

// Share is one beneficiary's cut of a gross amount, in minor units.
type Share struct {
	BeneficiaryType models.BeneficiaryType
	BeneficiaryID   string
	Amount          int64
}

type AllocationInput struct {
	Gross      int64
	PromoterID string // empty when the subject has no referring promoter
	Venue      *models.Venue
}

// SplitStrategy allocates a gross amount. Implementations must return shares
// that sum to exactly Gross.
type SplitStrategy interface {
	Allocate(in AllocationInput) ([]Share, error)
}

// passWaterfall carves the promoter cut off the top, then splits the net
// between the platform and the venue pool. The pool takes the rounding remainder.
type passWaterfall struct {
	promoterBps int64
	platformBps int64
	platformID  string
	poolID      string
}

func (p passWaterfall) Allocate(in AllocationInput) ([]Share, error) {
	net := in.Gross
	var shares []Share

	if in.PromoterID != "" {
		cut := in.Gross * p.promoterBps / basisPoints
		if cut > 0 {
			shares = append(shares, Share{models.BeneficiaryPromoter, in.PromoterID, cut})
			net -= cut
		}
	}

	platform := net * p.platformBps / basisPoints
	pool := net - platform
	if platform > 0 {
		shares = append(shares, Share{models.BeneficiaryPlatform, p.platformID, platform})
	}
	if pool > 0 {
		shares = append(shares, Share{models.BeneficiaryPool, p.poolID, pool})
	}
	return shares, nil
}

// venueCommission pays the promoter floor(gross × rate) and the venue the rest.
type venueCommission struct{}

var one = decimal.NewFromInt(1)

func (venueCommission) Allocate(in AllocationInput) ([]Share, error) {
	if in.Venue == nil {
		return nil, fmt.Errorf("%w: venue is required", errs.ErrInvalidInput)
	}
	rate := in.Venue.PromoterCommissionRate
	if rate.IsNegative() || rate.GreaterThan(one) {
		return nil, fmt.Errorf("%w: venue %s commission rate %s out of range", errs.ErrUpstreamLookupFailed, in.Venue.ID, rate)
	}

	venue := in.Gross
	var shares []Share
	if in.PromoterID != "" && rate.IsPositive() {
		cut := decimal.NewFromInt(in.Gross).Mul(rate).Floor().IntPart()
		if cut > 0 {
			shares = append(shares, Share{models.BeneficiaryPromoter, in.PromoterID, cut})
			venue -= cut
		}
	}
	if venue > 0 {
		shares = append(shares, Share{models.BeneficiaryVenue, in.Venue.ID, venue})
	}
	return shares, nil
}

func sumShares(shares []Share) int64 {
	var total int64
	for _, s := range shares {
		total += s.Amount
	}
	return total
}
