package models

import (
	"time"
)

// TransactionType selects the split strategy applied to a gross amount.
type TransactionType string

const (
	// TxAccessPass is a pass purchase: promoter carve, then platform/pool waterfall.
	TxAccessPass TransactionType = "ACCESS_PASS"
	// TxVenueCharge is a point-of-sale charge at a venue with a promoter commission rate.
	TxVenueCharge TransactionType = "VENUE_CHARGE"
)

// SplitRequest is the input of one apply-split call.
type SplitRequest struct {
	TransactionID   string          `json:"transactionId,omitempty" validate:"omitempty,max=64"`
	SubjectID       string          `json:"subjectId" validate:"required,max=64"`
	TransactionType TransactionType `json:"transactionType" validate:"required,oneof=ACCESS_PASS VENUE_CHARGE"`
	GrossAmount     int64           `json:"grossAmount" validate:"required,gt=0,max=100000000000"`
	VenueID         string          `json:"venueId,omitempty" validate:"required_if=TransactionType VENUE_CHARGE,max=64"`
	PromoterID      string          `json:"promoterId,omitempty" validate:"omitempty,max=64"`
	FundedByWallet  bool            `json:"fundedByWallet,omitempty"`
	PassStartsAt    *time.Time      `json:"passStartsAt,omitempty"`
	PassEndsAt      *time.Time      `json:"passEndsAt,omitempty"`
}

// SplitResult is the set of ledger entries written (or replayed) for one transaction.
type SplitResult struct {
	TransactionID string            `json:"transactionId"`
	Entries       []LedgerEntry     `json:"ledgerEntries"`
	Distribution  *PoolDistribution `json:"poolDistribution,omitempty"`
	Replayed      bool              `json:"replayed"`
}
