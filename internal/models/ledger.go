package models

import (
	"time"
)

type BeneficiaryType string

const (
	BeneficiaryVenue    BeneficiaryType = "venue"
	BeneficiaryPromoter BeneficiaryType = "promoter"
	BeneficiaryPlatform BeneficiaryType = "platform"
	BeneficiaryPool     BeneficiaryType = "pool"
)

type EntryType string

const (
	EntrySale       EntryType = "sale"
	EntryFee        EntryType = "fee"
	EntryRefund     EntryType = "refund"
	EntryPayout     EntryType = "payout"
	EntryAllocation EntryType = "allocation"
)

// LedgerEntry is an immutable monetary fact. PaidAt is the only field that
// changes, exactly once, when a payout settles the entry.
type LedgerEntry struct {
	ID              string          `json:"id" db:"id"`
	BeneficiaryType BeneficiaryType `json:"beneficiaryType" db:"beneficiary_type"`
	BeneficiaryID   string          `json:"beneficiaryId" db:"beneficiary_id"`
	TransactionID   string          `json:"transactionId" db:"transaction_id"`
	EntryType       EntryType       `json:"entryType" db:"entry_type"`
	Amount          int64           `json:"amount" db:"amount"` // minor units, signed
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
	PaidAt          *time.Time      `json:"paidAt,omitempty" db:"paid_at"`
	PayoutID        *string         `json:"payoutId,omitempty" db:"payout_id"`
}

// PoolDistribution records a pass purchase's pool share and the window during
// which venue visits earn a portion of it.
type PoolDistribution struct {
	ID                string     `json:"id" db:"id"`
	TransactionID     string     `json:"transactionId" db:"transaction_id"`
	SubjectID         string     `json:"subjectId" db:"subject_id"`
	PoolBeneficiaryID string     `json:"poolBeneficiaryId" db:"pool_beneficiary_id"`
	Amount            int64      `json:"amount" db:"amount"`
	ActiveFrom        time.Time  `json:"activeFrom" db:"active_from"`
	ActiveUntil       time.Time  `json:"activeUntil" db:"active_until"`
	AttributedAt      *time.Time `json:"attributedAt,omitempty" db:"attributed_at"`
}

// AttributionResult lists the venue allocations written for one distribution.
type AttributionResult struct {
	DistributionID string        `json:"distributionId"`
	Amount         int64         `json:"amount"`
	Entries        []LedgerEntry `json:"ledgerEntries"`
}

// PayoutRecord links a settlement idempotency key to the rail's transfer id.
type PayoutRecord struct {
	ID                 string    `json:"id" db:"id"`
	BeneficiaryID      string    `json:"beneficiaryId" db:"beneficiary_id"`
	Amount             int64     `json:"amount" db:"amount"`
	IdempotencyKey     string    `json:"idempotencyKey" db:"idempotency_key"`
	RequestID          *string   `json:"requestId,omitempty" db:"request_id"`
	ExternalTransferID string    `json:"externalTransferId" db:"external_transfer_id"`
	SettledAt          time.Time `json:"settledAt" db:"settled_at"`
}

type PayoutStatus string

const (
	PayoutNoBalance      PayoutStatus = "NoBalance"
	PayoutSettled        PayoutStatus = "Settled"
	PayoutAlreadySettled PayoutStatus = "AlreadySettled"
)

// PayoutResult is returned by every settle call.
type PayoutResult struct {
	BeneficiaryID      string       `json:"beneficiaryId"`
	Status             PayoutStatus `json:"status"`
	Amount             int64        `json:"amount"`
	ExternalTransferID string       `json:"externalTransferId,omitempty"`
	IdempotencyKey     string       `json:"idempotencyKey,omitempty"`
	EntriesSettled     int          `json:"entriesSettled,omitempty"`
}

// SweepResult is one beneficiary's outcome in a payout sweep.
type SweepResult struct {
	BeneficiaryID string        `json:"beneficiaryId"`
	Result        *PayoutResult `json:"result,omitempty"`
	Error         string        `json:"error,omitempty"`
}
