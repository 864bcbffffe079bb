package models

import (
	"time"
)

// AccessToken is a short-lived, single-use entry credential bound to a subject.
// Secret is only populated on the issuing call; the store keeps SecretHash.
type AccessToken struct {
	ID         string     `json:"id" db:"id"`
	SubjectID  string     `json:"subjectId" db:"subject_id"`
	Secret     string     `json:"-" db:"-"`
	SecretHash string     `json:"-" db:"secret_hash"`
	IssuedAt   time.Time  `json:"issuedAt" db:"issued_at"`
	ExpiresAt  time.Time  `json:"expiresAt" db:"expires_at"`
	UsedAt     *time.Time `json:"usedAt,omitempty" db:"used_at"`
}

type ScanStatus string

const (
	ScanVerified ScanStatus = "VERIFIED"
	ScanExpired  ScanStatus = "EXPIRED"
	ScanUsed     ScanStatus = "USED"
	ScanInvalid  ScanStatus = "INVALID"
	ScanDenied   ScanStatus = "DENIED"
)

type ScanOutcome string

const (
	OutcomeGood   ScanOutcome = "GOOD"
	OutcomeReview ScanOutcome = "REVIEW"
	OutcomeNo     ScanOutcome = "NO"
)

// SubjectSummary is the slice of the profile shown to door staff.
type SubjectSummary struct {
	SubjectID           string     `json:"subjectId"`
	DisplayName         string     `json:"displayName,omitempty"`
	IDVerified          bool       `json:"idVerified"`
	MembershipExpiresAt *time.Time `json:"membershipExpiresAt,omitempty"`
}

// ScanDecision is the result of one validation call.
type ScanDecision struct {
	Status    ScanStatus      `json:"status"`
	Decision  ScanOutcome     `json:"decision"`
	Reason    string          `json:"reason,omitempty"`
	TokenID   string          `json:"-"`
	Subject   *SubjectSummary `json:"subjectSummary,omitempty"`
	ExpiresAt *time.Time      `json:"expiresAt,omitempty"`
	DecidedAt time.Time       `json:"decidedAt"`
}

// ScanRequest is what a door device presents.
type ScanRequest struct {
	Token    string `json:"token" validate:"required,max=256"`
	VenueID  string `json:"venueId" validate:"required,max=64"`
	DeviceID string `json:"deviceId" validate:"required,max=64"`
}

// ScanLog is one append-only audit row per validation call.
type ScanLog struct {
	ID        string      `json:"id" db:"id"`
	TokenID   *string     `json:"tokenId,omitempty" db:"token_id"`
	SubjectID *string     `json:"subjectId,omitempty" db:"subject_id"`
	VenueID   string      `json:"venueId" db:"venue_id"`
	DeviceID  string      `json:"deviceId" db:"device_id"`
	Status    ScanStatus  `json:"status" db:"status"`
	Decision  ScanOutcome `json:"decision" db:"decision"`
	Reason    string      `json:"reason" db:"reason"`
	CreatedAt time.Time   `json:"createdAt" db:"created_at"`
}
