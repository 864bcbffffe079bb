package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ProfileActive    = "active"
	ProfileSuspended = "suspended"
)

// Profile is the member record maintained by the onboarding layer.
type Profile struct {
	SubjectID             string     `json:"subjectId" db:"subject_id"`
	DisplayName           string     `json:"displayName" db:"display_name"`
	Status                string     `json:"status" db:"status"`
	IDVerified            bool       `json:"idVerified" db:"id_verified"`
	VerificationExpiresAt *time.Time `json:"verificationExpiresAt,omitempty" db:"verification_expires_at"`
	MembershipExpiresAt   *time.Time `json:"membershipExpiresAt,omitempty" db:"membership_expires_at"`
	ReferringPromoterID   *string    `json:"referringPromoterId,omitempty" db:"referring_promoter_id"`
}

func (p *Profile) Summary() *SubjectSummary {
	return &SubjectSummary{
		SubjectID:           p.SubjectID,
		DisplayName:         p.DisplayName,
		IDVerified:          p.IDVerified,
		MembershipExpiresAt: p.MembershipExpiresAt,
	}
}

// Venue carries the commission configuration used by point-of-sale splits.
// PromoterCommissionRate is a fraction in [0, 1].
type Venue struct {
	ID                     string          `json:"id" db:"id"`
	Name                   string          `json:"name" db:"name"`
	PromoterCommissionRate decimal.Decimal `json:"promoterCommissionRate" db:"promoter_commission_rate"`
}
