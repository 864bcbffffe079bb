package models

import (
	"time"
)

type WalletTxType string

const (
	WalletRefill   WalletTxType = "refill"
	WalletCharge   WalletTxType = "charge"
	WalletReversal WalletTxType = "reversal"
)

// WalletTransaction is one row of a subject's append-only wallet log.
// BalanceAfter of row n equals BalanceAfter of row n-1 plus Amount of row n.
type WalletTransaction struct {
	ID           string       `json:"id" db:"id"`
	SubjectID    string       `json:"subjectId" db:"subject_id"`
	Seq          int64        `json:"seq" db:"seq"`
	Type         WalletTxType `json:"type" db:"type"`
	Amount       int64        `json:"amount" db:"amount"` // signed, minor units
	BalanceAfter int64        `json:"balanceAfter" db:"balance_after"`
	Reference    string       `json:"reference,omitempty" db:"reference"`
	ReversesID   *string      `json:"reversesId,omitempty" db:"reverses_id"`
	CreatedAt    time.Time    `json:"createdAt" db:"created_at"`
}
