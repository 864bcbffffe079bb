// Package audit emits structured audit events for money and access decisions.
package audit

import (
	"time"

	"go.uber.org/zap"
)

type Event struct {
	Type          string
	TransactionID string
	SubjectID     string
	Amount        int64
	Status        string
	Fields        []zap.Field
}

type Logger struct {
	log *zap.Logger
	now func() time.Time
}

func NewLogger(log *zap.Logger) *Logger {
	return &Logger{log: log.Named("audit"), now: time.Now}
}

func (a *Logger) Record(e Event) {
	fields := append([]zap.Field{
		zap.Time("at", a.now().UTC()),
		zap.String("event_type", e.Type),
		zap.String("status", e.Status),
	}, e.Fields...)
	if e.TransactionID != "" {
		fields = append(fields, zap.String("transaction_id", e.TransactionID))
	}
	if e.SubjectID != "" {
		fields = append(fields, zap.String("subject_id", e.SubjectID))
	}
	if e.Amount != 0 {
		fields = append(fields, zap.Int64("amount", e.Amount))
	}
	a.log.Info("audit", fields...)
}

// Scan records a door decision. Token secrets never reach this logger.
func (a *Logger) Scan(tokenID, subjectID, venueID, deviceID, status, decision, reason string) {
	a.Record(Event{
		Type:      "SCAN",
		SubjectID: subjectID,
		Status:    status,
		Fields: []zap.Field{
			zap.String("token_id", tokenID),
			zap.String("venue_id", venueID),
			zap.String("device_id", deviceID),
			zap.String("decision", decision),
			zap.String("reason", reason),
		},
	})
}

func (a *Logger) Split(transactionID, subjectID, txType string, gross int64, entries int) {
	a.Record(Event{
		Type:          "SPLIT",
		TransactionID: transactionID,
		SubjectID:     subjectID,
		Amount:        gross,
		Status:        "SUCCESS",
		Fields:        []zap.Field{zap.String("transaction_type", txType), zap.Int("entries", entries)},
	})
}

func (a *Logger) Payout(beneficiaryID, status string, amount int64, transferID, idempotencyKey string) {
	a.Record(Event{
		Type:   "PAYOUT",
		Amount: amount,
		Status: status,
		Fields: []zap.Field{
			zap.String("beneficiary_id", beneficiaryID),
			zap.String("external_transfer_id", transferID),
			zap.String("idempotency_key", idempotencyKey),
		},
	})
}

func (a *Logger) Wallet(subjectID, txType string, amount, balanceAfter int64) {
	a.Record(Event{
		Type:      "WALLET",
		SubjectID: subjectID,
		Amount:    amount,
		Status:    "SUCCESS",
		Fields:    []zap.Field{zap.String("wallet_tx_type", txType), zap.Int64("balance_after", balanceAfter)},
	})
}

func (a *Logger) Error(operation, ref string, err error) {
	a.Record(Event{
		Type:   operation,
		Status: "FAILED",
		Fields: []zap.Field{zap.String("ref", ref), zap.Error(err)},
	})
}
