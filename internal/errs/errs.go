// Package errs holds the sentinel errors shared by services and handlers.
// Services wrap them with context; handlers map them to HTTP status codes.
// Scan outcomes such as an expired or used token are not errors; they are
// reported as a ScanDecision.
package errs

import "errors"

var (
	// ErrNotFound indicates a token, beneficiary, venue or record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientFunds indicates a wallet debit that would go below zero.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrUpstreamLookupFailed indicates profile or venue data could not be read.
	ErrUpstreamLookupFailed = errors.New("upstream lookup failed")

	// ErrPayoutRail indicates the outbound transfer failed or timed out.
	ErrPayoutRail = errors.New("payout rail error")

	// ErrStoreUnavailable indicates a durable read or write did not complete.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrInvalidInput indicates a request that fails business validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSettlementInProgress indicates another settle run holds the beneficiary.
	ErrSettlementInProgress = errors.New("settlement in progress")

	// ErrRateLimited indicates the subject exceeded the token issuance limit.
	ErrRateLimited = errors.New("rate limited")

	// ErrIdempotencyConflict indicates a transaction id reused for a different request.
	ErrIdempotencyConflict = errors.New("idempotency conflict")

	// ErrAlreadyAttributed indicates a pool distribution that was already allocated.
	ErrAlreadyAttributed = errors.New("already attributed")
)
