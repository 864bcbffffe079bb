package payoutrail

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// SandboxRail accepts every transfer and remembers receipts by idempotency key.
type SandboxRail struct {
	mu       sync.Mutex
	receipts map[string]*TransferReceipt
	calls    int
}

func NewSandboxRail() *SandboxRail {
	return &SandboxRail{receipts: make(map[string]*TransferReceipt)}
}

func (s *SandboxRail) Transfer(ctx context.Context, req TransferRequest) (*TransferReceipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransferUnavailable, err)
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrTransferRejected)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.receipts[req.IdempotencyKey]; ok {
		return r, nil
	}
	s.calls++
	r := &TransferReceipt{
		TransferID: "sbx_" + req.IdempotencyKey,
		Status:     "ACSC",
		AcceptedAt: time.Now().UTC(),
	}
	s.receipts[req.IdempotencyKey] = r
	return r, nil
}

// Transfers reports how many distinct transfers were executed.
func (s *SandboxRail) Transfers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
