package handlers

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/doorline/backend/internal/models"
)

type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) Issue(ctx context.Context, subjectID string) (*models.AccessToken, error) {
	args := m.Called(ctx, subjectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AccessToken), args.Error(1)
}

func (m *MockTokenService) Validate(ctx context.Context, req models.ScanRequest) (*models.ScanDecision, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScanDecision), args.Error(1)
}

func (m *MockTokenService) ScanTimeout() time.Duration {
	return time.Second
}

type MockQR struct {
	mock.Mock
}

func (m *MockQR) Render(content string) (string, error) {
	args := m.Called(content)
	return args.String(0), args.Error(1)
}

type MockSplits struct {
	mock.Mock
}

func (m *MockSplits) Apply(ctx context.Context, req models.SplitRequest) (*models.SplitResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SplitResult), args.Error(1)
}

type MockPayouts struct {
	mock.Mock
}

func (m *MockPayouts) Settle(ctx context.Context, beneficiaryID, requestID string) (*models.PayoutResult, error) {
	args := m.Called(ctx, beneficiaryID, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PayoutResult), args.Error(1)
}

func (m *MockPayouts) Sweep(ctx context.Context) ([]models.SweepResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SweepResult), args.Error(1)
}

func (m *MockPayouts) History(ctx context.Context, beneficiaryID string) ([]models.PayoutRecord, error) {
	args := m.Called(ctx, beneficiaryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PayoutRecord), args.Error(1)
}

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) UnpaidBalance(ctx context.Context, beneficiaryID string) (int64, error) {
	args := m.Called(ctx, beneficiaryID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedger) ListEntries(ctx context.Context, beneficiaryID string, limit int) ([]models.LedgerEntry, error) {
	args := m.Called(ctx, beneficiaryID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LedgerEntry), args.Error(1)
}

type MockWallet struct {
	mock.Mock
}

func (m *MockWallet) CurrentBalance(ctx context.Context, subjectID string) (int64, error) {
	args := m.Called(ctx, subjectID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockWallet) Credit(ctx context.Context, subjectID string, amount int64, reference string) (*models.WalletTransaction, error) {
	args := m.Called(ctx, subjectID, amount, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WalletTransaction), args.Error(1)
}

func (m *MockWallet) Debit(ctx context.Context, subjectID string, amount int64, reference string) (*models.WalletTransaction, error) {
	args := m.Called(ctx, subjectID, amount, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WalletTransaction), args.Error(1)
}

func (m *MockWallet) Reverse(ctx context.Context, subjectID, walletTxID, reference string) (*models.WalletTransaction, error) {
	args := m.Called(ctx, subjectID, walletTxID, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WalletTransaction), args.Error(1)
}

func (m *MockWallet) History(ctx context.Context, subjectID string, limit int) ([]models.WalletTransaction, error) {
	args := m.Called(ctx, subjectID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WalletTransaction), args.Error(1)
}

type MockPool struct {
	mock.Mock
}

func (m *MockPool) Attribute(ctx context.Context, distributionID string) (*models.AttributionResult, error) {
	args := m.Called(ctx, distributionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AttributionResult), args.Error(1)
}
