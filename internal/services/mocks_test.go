package services

import (
	"context"

	"github.com/lib/pq"
	"github.com/stretchr/testify/mock"

	"github.com/doorline/backend/internal/models"
	"github.com/doorline/backend/internal/payoutrail"
)

type MockProfiles struct {
	mock.Mock
}

func (m *MockProfiles) GetProfile(ctx context.Context, subjectID string) (*models.Profile, error) {
	args := m.Called(ctx, subjectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

type MockVenues struct {
	mock.Mock
}

func (m *MockVenues) GetVenue(ctx context.Context, venueID string) (*models.Venue, error) {
	args := m.Called(ctx, venueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Venue), args.Error(1)
}

type MockRail struct {
	mock.Mock
}

func (m *MockRail) Transfer(ctx context.Context, req payoutrail.TransferRequest) (*payoutrail.TransferReceipt, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payoutrail.TransferReceipt), args.Error(1)
}

func strPtr(s string) *string { return &s }

func uniqueViolation() error {
	return &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"}
}
