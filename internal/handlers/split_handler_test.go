package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/doorline/backend/internal/errs"
	"github.com/doorline/backend/internal/models"
)

func TestSplitHandler_Apply(t *testing.T) {
	req := models.SplitRequest{
		TransactionID:   "txn-1",
		SubjectID:       "sub-1",
		TransactionType: models.TxVenueCharge,
		GrossAmount:     5000,
		VenueID:         "venue-1",
	}
	body, _ := json.Marshal(req)

	entries := []models.LedgerEntry{
		{BeneficiaryID: "promoter-1", BeneficiaryType: models.BeneficiaryPromoter, Amount: 750},
		{BeneficiaryID: "venue-1", BeneficiaryType: models.BeneficiaryVenue, Amount: 4250},
	}

	tests := []struct {
		name   string
		result *models.SplitResult
		err    error
		status int
	}{
		{"written", &models.SplitResult{TransactionID: "txn-1", Entries: entries}, nil, http.StatusCreated},
		{"replayed", &models.SplitResult{TransactionID: "txn-1", Entries: entries, Replayed: true}, nil, http.StatusOK},
		{"venue not found", nil, fmt.Errorf("venue venue-1: %w", errs.ErrNotFound), http.StatusNotFound},
		{"id reused for another charge", nil, fmt.Errorf("%w: transaction txn-1", errs.ErrIdempotencyConflict), http.StatusConflict},
		{"wallet short", nil, fmt.Errorf("debit: %w", errs.ErrInsufficientFunds), http.StatusPaymentRequired},
		{"lookup failed", nil, fmt.Errorf("%w: venue directory", errs.ErrUpstreamLookupFailed), http.StatusBadGateway},
		{"store down", nil, fmt.Errorf("%w: insert", errs.ErrStoreUnavailable), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockSplits)
			svc.On("Apply", mock.Anything, req).Return(tt.result, tt.err)
			h := NewSplitHandler(svc)

			w := httptest.NewRecorder()
			h.Apply(w, httptest.NewRequest(http.MethodPost, "/splits", bytes.NewBuffer(body)))

			assert.Equal(t, tt.status, w.Code)
			if tt.result != nil {
				var got models.SplitResult
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
				assert.Len(t, got.Entries, 2)
				assert.Equal(t, tt.result.Replayed, got.Replayed)
			}
			svc.AssertExpectations(t)
		})
	}

	t.Run("venue charge without venue", func(t *testing.T) {
		svc := new(MockSplits)
		h := NewSplitHandler(svc)

		w := httptest.NewRecorder()
		h.Apply(w, httptest.NewRequest(http.MethodPost, "/splits",
			bytes.NewBufferString(`{"subjectId":"sub-1","transactionType":"VENUE_CHARGE","grossAmount":100}`)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
	})

	t.Run("non-positive gross", func(t *testing.T) {
		h := NewSplitHandler(new(MockSplits))

		w := httptest.NewRecorder()
		h.Apply(w, httptest.NewRequest(http.MethodPost, "/splits",
			bytes.NewBufferString(`{"subjectId":"sub-1","transactionType":"ACCESS_PASS","grossAmount":0}`)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown transaction type", func(t *testing.T) {
		h := NewSplitHandler(new(MockSplits))

		w := httptest.NewRecorder()
		h.Apply(w, httptest.NewRequest(http.MethodPost, "/splits",
			bytes.NewBufferString(`{"subjectId":"sub-1","transactionType":"REFUND","grossAmount":10}`)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("two objects", func(t *testing.T) {
		h := NewSplitHandler(new(MockSplits))

		w := httptest.NewRecorder()
		h.Apply(w, httptest.NewRequest(http.MethodPost, "/splits", bytes.NewBufferString(string(body)+string(body))))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "single JSON object")
	})
}
