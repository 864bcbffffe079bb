package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/doorline/backend/internal/errs"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{errs.ErrInvalidInput, http.StatusBadRequest},
		{errs.ErrInsufficientFunds, http.StatusPaymentRequired},
		{errs.ErrNotFound, http.StatusNotFound},
		{errs.ErrSettlementInProgress, http.StatusConflict},
		{errs.ErrAlreadyAttributed, http.StatusConflict},
		{errs.ErrIdempotencyConflict, http.StatusConflict},
		{errs.ErrRateLimited, http.StatusTooManyRequests},
		{errs.ErrUpstreamLookupFailed, http.StatusBadGateway},
		{errs.ErrPayoutRail, http.StatusBadGateway},
		{errs.ErrStoreUnavailable, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.status, statusFor(fmt.Errorf("op: %w", tt.err)))
		})
	}
}

func TestSendServiceError_HidesInternalErrors(t *testing.T) {
	w := httptest.NewRecorder()
	sendServiceError(w, errors.New("pq: relation does not exist"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "relation")
}

func TestQueryLimit(t *testing.T) {
	n, err := queryLimit(httptest.NewRequest(http.MethodGet, "/?limit=50", nil))
	assert.NoError(t, err)
	assert.Equal(t, 50, n)

	n, err = queryLimit(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NoError(t, err)
	assert.Zero(t, n)

	_, err = queryLimit(httptest.NewRequest(http.MethodGet, "/?limit=-1", nil))
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}
