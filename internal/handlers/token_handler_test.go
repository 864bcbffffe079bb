package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/doorline/backend/internal/errs"
	"github.com/doorline/backend/internal/middleware"
	"github.com/doorline/backend/internal/models"
)

func asRole(r *http.Request, subject string, role middleware.Role) *http.Request {
	return r.WithContext(middleware.WithIdentity(r.Context(), subject, role))
}

func TestTokenHandler_Issue(t *testing.T) {
	expires := time.Date(2026, 3, 1, 22, 1, 0, 0, time.UTC)
	token := &models.AccessToken{ID: "tok-1", SubjectID: "sub-1", Secret: "s3cret", ExpiresAt: expires}

	t.Run("member issues for self", func(t *testing.T) {
		svc := new(MockTokenService)
		svc.On("Issue", mock.Anything, "sub-1").Return(token, nil)
		h := NewTokenHandler(svc, new(MockQR), zap.NewNop())

		r := asRole(httptest.NewRequest(http.MethodPost, "/tokens", bytes.NewBufferString(`{}`)), "sub-1", middleware.RoleMember)
		w := httptest.NewRecorder()
		h.Issue(w, r)

		require.Equal(t, http.StatusCreated, w.Code)
		var resp IssueTokenResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "tok-1", resp.TokenID)
		assert.Equal(t, "s3cret", resp.Token)
		assert.True(t, expires.Equal(resp.ExpiresAt))
		assert.Empty(t, resp.QRImage)
		svc.AssertExpectations(t)
	})

	t.Run("member cannot issue for another subject", func(t *testing.T) {
		svc := new(MockTokenService)
		h := NewTokenHandler(svc, new(MockQR), zap.NewNop())

		r := asRole(httptest.NewRequest(http.MethodPost, "/tokens", bytes.NewBufferString(`{"subjectId":"sub-2"}`)), "sub-1", middleware.RoleMember)
		w := httptest.NewRecorder()
		h.Issue(w, r)

		assert.Equal(t, http.StatusForbidden, w.Code)
		svc.AssertNotCalled(t, "Issue", mock.Anything, mock.Anything)
	})

	t.Run("operator must name subject", func(t *testing.T) {
		h := NewTokenHandler(new(MockTokenService), new(MockQR), zap.NewNop())

		r := asRole(httptest.NewRequest(http.MethodPost, "/tokens", bytes.NewBufferString(`{}`)), "ops", middleware.RoleOperator)
		w := httptest.NewRecorder()
		h.Issue(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("qr format", func(t *testing.T) {
		svc := new(MockTokenService)
		svc.On("Issue", mock.Anything, "sub-1").Return(token, nil)
		qr := new(MockQR)
		qr.On("Render", "s3cret").Return("iVBORw0KGgo=", nil)
		h := NewTokenHandler(svc, qr, zap.NewNop())

		r := asRole(httptest.NewRequest(http.MethodPost, "/tokens?format=qr", bytes.NewBufferString(`{"subjectId":"sub-1"}`)), "ops", middleware.RoleOperator)
		w := httptest.NewRecorder()
		h.Issue(w, r)

		require.Equal(t, http.StatusCreated, w.Code)
		var resp IssueTokenResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "iVBORw0KGgo=", resp.QRImage)
		qr.AssertExpectations(t)
	})

	t.Run("rate limited", func(t *testing.T) {
		svc := new(MockTokenService)
		svc.On("Issue", mock.Anything, "sub-1").Return(nil, errs.ErrRateLimited)
		h := NewTokenHandler(svc, new(MockQR), zap.NewNop())

		r := asRole(httptest.NewRequest(http.MethodPost, "/tokens", bytes.NewBufferString(`{}`)), "sub-1", middleware.RoleMember)
		w := httptest.NewRecorder()
		h.Issue(w, r)

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		h := NewTokenHandler(new(MockTokenService), new(MockQR), zap.NewNop())

		r := asRole(httptest.NewRequest(http.MethodPost, "/tokens", bytes.NewBufferString(`{"subject":"x"}`)), "sub-1", middleware.RoleMember)
		w := httptest.NewRecorder()
		h.Issue(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTokenHandler_Validate(t *testing.T) {
	scan := models.ScanRequest{Token: "s3cret", VenueID: "venue-1", DeviceID: "door-1"}
	body, _ := json.Marshal(scan)

	tests := []struct {
		name     string
		decision *models.ScanDecision
		err      error
		status   int
	}{
		{"verified", &models.ScanDecision{Status: models.ScanVerified, Decision: models.OutcomeGood}, nil, http.StatusOK},
		{"verified needs review", &models.ScanDecision{Status: models.ScanVerified, Decision: models.OutcomeReview}, nil, http.StatusOK},
		{"invalid", &models.ScanDecision{Status: models.ScanInvalid, Decision: models.OutcomeNo}, nil, http.StatusNotFound},
		{"expired", &models.ScanDecision{Status: models.ScanExpired, Decision: models.OutcomeNo}, nil, http.StatusGone},
		{"used", &models.ScanDecision{Status: models.ScanUsed, Decision: models.OutcomeNo}, nil, http.StatusConflict},
		{"denied", &models.ScanDecision{Status: models.ScanDenied, Decision: models.OutcomeNo}, nil, http.StatusForbidden},
		{"store failure", &models.ScanDecision{Status: models.ScanInvalid, Decision: models.OutcomeNo, Reason: "timeout"}, errs.ErrStoreUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockTokenService)
			svc.On("Validate", mock.Anything, scan).Return(tt.decision, tt.err)
			h := NewTokenHandler(svc, new(MockQR), zap.NewNop())

			r := asRole(httptest.NewRequest(http.MethodPost, "/tokens/validate", bytes.NewBuffer(body)), "door-1", middleware.RoleDevice)
			w := httptest.NewRecorder()
			h.Validate(w, r)

			assert.Equal(t, tt.status, w.Code)
			var got models.ScanDecision
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, tt.decision.Status, got.Status)
			assert.Equal(t, tt.decision.Decision, got.Decision)
		})
	}

	t.Run("validation deadline is set", func(t *testing.T) {
		svc := new(MockTokenService)
		svc.On("Validate", mock.MatchedBy(func(ctx context.Context) bool {
			_, ok := ctx.Deadline()
			return ok
		}), scan).Return(&models.ScanDecision{Status: models.ScanVerified, Decision: models.OutcomeGood}, nil)
		h := NewTokenHandler(svc, new(MockQR), zap.NewNop())

		w := httptest.NewRecorder()
		h.Validate(w, httptest.NewRequest(http.MethodPost, "/tokens/validate", bytes.NewBuffer(body)))

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("missing venue", func(t *testing.T) {
		h := NewTokenHandler(new(MockTokenService), new(MockQR), zap.NewNop())

		w := httptest.NewRecorder()
		h.Validate(w, httptest.NewRequest(http.MethodPost, "/tokens/validate", bytes.NewBufferString(`{"token":"x","deviceId":"d"}`)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("no decision", func(t *testing.T) {
		svc := new(MockTokenService)
		svc.On("Validate", mock.Anything, scan).Return(nil, errors.New("boom"))
		h := NewTokenHandler(svc, new(MockQR), zap.NewNop())

		w := httptest.NewRecorder()
		h.Validate(w, httptest.NewRequest(http.MethodPost, "/tokens/validate", bytes.NewBuffer(body)))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
