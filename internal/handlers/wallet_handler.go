package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/doorline/backend/internal/middleware"
	"github.com/doorline/backend/internal/models"
	"github.com/doorline/backend/internal/services"
)

type WalletService interface {
	CurrentBalance(ctx context.Context, subjectID string) (int64, error)
	Credit(ctx context.Context, subjectID string, amount int64, reference string) (*models.WalletTransaction, error)
	Debit(ctx context.Context, subjectID string, amount int64, reference string) (*models.WalletTransaction, error)
	Reverse(ctx context.Context, subjectID, walletTxID, reference string) (*models.WalletTransaction, error)
	History(ctx context.Context, subjectID string, limit int) ([]models.WalletTransaction, error)
}

type WalletHandler struct {
	service   WalletService
	validator *services.ValidationHelper
}

func NewWalletHandler(service WalletService) *WalletHandler {
	return &WalletHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

type WalletAmountRequest struct {
	Amount    int64  `json:"amount" validate:"required,gt=0,max=100000000000"`
	Reference string `json:"reference,omitempty" validate:"omitempty,max=128"`
}

type ReverseRequest struct {
	Reference string `json:"reference,omitempty" validate:"omitempty,max=128"`
}

type WalletBalanceResponse struct {
	SubjectID string `json:"subjectId"`
	Balance   int64  `json:"balance"`
}

// subjectParam returns the path subject, refusing members acting on another wallet.
func subjectParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	subjectID := chi.URLParam(r, "subjectId")
	if role, _ := middleware.RoleFrom(r.Context()); role == middleware.RoleMember {
		if self, _ := middleware.SubjectFrom(r.Context()); self != subjectID {
			services.SendErrorResponse(w, "Forbidden", http.StatusForbidden, nil)
			return "", false
		}
	}
	return subjectID, true
}

// Balance returns the current wallet balance
// @Summary Wallet balance
// @Tags Wallets
// @Produce json
// @Security BearerAuth
// @Param subjectId path string true "Subject ID"
// @Success 200 {object} WalletBalanceResponse
// @Failure 403 {object} services.ErrorResponse
// @Failure 503 {object} services.ErrorResponse
// @Router /wallets/{subjectId} [get]
func (h *WalletHandler) Balance(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := subjectParam(w, r)
	if !ok {
		return
	}
	balance, err := h.service.CurrentBalance(r.Context(), subjectID)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, WalletBalanceResponse{SubjectID: subjectID, Balance: balance})
}

// Transactions lists wallet transactions, newest first
// @Summary Wallet transactions
// @Tags Wallets
// @Produce json
// @Security BearerAuth
// @Param subjectId path string true "Subject ID"
// @Param limit query int false "Max rows (default 100, max 500)"
// @Success 200 {object} object{transactions=[]models.WalletTransaction}
// @Failure 400 {object} services.ErrorResponse
// @Failure 403 {object} services.ErrorResponse
// @Failure 503 {object} services.ErrorResponse
// @Router /wallets/{subjectId}/transactions [get]
func (h *WalletHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := subjectParam(w, r)
	if !ok {
		return
	}
	limit, err := queryLimit(r)
	if err != nil {
		services.SendErrorResponse(w, "Invalid limit", http.StatusBadRequest, nil)
		return
	}
	history, err := h.service.History(r.Context(), subjectID, limit)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": history})
}

// Credit refills a wallet
// @Summary Credit wallet
// @Tags Wallets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param subjectId path string true "Subject ID"
// @Param request body WalletAmountRequest true "Amount in minor units"
// @Success 201 {object} models.WalletTransaction
// @Failure 400 {object} services.ErrorResponse
// @Failure 503 {object} services.ErrorResponse
// @Router /wallets/{subjectId}/credit [post]
func (h *WalletHandler) Credit(w http.ResponseWriter, r *http.Request) {
	var req WalletAmountRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}
	txn, err := h.service.Credit(r.Context(), chi.URLParam(r, "subjectId"), req.Amount, req.Reference)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, txn)
}

// Debit charges a wallet
// @Summary Debit wallet
// @Tags Wallets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param subjectId path string true "Subject ID"
// @Param request body WalletAmountRequest true "Amount in minor units"
// @Success 201 {object} models.WalletTransaction
// @Failure 400 {object} services.ErrorResponse
// @Failure 402 {object} services.ErrorResponse
// @Failure 503 {object} services.ErrorResponse
// @Router /wallets/{subjectId}/debit [post]
func (h *WalletHandler) Debit(w http.ResponseWriter, r *http.Request) {
	var req WalletAmountRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}
	txn, err := h.service.Debit(r.Context(), chi.URLParam(r, "subjectId"), req.Amount, req.Reference)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, txn)
}

// Reverse undoes one wallet transaction
// @Summary Reverse wallet transaction
// @Tags Wallets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param subjectId path string true "Subject ID"
// @Param txId path string true "Wallet transaction ID"
// @Param request body ReverseRequest false "Optional reference"
// @Success 201 {object} models.WalletTransaction
// @Failure 400 {object} services.ErrorResponse
// @Failure 402 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Failure 503 {object} services.ErrorResponse
// @Router /wallets/{subjectId}/transactions/{txId}/reverse [post]
func (h *WalletHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	var req ReverseRequest
	if r.ContentLength != 0 {
		if !decodeAndValidate(w, r, h.validator, &req) {
			return
		}
	}
	txn, err := h.service.Reverse(r.Context(), chi.URLParam(r, "subjectId"), chi.URLParam(r, "txId"), req.Reference)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, txn)
}
