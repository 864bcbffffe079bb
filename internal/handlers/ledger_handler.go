package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/doorline/backend/internal/models"
	"github.com/doorline/backend/internal/services"
)

type LedgerReader interface {
	UnpaidBalance(ctx context.Context, beneficiaryID string) (int64, error)
	ListEntries(ctx context.Context, beneficiaryID string, limit int) ([]models.LedgerEntry, error)
}

type LedgerHandler struct {
	service LedgerReader
}

func NewLedgerHandler(service LedgerReader) *LedgerHandler {
	return &LedgerHandler{service: service}
}

type BalanceResponse struct {
	BeneficiaryID string `json:"beneficiaryId"`
	UnpaidBalance int64  `json:"unpaidBalance"`
}

// Balance returns the unpaid balance of a beneficiary
// @Summary Unpaid balance
// @Tags Ledger
// @Produce json
// @Security BearerAuth
// @Param beneficiaryId path string true "Beneficiary ID"
// @Success 200 {object} BalanceResponse
// @Failure 503 {object} services.ErrorResponse
// @Router /ledger/{beneficiaryId}/balance [get]
func (h *LedgerHandler) Balance(w http.ResponseWriter, r *http.Request) {
	beneficiaryID := chi.URLParam(r, "beneficiaryId")
	balance, err := h.service.UnpaidBalance(r.Context(), beneficiaryID)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceResponse{BeneficiaryID: beneficiaryID, UnpaidBalance: balance})
}

// Entries lists recent ledger entries of a beneficiary
// @Summary Ledger entries
// @Tags Ledger
// @Produce json
// @Security BearerAuth
// @Param beneficiaryId path string true "Beneficiary ID"
// @Param limit query int false "Max entries (default 100, max 500)"
// @Success 200 {object} object{entries=[]models.LedgerEntry}
// @Failure 400 {object} services.ErrorResponse
// @Failure 503 {object} services.ErrorResponse
// @Router /ledger/{beneficiaryId}/entries [get]
func (h *LedgerHandler) Entries(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		services.SendErrorResponse(w, "Invalid limit", http.StatusBadRequest, nil)
		return
	}
	entries, err := h.service.ListEntries(r.Context(), chi.URLParam(r, "beneficiaryId"), limit)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
