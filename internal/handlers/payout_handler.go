package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/doorline/backend/internal/models"
	"github.com/doorline/backend/internal/services"
)

const idempotencyHeader = "Idempotency-Key"

type PayoutService interface {
	Settle(ctx context.Context, beneficiaryID, requestID string) (*models.PayoutResult, error)
	Sweep(ctx context.Context) ([]models.SweepResult, error)
	History(ctx context.Context, beneficiaryID string) ([]models.PayoutRecord, error)
}

type PayoutHandler struct {
	service   PayoutService
	validator *services.ValidationHelper
}

func NewPayoutHandler(service PayoutService) *PayoutHandler {
	return &PayoutHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

type SettleRequest struct {
	BeneficiaryID string `json:"beneficiaryId" validate:"required,max=64"`
}

// Settle pays out a beneficiary's unpaid balance
// @Summary Settle payout
// @Description Transfer the unpaid balance of one beneficiary. Repeating a call with the same Idempotency-Key returns the original transfer.
// @Tags Payouts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string false "Payout attempt id"
// @Param request body SettleRequest true "Settle request"
// @Success 200 {object} models.PayoutResult
// @Failure 400 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Failure 502 {object} services.ErrorResponse
// @Failure 503 {object} services.ErrorResponse
// @Router /payouts/settle [post]
func (h *PayoutHandler) Settle(w http.ResponseWriter, r *http.Request) {
	var req SettleRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	requestID := r.Header.Get(idempotencyHeader)
	if len(requestID) > 128 {
		services.SendErrorResponse(w, "Idempotency-Key too long", http.StatusBadRequest, nil)
		return
	}

	result, err := h.service.Settle(r.Context(), req.BeneficiaryID, requestID)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Sweep settles every beneficiary with a positive balance
// @Summary Sweep payouts
// @Tags Payouts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{results=[]models.SweepResult}
// @Failure 503 {object} services.ErrorResponse
// @Router /payouts/sweep [post]
func (h *PayoutHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.Sweep(r.Context())
	if err != nil {
		sendServiceError(w, err)
		return
	}
	if results == nil {
		results = []models.SweepResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// History lists settled payouts
// @Summary Payout history
// @Tags Payouts
// @Produce json
// @Security BearerAuth
// @Param beneficiaryId path string true "Beneficiary ID"
// @Success 200 {object} object{payouts=[]models.PayoutRecord}
// @Failure 503 {object} services.ErrorResponse
// @Router /payouts/{beneficiaryId} [get]
func (h *PayoutHandler) History(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.History(r.Context(), chi.URLParam(r, "beneficiaryId"))
	if err != nil {
		sendServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"payouts": records})
}
