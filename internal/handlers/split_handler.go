package handlers

import (
	"context"
	"net/http"

	"github.com/doorline/backend/internal/models"
	"github.com/doorline/backend/internal/services"
)

type SplitApplier interface {
	Apply(ctx context.Context, req models.SplitRequest) (*models.SplitResult, error)
}

type SplitHandler struct {
	service   SplitApplier
	validator *services.ValidationHelper
}

func NewSplitHandler(service SplitApplier) *SplitHandler {
	return &SplitHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

// Apply splits a gross amount into ledger entries
// @Summary Apply split
// @Description Write the ledger entries for one ACCESS_PASS or VENUE_CHARGE transaction. A repeated transactionId with the same details replays the original entries; with different details it is rejected with 409.
// @Tags Splits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.SplitRequest true "Split request"
// @Success 201 {object} models.SplitResult
// @Success 200 {object} models.SplitResult "replayed"
// @Failure 400 {object} services.ErrorResponse
// @Failure 402 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Failure 502 {object} services.ErrorResponse
// @Failure 503 {object} services.ErrorResponse
// @Router /splits [post]
func (h *SplitHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req models.SplitRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	result, err := h.service.Apply(r.Context(), req)
	if err != nil {
		sendServiceError(w, err)
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, result)
}
