package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/doorline/backend/internal/models"
)

type PoolAttributor interface {
	Attribute(ctx context.Context, distributionID string) (*models.AttributionResult, error)
}

type PoolHandler struct {
	service PoolAttributor
}

func NewPoolHandler(service PoolAttributor) *PoolHandler {
	return &PoolHandler{service: service}
}

// Attribute allocates a closed pass's pool share to visited venues
// @Summary Attribute pool distribution
// @Tags Pool
// @Produce json
// @Security BearerAuth
// @Param id path string true "Distribution ID"
// @Success 200 {object} models.AttributionResult
// @Failure 400 {object} services.ErrorResponse "pass window still open"
// @Failure 404 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Failure 503 {object} services.ErrorResponse
// @Router /pool-distributions/{id}/attribute [post]
func (h *PoolHandler) Attribute(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Attribute(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		sendServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
