package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/doorline/backend/internal/middleware"
	"github.com/doorline/backend/internal/models"
	"github.com/doorline/backend/internal/services"
)

// TokenService issues and validates access tokens.
type TokenService interface {
	Issue(ctx context.Context, subjectID string) (*models.AccessToken, error)
	Validate(ctx context.Context, req models.ScanRequest) (*models.ScanDecision, error)
	ScanTimeout() time.Duration
}

type QRRenderer interface {
	Render(content string) (string, error)
}

type TokenHandler struct {
	service   TokenService
	qr        QRRenderer
	validator *services.ValidationHelper
	logger    *zap.Logger
}

func NewTokenHandler(service TokenService, qr QRRenderer, logger *zap.Logger) *TokenHandler {
	return &TokenHandler{
		service:   service,
		qr:        qr,
		validator: services.NewValidationHelper(),
		logger:    logger.Named("tokens"),
	}
}

// IssueTokenRequest names the subject to mint a token for. Members may omit
// it; their own subject id is used.
type IssueTokenRequest struct {
	SubjectID string `json:"subjectId,omitempty" validate:"omitempty,max=64"`
}

type IssueTokenResponse struct {
	TokenID   string    `json:"tokenId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	QRImage   string    `json:"qrImage,omitempty"`
}

// Issue mints a single-use access token
// @Summary Issue access token
// @Description Mint a short-lived single-use entry token. Pass format=qr to also receive a base64 PNG.
// @Tags Tokens
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param format query string false "qr to include a QR image"
// @Param request body IssueTokenRequest true "Issue request"
// @Success 201 {object} IssueTokenResponse
// @Failure 400 {object} services.ErrorResponse
// @Failure 403 {object} services.ErrorResponse
// @Failure 429 {object} services.ErrorResponse
// @Failure 503 {object} services.ErrorResponse
// @Router /tokens [post]
func (h *TokenHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req IssueTokenRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	subjectID, ok := h.resolveSubject(r, req.SubjectID)
	if !ok {
		services.SendErrorResponse(w, "Forbidden", http.StatusForbidden, nil)
		return
	}
	if subjectID == "" {
		services.SendErrorResponse(w, "subjectId is required", http.StatusBadRequest, nil)
		return
	}

	token, err := h.service.Issue(r.Context(), subjectID)
	if err != nil {
		sendServiceError(w, err)
		return
	}

	resp := IssueTokenResponse{
		TokenID:   token.ID,
		Token:     token.Secret,
		ExpiresAt: token.ExpiresAt,
	}
	if r.URL.Query().Get("format") == "qr" {
		img, err := h.qr.Render(token.Secret)
		if err != nil {
			h.logger.Error("render qr", zap.String("token_id", token.ID), zap.Error(err))
			services.SendErrorResponse(w, "Failed to render QR code", http.StatusInternalServerError, nil)
			return
		}
		resp.QRImage = img
	}

	writeJSON(w, http.StatusCreated, resp)
}

// resolveSubject applies the caller's identity: members act only for
// themselves, other roles must name the subject.
func (h *TokenHandler) resolveSubject(r *http.Request, requested string) (string, bool) {
	role, _ := middleware.RoleFrom(r.Context())
	if role != middleware.RoleMember {
		return requested, true
	}
	self, ok := middleware.SubjectFrom(r.Context())
	if !ok {
		return "", false
	}
	if requested != "" && requested != self {
		return "", false
	}
	return self, true
}

// Validate decides a door scan
// @Summary Validate access token
// @Description Consume a presented token and return the door decision. The status code reflects the scan status; the body always carries status and decision.
// @Tags Tokens
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.ScanRequest true "Scan"
// @Success 200 {object} models.ScanDecision "VERIFIED"
// @Failure 403 {object} models.ScanDecision "DENIED"
// @Failure 404 {object} models.ScanDecision "INVALID"
// @Failure 409 {object} models.ScanDecision "USED"
// @Failure 410 {object} models.ScanDecision "EXPIRED"
// @Failure 503 {object} models.ScanDecision "timeout or store failure"
// @Router /tokens/validate [post]
func (h *TokenHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req models.ScanRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.service.ScanTimeout())
	defer cancel()

	decision, err := h.service.Validate(ctx, req)
	if decision == nil {
		if err == nil {
			err = errors.New("no decision")
		}
		sendServiceError(w, err)
		return
	}
	if err != nil {
		h.logger.Warn("scan failed closed",
			zap.String("venue_id", req.VenueID),
			zap.String("device_id", req.DeviceID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusServiceUnavailable, decision)
		return
	}

	writeJSON(w, scanStatusCode(decision.Status), decision)
}

func scanStatusCode(s models.ScanStatus) int {
	switch s {
	case models.ScanVerified:
		return http.StatusOK
	case models.ScanExpired:
		return http.StatusGone
	case models.ScanUsed:
		return http.StatusConflict
	case models.ScanDenied:
		return http.StatusForbidden
	default:
		return http.StatusNotFound
	}
}
