package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/doorline/backend/internal/errs"
	"github.com/doorline/backend/internal/services"
)

const maxBodyBytes = 1_048_576

var errTrailingData = errors.New("request body must only contain a single JSON object")

// decodeJSON reads exactly one JSON object into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errTrailingData
	}
	return nil
}

// decodeAndValidate decodes and validates the body, writing a 400 on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v *services.ValidationHelper, dst any) bool {
	if err := decodeJSON(w, r, dst); err != nil {
		msg := "Invalid request body"
		if errors.Is(err, errTrailingData) {
			msg = "Request body must only contain a single JSON object"
		}
		services.SendErrorResponse(w, msg, http.StatusBadRequest, nil)
		return false
	}
	if err := v.ValidateStruct(dst); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// statusFor maps a service error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrSettlementInProgress), errors.Is(err, errs.ErrAlreadyAttributed),
		errors.Is(err, errs.ErrIdempotencyConflict):
		return http.StatusConflict
	case errors.Is(err, errs.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, errs.ErrUpstreamLookupFailed), errors.Is(err, errs.ErrPayoutRail):
		return http.StatusBadGateway
	case errors.Is(err, errs.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// sendServiceError writes err with its mapped status. Internal errors are not echoed.
func sendServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "Internal server error"
	}
	services.SendErrorResponse(w, msg, status, nil)
}

// queryLimit parses ?limit=, returning 0 when absent so services apply their default.
func queryLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errs.ErrInvalidInput
	}
	return n, nil
}
