package services

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/doorline/backend/internal/models"
)

func TestValidationHelper_ValidateStruct(t *testing.T) {
	vh := NewValidationHelper()

	t.Run("valid access pass split", func(t *testing.T) {
		req := models.SplitRequest{
			SubjectID:       "sub-1",
			TransactionType: models.TxAccessPass,
			GrossAmount:     10000,
		}
		assert.NoError(t, vh.ValidateStruct(&req))
	})

	t.Run("venue charge requires venue", func(t *testing.T) {
		req := models.SplitRequest{
			SubjectID:       "sub-1",
			TransactionType: models.TxVenueCharge,
			GrossAmount:     2000,
		}
		err := vh.ValidateStruct(&req)
		assert.Error(t, err)

		validationErrors, ok := err.(validator.ValidationErrors)
		assert.True(t, ok)
		assert.Len(t, validationErrors, 1)
		assert.Equal(t, "VenueID", validationErrors[0].Field())
	})

	t.Run("rejects unknown type and non-positive amount", func(t *testing.T) {
		req := models.SplitRequest{
			SubjectID:       "sub-1",
			TransactionType: "REFUND",
			GrossAmount:     -5,
		}
		err := vh.ValidateStruct(&req)
		validationErrors, ok := err.(validator.ValidationErrors)
		assert.True(t, ok)
		assert.Len(t, validationErrors, 2)
	})

	t.Run("scan request", func(t *testing.T) {
		err := vh.ValidateStruct(&models.ScanRequest{Token: "abc"})
		validationErrors, ok := err.(validator.ValidationErrors)
		assert.True(t, ok)
		assert.Len(t, validationErrors, 2) // VenueID, DeviceID
	})
}

func TestSendErrorResponse(t *testing.T) {
	t.Run("error response without validation errors", func(t *testing.T) {
		w := httptest.NewRecorder()

		SendErrorResponse(w, "Something went wrong", http.StatusInternalServerError, nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var response ErrorResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, "Something went wrong", response.Error)
		assert.Nil(t, response.Details)
	})

	t.Run("error response with validation errors", func(t *testing.T) {
		vh := NewValidationHelper()
		validationErr := vh.ValidateStruct(&models.ScanRequest{})
		assert.Error(t, validationErr)

		w := httptest.NewRecorder()
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, validationErr)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var response ErrorResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, "Validation failed", response.Error)
		assert.Contains(t, response.Details, "Token")
		assert.Contains(t, response.Details, "VenueID")
		assert.Contains(t, response.Details, "DeviceID")
	})

	t.Run("plain error does not panic", func(t *testing.T) {
		w := httptest.NewRecorder()

		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, errors.New("boom"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var response ErrorResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Nil(t, response.Details)
	})
}
