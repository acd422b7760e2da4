package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"campaign not found", ErrCampaignNotFound, http.StatusNotFound, "CAMPAIGN_NOT_FOUND"},
		{"donation not found", ErrDonationNotFound, http.StatusNotFound, "DONATION_NOT_FOUND"},
		{"wrapped duplicate", fmt.Errorf("record: %w", ErrDuplicateTransaction), http.StatusBadRequest, "DUPLICATE_TRANSACTION"},
		{"blank tx hash", ErrMissingTxHash, http.StatusBadRequest, "INVALID_TX_HASH"},
		{"email taken", ErrEmailTaken, http.StatusBadRequest, "EMAIL_TAKEN"},
		{"bad credentials", ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"token", ErrInvalidToken, http.StatusUnauthorized, "INVALID_TOKEN"},
		{"forbidden", ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"transition", ErrInvalidStatusTransition, http.StatusBadRequest, "INVALID_STATUS_TRANSITION"},
		{"not confirmed", ErrTransactionNotConfirmed, http.StatusBadRequest, "TRANSACTION_NOT_CONFIRMED"},
		{"chain", ErrChainUnavailable, http.StatusServiceUnavailable, "CHAIN_UNAVAILABLE"},
		{"http error passes through", NewHTTPError(http.StatusTeapot, "short and stout", "TEAPOT"), http.StatusTeapot, "TEAPOT"},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := MapErrorToHTTP(tt.err)
			assert.Equal(t, tt.status, httpErr.StatusCode)
			assert.Equal(t, tt.code, httpErr.Code)
		})
	}
}

func TestMapErrorToHTTP_HidesInternalMessage(t *testing.T) {
	resp := MapErrorToHTTP(errors.New("dial tcp 10.0.0.3:5432: refused")).ToErrorResponse()
	assert.False(t, resp.Success)
	assert.Equal(t, "internal server error", resp.Message)
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError([]FieldError{{Field: "title", Message: "is required"}})
	resp := err.ToErrorResponse()
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", resp.Code)
	assert.Equal(t, []FieldError{{Field: "title", Message: "is required"}}, resp.Errors)
}
