package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrCampaignNotFound is returned when a campaign does not exist.
	ErrCampaignNotFound = errors.New("campaign not found")
	// ErrDonationNotFound is returned when a donation does not exist.
	ErrDonationNotFound = errors.New("donation not found")
	// ErrUserNotFound is returned when a user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateTransaction is returned when a transaction hash was already recorded.
	ErrDuplicateTransaction = errors.New("duplicate transaction")
	// ErrMissingTxHash is returned when a donation carries a blank transaction hash.
	ErrMissingTxHash = errors.New("transaction hash is required")
	// ErrDuplicateOnChainID is returned when a campaign already mirrors the on-chain id.
	ErrDuplicateOnChainID = errors.New("campaign with this on-chain id already exists")
	// ErrEmailTaken is returned when registering with an email already in use.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidToken is returned for missing, malformed, expired or revoked tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrForbidden is returned when the caller does not own the resource.
	ErrForbidden = errors.New("not allowed to modify this resource")
	// ErrInvalidStatusTransition is returned when a final status would change.
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	// ErrInvalidAmount is returned when an amount is negative.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidFilter is returned for unknown category or status filters.
	ErrInvalidFilter = errors.New("invalid filter value")
	// ErrTransactionNotConfirmed is returned when the chain has no successful receipt.
	ErrTransactionNotConfirmed = errors.New("transaction not confirmed on chain")
	// ErrChainUnavailable is returned when no contract client is configured.
	ErrChainUnavailable = errors.New("blockchain sync is not configured")
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Code    string       `json:"code"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Fields     []FieldError
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// NewValidationError creates a 400 error carrying field level messages.
func NewValidationError(fields []FieldError) *HTTPError {
	return &HTTPError{
		StatusCode: http.StatusBadRequest,
		Message:    "validation failed",
		Code:       "VALIDATION_ERROR",
		Fields:     fields,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Success: false,
		Message: e.Message,
		Code:    e.Code,
		Errors:  e.Fields,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var httpErr *HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr
	case errors.Is(err, ErrCampaignNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "CAMPAIGN_NOT_FOUND")
	case errors.Is(err, ErrDonationNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "DONATION_NOT_FOUND")
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "USER_NOT_FOUND")
	case errors.Is(err, ErrDuplicateTransaction):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "DUPLICATE_TRANSACTION")
	case errors.Is(err, ErrMissingTxHash):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_TX_HASH")
	case errors.Is(err, ErrDuplicateOnChainID):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "DUPLICATE_ON_CHAIN_ID")
	case errors.Is(err, ErrEmailTaken):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "EMAIL_TAKEN")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrInvalidToken):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INVALID_TOKEN")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, err.Error(), "FORBIDDEN")
	case errors.Is(err, ErrInvalidStatusTransition):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_STATUS_TRANSITION")
	case errors.Is(err, ErrInvalidAmount):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_AMOUNT")
	case errors.Is(err, ErrInvalidFilter):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_FILTER")
	case errors.Is(err, ErrTransactionNotConfirmed):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "TRANSACTION_NOT_CONFIRMED")
	case errors.Is(err, ErrChainUnavailable):
		return NewHTTPError(http.StatusServiceUnavailable, err.Error(), "CHAIN_UNAVAILABLE")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
