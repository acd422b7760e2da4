package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"charitychain/internal/errors"
	"charitychain/internal/reconcile"
)

// SyncRunner runs one reconciliation pass.
type SyncRunner interface {
	Run(ctx context.Context) (reconcile.Result, error)
}

// SyncHandler lets admins trigger a reconciliation with the contract.
type SyncHandler struct {
	runner SyncRunner
}

// NewSyncHandler creates a sync handler. A nil runner answers 503.
func NewSyncHandler(runner SyncRunner) *SyncHandler {
	return &SyncHandler{runner: runner}
}

// Sync godoc
// @Summary Import on-chain campaigns missing from the store
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} DataResponse{data=reconcile.Result}
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /admin/sync [post]
func (h *SyncHandler) Sync(c echo.Context) error {
	if h.runner == nil {
		return fail(errors.ErrChainUnavailable)
	}
	result, err := h.runner.Run(c.Request().Context())
	if err != nil {
		return fail(err)
	}
	return respond(c, http.StatusOK, result)
}
