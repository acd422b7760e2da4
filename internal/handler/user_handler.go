package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"charitychain/internal/middleware"
	"charitychain/internal/service"
)

// UserHandler serves the signed-in user's profile.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// UpdateProfileRequest lists the editable profile fields.
type UpdateProfileRequest struct {
	Name          *string `json:"name" validate:"omitempty,min=1,max=255"`
	WalletAddress *string `json:"walletAddress" validate:"omitempty,max=64"`
	Avatar        *string `json:"avatar" validate:"omitempty,max=512"`
}

// GetProfile godoc
// @Summary Get own profile with stats, campaigns and donations
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} DataResponse{data=service.Profile}
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users/profile [get]
func (h *UserHandler) GetProfile(c echo.Context) error {
	profile, err := h.svc.Profile(c.Request().Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		return fail(err)
	}
	return respond(c, http.StatusOK, profile)
}

// UpdateProfile godoc
// @Summary Update own profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateProfileRequest true "Profile fields"
// @Success 200 {object} DataResponse{data=model.User}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users/profile [put]
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req UpdateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.svc.UpdateProfile(c.Request().Context(), middleware.CurrentUser(c).ID, service.UpdateProfileInput{
		Name:          req.Name,
		WalletAddress: req.WalletAddress,
		Avatar:        req.Avatar,
	})
	if err != nil {
		return fail(err)
	}
	return respond(c, http.StatusOK, user)
}
