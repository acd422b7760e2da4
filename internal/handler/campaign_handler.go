package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"charitychain/internal/middleware"
	"charitychain/internal/model"
	"charitychain/internal/service"
)

// CampaignHandler handles campaign endpoints.
type CampaignHandler struct {
	campaignService service.CampaignService
}

// NewCampaignHandler creates a new campaign handler.
func NewCampaignHandler(campaignService service.CampaignService) *CampaignHandler {
	return &CampaignHandler{campaignService: campaignService}
}

// CreateCampaignRequest represents a campaign creation request.
type CreateCampaignRequest struct {
	Title            string           `json:"title" validate:"required,max=255"`
	Description      string           `json:"description" validate:"required"`
	Image            string           `json:"image" validate:"omitempty,max=2048"`
	GoalAmount       *decimal.Decimal `json:"goalAmount" validate:"required,gte=0" swaggertype:"number"`
	Category         string           `json:"category" validate:"omitempty,oneof=education health disaster poverty environment other"`
	EndDate          string           `json:"endDate" validate:"required,iso8601" example:"2025-12-31T00:00:00Z"`
	BlockchainTxHash string           `json:"blockchainTxHash" validate:"omitempty,max=128"`
	ContractAddress  string           `json:"contractAddress" validate:"omitempty,max=64"`
	OnChainID        *uint64          `json:"onChainId"`
}

// UpdateCampaignRequest represents a partial campaign update.
type UpdateCampaignRequest struct {
	Title            *string          `json:"title" validate:"omitempty,min=1,max=255"`
	Description      *string          `json:"description" validate:"omitempty,min=1"`
	Image            *string          `json:"image" validate:"omitempty,max=2048"`
	Category         *string          `json:"category" validate:"omitempty,oneof=education health disaster poverty environment other"`
	EndDate          *string          `json:"endDate" validate:"omitempty,iso8601"`
	Status           *string          `json:"status" validate:"omitempty,oneof=active completed cancelled"`
	GoalAmount       *decimal.Decimal `json:"goalAmount" validate:"omitempty,gte=0" swaggertype:"number"`
	CurrentAmount    *decimal.Decimal `json:"currentAmount" validate:"omitempty,gte=0" swaggertype:"number"`
	BlockchainTxHash *string          `json:"blockchainTxHash" validate:"omitempty,max=128"`
	ContractAddress  *string          `json:"contractAddress" validate:"omitempty,max=64"`
}

// ListCampaigns godoc
// @Summary List campaigns
// @Tags campaigns
// @Produce json
// @Param search query string false "Substring of title or description"
// @Param category query string false "Category" Enums(education, health, disaster, poverty, environment, other)
// @Param status query string false "Status" Enums(active, completed, cancelled)
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(12)
// @Success 200 {object} ListResponse{data=[]model.Campaign}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /campaigns [get]
func (h *CampaignHandler) ListCampaigns(c echo.Context) error {
	page, err := h.campaignService.List(c.Request().Context(), service.CampaignListFilter{
		Search:   c.QueryParam("search"),
		Category: c.QueryParam("category"),
		Status:   c.QueryParam("status"),
		Page:     queryInt(c, "page"),
		Limit:    queryInt(c, "limit"),
	})
	if err != nil {
		return fail(err)
	}
	return respondList(c, len(page.Campaigns), page.Pagination, page.Campaigns)
}

// GetCampaign godoc
// @Summary Get campaign with creator and recent donations
// @Tags campaigns
// @Produce json
// @Param id path int true "Campaign ID"
// @Success 200 {object} DataResponse{data=model.Campaign}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /campaigns/{id} [get]
func (h *CampaignHandler) GetCampaign(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	campaign, err := h.campaignService.Get(c.Request().Context(), id)
	if err != nil {
		return fail(err)
	}
	return respond(c, http.StatusOK, campaign)
}

// CreateCampaign godoc
// @Summary Create a campaign
// @Tags campaigns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateCampaignRequest true "Campaign data"
// @Success 201 {object} DataResponse{data=model.Campaign}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /campaigns [post]
func (h *CampaignHandler) CreateCampaign(c echo.Context) error {
	var req CreateCampaignRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	endDate, err := parseDateField("endDate", req.EndDate)
	if err != nil {
		return err
	}

	campaign, err := h.campaignService.Create(c.Request().Context(), middleware.CurrentUser(c).ID, service.CreateCampaignInput{
		Title:            req.Title,
		Description:      req.Description,
		Image:            req.Image,
		GoalAmount:       *req.GoalAmount,
		Category:         model.Category(req.Category),
		EndDate:          endDate,
		BlockchainTxHash: req.BlockchainTxHash,
		ContractAddress:  req.ContractAddress,
		OnChainID:        req.OnChainID,
	})
	if err != nil {
		return fail(err)
	}
	return respond(c, http.StatusCreated, campaign)
}

// UpdateCampaign godoc
// @Summary Update a campaign
// @Description Only the creator or an admin may update. Final statuses cannot change.
// @Tags campaigns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Campaign ID"
// @Param request body UpdateCampaignRequest true "Fields to change"
// @Success 200 {object} DataResponse{data=model.Campaign}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /campaigns/{id} [put]
func (h *CampaignHandler) UpdateCampaign(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req UpdateCampaignRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	input := service.UpdateCampaignInput{
		Title:            req.Title,
		Description:      req.Description,
		Image:            req.Image,
		GoalAmount:       req.GoalAmount,
		CurrentAmount:    req.CurrentAmount,
		BlockchainTxHash: req.BlockchainTxHash,
		ContractAddress:  req.ContractAddress,
	}
	if req.Category != nil {
		category := model.Category(*req.Category)
		input.Category = &category
	}
	if req.Status != nil {
		status := model.CampaignStatus(*req.Status)
		input.Status = &status
	}
	if req.EndDate != nil {
		endDate, err := parseDateField("endDate", *req.EndDate)
		if err != nil {
			return err
		}
		input.EndDate = &endDate
	}

	campaign, err := h.campaignService.Update(c.Request().Context(), middleware.CurrentUser(c), id, input)
	if err != nil {
		return fail(err)
	}
	return respond(c, http.StatusOK, campaign)
}

// DeleteCampaign godoc
// @Summary Delete a campaign and its donations
// @Tags campaigns
// @Produce json
// @Security BearerAuth
// @Param id path int true "Campaign ID"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /campaigns/{id} [delete]
func (h *CampaignHandler) DeleteCampaign(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.campaignService.Delete(c.Request().Context(), middleware.CurrentUser(c), id); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "campaign deleted"})
}
