package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"charitychain/internal/middleware"
	"charitychain/internal/service"
)

// DonationHandler handles donation endpoints.
type DonationHandler struct {
	donationService service.DonationService
}

// NewDonationHandler creates a new donation handler.
func NewDonationHandler(donationService service.DonationService) *DonationHandler {
	return &DonationHandler{donationService: donationService}
}

// CreateDonationRequest reports a donation made on chain.
type CreateDonationRequest struct {
	CampaignID  uint             `json:"campaignId" validate:"required"`
	Amount      *decimal.Decimal `json:"amount" validate:"required,gte=0" swaggertype:"number"`
	Message     string           `json:"message" validate:"max=1000"`
	TxHash      string           `json:"txHash" validate:"required,notblank,max=128"`
	BlockNumber *uint64          `json:"blockNumber"`
}

// CreateDonation godoc
// @Summary Record a donation
// @Description Records a confirmed donation and adds it to the campaign total. Each transaction hash is accepted once.
// @Tags donations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateDonationRequest true "Donation data"
// @Success 201 {object} DataResponse{data=model.Donation}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /donations [post]
func (h *DonationHandler) CreateDonation(c echo.Context) error {
	var req CreateDonationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	donation, err := h.donationService.Record(c.Request().Context(), middleware.CurrentUser(c).ID, service.RecordDonationInput{
		CampaignID:  req.CampaignID,
		Amount:      *req.Amount,
		Message:     req.Message,
		TxHash:      req.TxHash,
		BlockNumber: req.BlockNumber,
	})
	if err != nil {
		return fail(err)
	}
	return respond(c, http.StatusCreated, donation)
}

// ListDonations godoc
// @Summary List donations
// @Tags donations
// @Produce json
// @Param campaignId query int false "Campaign ID"
// @Param donorId query int false "Donor ID"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} ListResponse{data=[]model.Donation}
// @Failure 500 {object} errors.ErrorResponse
// @Router /donations [get]
func (h *DonationHandler) ListDonations(c echo.Context) error {
	page, err := h.donationService.List(c.Request().Context(), service.DonationListFilter{
		CampaignID: queryUint(c, "campaignId"),
		DonorID:    queryUint(c, "donorId"),
		Page:       queryInt(c, "page"),
		Limit:      queryInt(c, "limit"),
	})
	if err != nil {
		return fail(err)
	}
	return respondList(c, len(page.Donations), page.Pagination, page.Donations)
}

// GetDonation godoc
// @Summary Get donation
// @Tags donations
// @Produce json
// @Param id path int true "Donation ID"
// @Success 200 {object} DataResponse{data=model.Donation}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /donations/{id} [get]
func (h *DonationHandler) GetDonation(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	donation, err := h.donationService.Get(c.Request().Context(), id)
	if err != nil {
		return fail(err)
	}
	return respond(c, http.StatusOK, donation)
}
