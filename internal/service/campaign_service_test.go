package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "charitychain/internal/errors"
	"charitychain/internal/model"
	"charitychain/internal/repository"
	"charitychain/internal/testutil"
)

func newCampaignTestService(t *testing.T) (CampaignService, *gorm.DB) {
	t.Helper()
	gdb := testutil.NewDB(t)
	return NewCampaignService(repository.NewCampaignRepository(gdb), nil, zap.NewNop()), gdb
}

func validCampaignInput(title string) CreateCampaignInput {
	return CreateCampaignInput{
		Title:       title,
		Description: "description of " + title,
		GoalAmount:  decimal.NewFromInt(1000),
		EndDate:     time.Now().Add(30 * 24 * time.Hour),
	}
}

func TestCampaignService_Create(t *testing.T) {
	svc, gdb := newCampaignTestService(t)
	creator := testutil.CreateUser(t, gdb, "creator@example.com", model.RoleOrganization)
	ctx := context.Background()

	campaign, err := svc.Create(ctx, creator.ID, validCampaignInput("School books"))
	require.NoError(t, err)
	assert.NotZero(t, campaign.ID)
	assert.Equal(t, model.CategoryOther, campaign.Category)
	assert.Equal(t, model.CampaignStatusActive, campaign.Status)
	assert.True(t, campaign.CurrentAmount.IsZero())
	require.NotNil(t, campaign.Creator)
	assert.Equal(t, creator.ID, campaign.Creator.ID)

	input := validCampaignInput("Negative")
	input.GoalAmount = decimal.NewFromInt(-5)
	_, err = svc.Create(ctx, creator.ID, input)
	assert.ErrorIs(t, err, apperrors.ErrInvalidAmount)

	onChainID := uint64(4)
	input = validCampaignInput("Mirrored")
	input.OnChainID = &onChainID
	_, err = svc.Create(ctx, creator.ID, input)
	require.NoError(t, err)
	_, err = svc.Create(ctx, creator.ID, input)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateOnChainID)
}

func TestCampaignService_List(t *testing.T) {
	svc, gdb := newCampaignTestService(t)
	creator := testutil.CreateUser(t, gdb, "creator@example.com", model.RoleOrganization)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		input := validCampaignInput(fmt.Sprintf("Clinic %d", i))
		input.Category = model.CategoryHealth
		_, err := svc.Create(ctx, creator.ID, input)
		require.NoError(t, err)
	}
	input := validCampaignInput("Tree planting")
	input.Category = model.CategoryEnvironment
	_, err := svc.Create(ctx, creator.ID, input)
	require.NoError(t, err)

	page, err := svc.List(ctx, CampaignListFilter{Category: "health", Page: 2, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 3, page.Pages())
	require.Len(t, page.Campaigns, 1)
	assert.Equal(t, "Clinic 1", page.Campaigns[0].Title)

	page, err = svc.List(ctx, CampaignListFilter{Search: "tree"})
	require.NoError(t, err)
	require.Len(t, page.Campaigns, 1)
	assert.Equal(t, "Tree planting", page.Campaigns[0].Title)
	assert.Equal(t, DefaultCampaignPageSize, page.Limit)

	page, err = svc.List(ctx, CampaignListFilter{Page: -3, Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, MaxPageSize, page.Limit)
	assert.Len(t, page.Campaigns, 4)
	assert.Equal(t, "Tree planting", page.Campaigns[0].Title, "newest first")

	_, err = svc.List(ctx, CampaignListFilter{Category: "sports"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidFilter)
	_, err = svc.List(ctx, CampaignListFilter{Status: "paused"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidFilter)
}

func TestCampaignService_GetIncludesRecentDonations(t *testing.T) {
	svc, gdb := newCampaignTestService(t)
	creator := testutil.CreateUser(t, gdb, "creator@example.com", model.RoleOrganization)
	donor := testutil.CreateUser(t, gdb, "donor@example.com", model.RoleUser)
	ctx := context.Background()

	campaign, err := svc.Create(ctx, creator.ID, validCampaignInput("Shelter"))
	require.NoError(t, err)
	for i := 0; i < RecentDonationsLimit+2; i++ {
		require.NoError(t, gdb.Create(&model.Donation{
			CampaignID: campaign.ID,
			DonorID:    donor.ID,
			Amount:     decimal.NewFromInt(1),
			TxHash:     fmt.Sprintf("0x%02d", i),
			Status:     model.DonationStatusConfirmed,
		}).Error)
	}

	detail, err := svc.Get(ctx, campaign.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Donations, RecentDonationsLimit)
	assert.Equal(t, fmt.Sprintf("0x%02d", RecentDonationsLimit+1), detail.Donations[0].TxHash)
	require.NotNil(t, detail.Donations[0].Donor)
	require.NotNil(t, detail.Creator)

	_, err = svc.Get(ctx, campaign.ID+50)
	assert.ErrorIs(t, err, apperrors.ErrCampaignNotFound)
}

func TestCampaignService_Update(t *testing.T) {
	svc, gdb := newCampaignTestService(t)
	creator := testutil.CreateUser(t, gdb, "creator@example.com", model.RoleOrganization)
	stranger := testutil.CreateUser(t, gdb, "stranger@example.com", model.RoleUser)
	admin := testutil.CreateUser(t, gdb, "admin@example.com", model.RoleAdmin)
	ctx := context.Background()

	campaign, err := svc.Create(ctx, creator.ID, validCampaignInput("Library"))
	require.NoError(t, err)

	title := "Stolen"
	_, err = svc.Update(ctx, stranger, campaign.ID, UpdateCampaignInput{Title: &title})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	title = "Library extension"
	updated, err := svc.Update(ctx, creator, campaign.ID, UpdateCampaignInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Library extension", updated.Title)

	override := decimal.NewFromInt(300)
	updated, err = svc.Update(ctx, admin, campaign.ID, UpdateCampaignInput{CurrentAmount: &override})
	require.NoError(t, err)
	assert.True(t, updated.CurrentAmount.Equal(override), updated.CurrentAmount.String())

	cancelled := model.CampaignStatusCancelled
	_, err = svc.Update(ctx, creator, campaign.ID, UpdateCampaignInput{Status: &cancelled})
	require.NoError(t, err)

	active := model.CampaignStatusActive
	_, err = svc.Update(ctx, creator, campaign.ID, UpdateCampaignInput{Status: &active})
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatusTransition)

	_, err = svc.Update(ctx, creator, campaign.ID+99, UpdateCampaignInput{Title: &title})
	assert.ErrorIs(t, err, apperrors.ErrCampaignNotFound)
}

func TestCampaignService_Delete(t *testing.T) {
	svc, gdb := newCampaignTestService(t)
	creator := testutil.CreateUser(t, gdb, "creator@example.com", model.RoleOrganization)
	stranger := testutil.CreateUser(t, gdb, "stranger@example.com", model.RoleUser)
	admin := testutil.CreateUser(t, gdb, "admin@example.com", model.RoleAdmin)
	ctx := context.Background()

	campaign, err := svc.Create(ctx, creator.ID, validCampaignInput("Bridge"))
	require.NoError(t, err)
	require.NoError(t, gdb.Create(&model.Donation{
		CampaignID: campaign.ID, DonorID: stranger.ID, Amount: decimal.NewFromInt(5), TxHash: "0xbridge",
	}).Error)

	assert.ErrorIs(t, svc.Delete(ctx, stranger, campaign.ID), apperrors.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, admin, campaign.ID))

	_, err = svc.Get(ctx, campaign.ID)
	assert.ErrorIs(t, err, apperrors.ErrCampaignNotFound)

	var donations int64
	require.NoError(t, gdb.Model(&model.Donation{}).Count(&donations).Error)
	assert.Zero(t, donations)
}
