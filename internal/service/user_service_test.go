package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "charitychain/internal/errors"
	"charitychain/internal/model"
	"charitychain/internal/repository"
	"charitychain/internal/testutil"
)

func TestUserService_Profile(t *testing.T) {
	gdb := testutil.NewDB(t)
	user := testutil.CreateUser(t, gdb, "me@example.com", model.RoleOrganization)
	other := testutil.CreateUser(t, gdb, "other@example.com", model.RoleOrganization)
	svc := NewUserService(repository.NewUserRepository(gdb), repository.NewCampaignRepository(gdb), repository.NewDonationRepository(gdb))
	ctx := context.Background()

	mine := &model.Campaign{Title: "Mine", Description: "d", GoalAmount: decimal.NewFromInt(100), CreatorID: user.ID, EndDate: time.Now()}
	theirs := &model.Campaign{Title: "Theirs", Description: "d", GoalAmount: decimal.NewFromInt(100), CreatorID: other.ID, EndDate: time.Now()}
	require.NoError(t, gdb.Create(mine).Error)
	require.NoError(t, gdb.Create(theirs).Error)
	require.NoError(t, gdb.Create(&model.Donation{CampaignID: theirs.ID, DonorID: user.ID, Amount: decimal.RequireFromString("12.5"), TxHash: "0xa"}).Error)
	require.NoError(t, gdb.Create(&model.Donation{CampaignID: theirs.ID, DonorID: user.ID, Amount: decimal.RequireFromString("7.5"), TxHash: "0xb"}).Error)
	require.NoError(t, gdb.Create(&model.Donation{CampaignID: mine.ID, DonorID: other.ID, Amount: decimal.NewFromInt(50), TxHash: "0xc"}).Error)

	profile, err := svc.Profile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, profile.User.ID)
	assert.Equal(t, int64(1), profile.Stats.CampaignsCount)
	assert.Equal(t, int64(2), profile.Stats.DonationsCount)
	assert.True(t, profile.Stats.TotalDonated.Equal(decimal.NewFromInt(20)), profile.Stats.TotalDonated.String())
	require.Len(t, profile.Campaigns, 1)
	assert.Equal(t, "Mine", profile.Campaigns[0].Title)
	require.Len(t, profile.Donations, 2)
	require.NotNil(t, profile.Donations[0].Campaign)
	assert.Equal(t, "Theirs", profile.Donations[0].Campaign.Title)

	_, err = svc.Profile(ctx, 9999)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestUserService_UpdateProfile(t *testing.T) {
	gdb := testutil.NewDB(t)
	user := testutil.CreateUser(t, gdb, "me@example.com", model.RoleUser)
	svc := NewUserService(repository.NewUserRepository(gdb), repository.NewCampaignRepository(gdb), repository.NewDonationRepository(gdb))

	name := "  New Name "
	wallet := "0x2222222222222222222222222222222222222222"
	updated, err := svc.UpdateProfile(context.Background(), user.ID, UpdateProfileInput{Name: &name, WalletAddress: &wallet})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, wallet, updated.WalletAddress)

	var reloaded model.User
	require.NoError(t, gdb.First(&reloaded, user.ID).Error)
	assert.Equal(t, "New Name", reloaded.Name)
	assert.Equal(t, "", reloaded.Avatar)
	assert.True(t, reloaded.CheckPassword("password123"), "profile update keeps the password")
}
