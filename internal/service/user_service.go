package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "charitychain/internal/errors"
	"charitychain/internal/model"
	"charitychain/internal/repository"
)

// ProfileStats summarizes a user's activity.
type ProfileStats struct {
	CampaignsCount int64           `json:"campaignsCount"`
	DonationsCount int64           `json:"donationsCount"`
	TotalDonated   decimal.Decimal `json:"totalDonated"`
}

// Profile is the signed-in user's own view of their account.
type Profile struct {
	User      *model.User      `json:"user"`
	Stats     ProfileStats     `json:"stats"`
	Campaigns []model.Campaign `json:"campaigns"`
	Donations []model.Donation `json:"donations"`
}

// UpdateProfileInput lists the profile fields to change; nil fields are left alone.
type UpdateProfileInput struct {
	Name          *string
	WalletAddress *string
	Avatar        *string
}

// UserService exposes profile operations.
type UserService interface {
	Profile(ctx context.Context, userID uint) (*Profile, error)
	UpdateProfile(ctx context.Context, userID uint, input UpdateProfileInput) (*model.User, error)
}

type userService struct {
	userRepo     repository.UserRepository
	campaignRepo repository.CampaignRepository
	donationRepo repository.DonationRepository
}

// NewUserService builds a UserService.
func NewUserService(userRepo repository.UserRepository, campaignRepo repository.CampaignRepository, donationRepo repository.DonationRepository) UserService {
	return &userService{userRepo: userRepo, campaignRepo: campaignRepo, donationRepo: donationRepo}
}

func (s *userService) Profile(ctx context.Context, userID uint) (*Profile, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	campaigns, campaignCount, err := s.campaignRepo.List(ctx, repository.CampaignFilter{CreatorID: userID})
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	donations, _, err := s.donationRepo.List(ctx, repository.DonationFilter{DonorID: userID})
	if err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	stats, err := s.donationRepo.StatsByDonor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("donor stats: %w", err)
	}

	return &Profile{
		User: user,
		Stats: ProfileStats{
			CampaignsCount: campaignCount,
			DonationsCount: stats.Count,
			TotalDonated:   stats.Total,
		},
		Campaigns: campaigns,
		Donations: donations,
	}, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID uint, input UpdateProfileInput) (*model.User, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if name := strings.TrimSpace(*input.Name); name != "" {
			user.Name = name
		}
	}
	if input.WalletAddress != nil {
		user.WalletAddress = strings.TrimSpace(*input.WalletAddress)
	}
	if input.Avatar != nil {
		user.Avatar = *input.Avatar
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (s *userService) findUser(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
