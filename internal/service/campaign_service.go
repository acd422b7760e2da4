package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"charitychain/internal/cache"
	apperrors "charitychain/internal/errors"
	"charitychain/internal/model"
	"charitychain/internal/repository"
)

const (
	campaignCacheTTL = time.Minute
	// RecentDonationsLimit is how many donations a campaign detail carries.
	RecentDonationsLimit = 10
)

func campaignCacheKey(id uint) string {
	return fmt.Sprintf("campaign:%d", id)
}

// CampaignListFilter is the query of a campaign listing.
type CampaignListFilter struct {
	Search   string
	Category string
	Status   string
	Page     int
	Limit    int
}

// CampaignPage is one page of campaigns.
type CampaignPage struct {
	Campaigns []model.Campaign
	Pagination
}

// CreateCampaignInput carries the fields of a new campaign.
type CreateCampaignInput struct {
	Title            string
	Description      string
	Image            string
	GoalAmount       decimal.Decimal
	Category         model.Category
	EndDate          time.Time
	BlockchainTxHash string
	ContractAddress  string
	OnChainID        *uint64
}

// UpdateCampaignInput lists the fields to change; nil fields are left alone.
type UpdateCampaignInput struct {
	Title            *string
	Description      *string
	Image            *string
	Category         *model.Category
	EndDate          *time.Time
	Status           *model.CampaignStatus
	GoalAmount       *decimal.Decimal
	CurrentAmount    *decimal.Decimal
	BlockchainTxHash *string
	ContractAddress  *string
}

// CampaignService exposes campaign use cases.
type CampaignService interface {
	List(ctx context.Context, filter CampaignListFilter) (*CampaignPage, error)
	Get(ctx context.Context, id uint) (*model.Campaign, error)
	Create(ctx context.Context, creatorID uint, input CreateCampaignInput) (*model.Campaign, error)
	Update(ctx context.Context, actor *model.User, id uint, input UpdateCampaignInput) (*model.Campaign, error)
	Delete(ctx context.Context, actor *model.User, id uint) error
}

type campaignService struct {
	repo  repository.CampaignRepository
	cache *cache.Client
	log   *zap.Logger
}

// NewCampaignService builds a CampaignService with repository and cache.
func NewCampaignService(repo repository.CampaignRepository, cache *cache.Client, log *zap.Logger) CampaignService {
	return &campaignService{repo: repo, cache: cache, log: log}
}

func (s *campaignService) List(ctx context.Context, filter CampaignListFilter) (*CampaignPage, error) {
	category := model.Category(strings.TrimSpace(filter.Category))
	if category != "" && !category.Valid() {
		return nil, fmt.Errorf("%w: category %q", apperrors.ErrInvalidFilter, category)
	}
	status := model.CampaignStatus(strings.TrimSpace(filter.Status))
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: status %q", apperrors.ErrInvalidFilter, status)
	}

	page := newPagination(filter.Page, filter.Limit, DefaultCampaignPageSize)
	campaigns, total, err := s.repo.List(ctx, repository.CampaignFilter{
		Search:   strings.TrimSpace(filter.Search),
		Category: category,
		Status:   status,
		Offset:   page.offset(),
		Limit:    page.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	page.Total = total
	return &CampaignPage{Campaigns: campaigns, Pagination: page}, nil
}

// Get returns a campaign with its creator and most recent donations.
func (s *campaignService) Get(ctx context.Context, id uint) (*model.Campaign, error) {
	var cached model.Campaign
	if s.cache.GetJSON(ctx, campaignCacheKey(id), &cached) {
		return &cached, nil
	}

	campaign, err := s.repo.FindDetail(ctx, id, RecentDonationsLimit)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCampaignNotFound
		}
		return nil, err
	}

	s.cache.SetJSON(ctx, campaignCacheKey(id), campaign, campaignCacheTTL)
	return campaign, nil
}

func (s *campaignService) Create(ctx context.Context, creatorID uint, input CreateCampaignInput) (*model.Campaign, error) {
	if input.GoalAmount.IsNegative() {
		return nil, apperrors.ErrInvalidAmount
	}
	category := input.Category
	if category == "" {
		category = model.CategoryOther
	}
	if !category.Valid() {
		return nil, fmt.Errorf("%w: category %q", apperrors.ErrInvalidFilter, category)
	}

	campaign := &model.Campaign{
		Title:            strings.TrimSpace(input.Title),
		Description:      strings.TrimSpace(input.Description),
		Image:            input.Image,
		GoalAmount:       input.GoalAmount,
		CurrentAmount:    decimal.Zero,
		CreatorID:        creatorID,
		Category:         category,
		Status:           model.CampaignStatusActive,
		StartDate:        time.Now(),
		EndDate:          input.EndDate,
		BlockchainTxHash: input.BlockchainTxHash,
		ContractAddress:  input.ContractAddress,
		OnChainID:        input.OnChainID,
	}
	if err := s.repo.Create(ctx, campaign); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrDuplicateOnChainID
		}
		return nil, fmt.Errorf("create campaign: %w", err)
	}

	return s.reload(ctx, campaign.ID)
}

// Update applies a partial update. Only the creator or an admin may edit.
// A currentAmount override is honored and logged, since donations normally
// own that column.
func (s *campaignService) Update(ctx context.Context, actor *model.User, id uint, input UpdateCampaignInput) (*model.Campaign, error) {
	campaign, err := s.authorize(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if input.Title != nil {
		fields["title"] = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		fields["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Image != nil {
		fields["image"] = *input.Image
	}
	if input.Category != nil {
		if !input.Category.Valid() {
			return nil, fmt.Errorf("%w: category %q", apperrors.ErrInvalidFilter, *input.Category)
		}
		fields["category"] = *input.Category
	}
	if input.EndDate != nil {
		fields["end_date"] = *input.EndDate
	}
	if input.Status != nil {
		if !campaign.Status.CanTransitionTo(*input.Status) {
			return nil, fmt.Errorf("%w: %s to %s", apperrors.ErrInvalidStatusTransition, campaign.Status, *input.Status)
		}
		fields["status"] = *input.Status
	}
	if input.GoalAmount != nil {
		if input.GoalAmount.IsNegative() {
			return nil, apperrors.ErrInvalidAmount
		}
		fields["goal_amount"] = *input.GoalAmount
	}
	if input.CurrentAmount != nil {
		if input.CurrentAmount.IsNegative() {
			return nil, apperrors.ErrInvalidAmount
		}
		s.log.Warn("campaign raised amount overridden",
			zap.Uint("campaign_id", id),
			zap.Uint("actor_id", actor.ID),
			zap.String("from", campaign.CurrentAmount.String()),
			zap.String("to", input.CurrentAmount.String()),
		)
		fields["current_amount"] = *input.CurrentAmount
	}
	if input.BlockchainTxHash != nil {
		fields["blockchain_tx_hash"] = *input.BlockchainTxHash
	}
	if input.ContractAddress != nil {
		fields["contract_address"] = *input.ContractAddress
	}

	if err := s.repo.Update(ctx, id, fields); err != nil {
		return nil, fmt.Errorf("update campaign: %w", err)
	}
	_ = s.cache.Delete(ctx, campaignCacheKey(id))

	return s.reload(ctx, id)
}

func (s *campaignService) Delete(ctx context.Context, actor *model.User, id uint) error {
	if _, err := s.authorize(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}
	_ = s.cache.Delete(ctx, campaignCacheKey(id))
	return nil
}

func (s *campaignService) authorize(ctx context.Context, actor *model.User, id uint) (*model.Campaign, error) {
	campaign, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCampaignNotFound
		}
		return nil, err
	}
	if actor == nil || (campaign.CreatorID != actor.ID && !actor.IsAdmin()) {
		return nil, apperrors.ErrForbidden
	}
	return campaign, nil
}

func (s *campaignService) reload(ctx context.Context, id uint) (*model.Campaign, error) {
	campaign, err := s.repo.FindWithCreator(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCampaignNotFound
		}
		return nil, err
	}
	return campaign, nil
}
