package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"charitychain/internal/model"
)

// CampaignFilter narrows a campaign listing.
type CampaignFilter struct {
	Search    string
	Category  model.Category
	Status    model.CampaignStatus
	CreatorID uint
	Offset    int
	Limit     int
}

// CampaignRepository defines campaign persistence operations.
type CampaignRepository interface {
	Create(ctx context.Context, campaign *model.Campaign) error
	Update(ctx context.Context, id uint, fields map[string]interface{}) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Campaign, error)
	FindWithCreator(ctx context.Context, id uint) (*model.Campaign, error)
	FindDetail(ctx context.Context, id uint, recentDonations int) (*model.Campaign, error)
	FindByOnChainID(ctx context.Context, onChainID uint64) (*model.Campaign, error)
	List(ctx context.Context, filter CampaignFilter) ([]model.Campaign, int64, error)
	Count(ctx context.Context) (int64, error)
	// Transaction methods
	FindByIDForUpdate(ctx context.Context, id uint) (*model.Campaign, error)
	ApplyDonation(ctx context.Context, id uint, amount decimal.Decimal) error
}

type campaignRepository struct {
	db *gorm.DB
}

// NewCampaignRepository creates a new campaign repository.
func NewCampaignRepository(db *gorm.DB) CampaignRepository {
	return &campaignRepository{db: db}
}

// Create creates a new campaign.
func (r *campaignRepository) Create(ctx context.Context, campaign *model.Campaign) error {
	return r.db.WithContext(ctx).Create(campaign).Error
}

// Update writes only the given columns.
func (r *campaignRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&model.Campaign{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// Delete removes a campaign and its donations.
func (r *campaignRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("campaign_id = ?", id).Delete(&model.Donation{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Campaign{}, id).Error
	})
}

// FindByID finds a campaign by ID.
func (r *campaignRepository) FindByID(ctx context.Context, id uint) (*model.Campaign, error) {
	var campaign model.Campaign
	if err := r.db.WithContext(ctx).First(&campaign, id).Error; err != nil {
		return nil, err
	}
	return &campaign, nil
}

// FindWithCreator finds a campaign with its creator loaded.
func (r *campaignRepository) FindWithCreator(ctx context.Context, id uint) (*model.Campaign, error) {
	var campaign model.Campaign
	if err := r.db.WithContext(ctx).Preload("Creator").First(&campaign, id).Error; err != nil {
		return nil, err
	}
	return &campaign, nil
}

// FindDetail loads a campaign with its creator and the most recent donations.
func (r *campaignRepository) FindDetail(ctx context.Context, id uint, recentDonations int) (*model.Campaign, error) {
	var campaign model.Campaign
	err := r.db.WithContext(ctx).
		Preload("Creator").
		Preload("Donations", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC, id DESC").Limit(recentDonations)
		}).
		Preload("Donations.Donor").
		First(&campaign, id).Error
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

// FindByOnChainID finds the campaign mirroring an on-chain record.
func (r *campaignRepository) FindByOnChainID(ctx context.Context, onChainID uint64) (*model.Campaign, error) {
	var campaign model.Campaign
	if err := r.db.WithContext(ctx).Where("on_chain_id = ?", onChainID).First(&campaign).Error; err != nil {
		return nil, err
	}
	return &campaign, nil
}

// List returns one page of campaigns, newest first, and the total match count.
func (r *campaignRepository) List(ctx context.Context, filter CampaignFilter) ([]model.Campaign, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Campaign{})
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("(title LIKE ? OR description LIKE ?)", pattern, pattern)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CreatorID != 0 {
		query = query.Where("creator_id = ?", filter.CreatorID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var campaigns []model.Campaign
	page := query.Preload("Creator").Order("created_at DESC, id DESC").Offset(filter.Offset)
	if filter.Limit > 0 {
		page = page.Limit(filter.Limit)
	}
	if err := page.Find(&campaigns).Error; err != nil {
		return nil, 0, err
	}
	return campaigns, total, nil
}

// Count returns the number of campaigns in the store.
func (r *campaignRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Campaign{}).Count(&count).Error
	return count, err
}

// FindByIDForUpdate finds a campaign by ID with a row-level lock. It only
// locks when called on a repository bound to a transaction.
func (r *campaignRepository) FindByIDForUpdate(ctx context.Context, id uint) (*model.Campaign, error) {
	var campaign model.Campaign
	if err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&campaign, id).Error; err != nil {
		return nil, err
	}
	return &campaign, nil
}

// ApplyDonation adds amount to the raised total and completes an active
// campaign whose new total reaches the goal. Callers run it inside the
// transaction holding the campaign row lock.
func (r *campaignRepository) ApplyDonation(ctx context.Context, id uint, amount decimal.Decimal) error {
	db := r.db.WithContext(ctx)

	// Status is settled before the increment so the comparison always sees
	// the pre-donation total, whatever order the dialect applies SET in.
	err := db.Model(&model.Campaign{}).
		Where("id = ? AND status = ? AND current_amount + ? >= goal_amount", id, model.CampaignStatusActive, amount).
		Update("status", model.CampaignStatusCompleted).Error
	if err != nil {
		return err
	}

	res := db.Model(&model.Campaign{}).
		Where("id = ?", id).
		Update("current_amount", gorm.Expr("current_amount + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
