package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"charitychain/internal/model"
)

// DonationFilter narrows a donation listing.
type DonationFilter struct {
	CampaignID uint
	DonorID    uint
	Offset     int
	Limit      int
}

// DonorStats aggregates the donations of one user.
type DonorStats struct {
	Count int64
	Total decimal.Decimal
}

// DonationRepository defines donation persistence operations.
type DonationRepository interface {
	Create(ctx context.Context, donation *model.Donation) error
	FindByID(ctx context.Context, id uint) (*model.Donation, error)
	ExistsByTxHash(ctx context.Context, txHash string) (bool, error)
	List(ctx context.Context, filter DonationFilter) ([]model.Donation, int64, error)
	StatsByDonor(ctx context.Context, donorID uint) (DonorStats, error)
	// Transaction methods
	WithTransaction(ctx context.Context, fn func(ctx context.Context, donations DonationRepository, campaigns CampaignRepository) error) error
}

type donationRepository struct {
	db *gorm.DB
}

// NewDonationRepository creates a new donation repository.
func NewDonationRepository(db *gorm.DB) DonationRepository {
	return &donationRepository{db: db}
}

// Create creates a new donation record.
func (r *donationRepository) Create(ctx context.Context, donation *model.Donation) error {
	return r.db.WithContext(ctx).Create(donation).Error
}

// FindByID finds a donation with its campaign and donor loaded.
func (r *donationRepository) FindByID(ctx context.Context, id uint) (*model.Donation, error) {
	var donation model.Donation
	err := r.db.WithContext(ctx).
		Preload("Campaign").
		Preload("Donor").
		First(&donation, id).Error
	if err != nil {
		return nil, err
	}
	return &donation, nil
}

// ExistsByTxHash reports whether a transaction hash was already recorded.
func (r *donationRepository) ExistsByTxHash(ctx context.Context, txHash string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Donation{}).Where("tx_hash = ?", txHash).Count(&count).Error
	return count > 0, err
}

// List returns one page of donations, newest first, and the total match count.
func (r *donationRepository) List(ctx context.Context, filter DonationFilter) ([]model.Donation, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Donation{})
	if filter.CampaignID != 0 {
		query = query.Where("campaign_id = ?", filter.CampaignID)
	}
	if filter.DonorID != 0 {
		query = query.Where("donor_id = ?", filter.DonorID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var donations []model.Donation
	page := query.Preload("Campaign").Preload("Donor").
		Order("created_at DESC, id DESC").
		Offset(filter.Offset)
	if filter.Limit > 0 {
		page = page.Limit(filter.Limit)
	}
	if err := page.Find(&donations).Error; err != nil {
		return nil, 0, err
	}
	return donations, total, nil
}

// StatsByDonor counts and sums the donations made by a user.
func (r *donationRepository) StatsByDonor(ctx context.Context, donorID uint) (DonorStats, error) {
	var amounts []decimal.Decimal
	err := r.db.WithContext(ctx).Model(&model.Donation{}).
		Where("donor_id = ?", donorID).
		Pluck("amount", &amounts).Error
	if err != nil {
		return DonorStats{}, err
	}

	stats := DonorStats{Count: int64(len(amounts)), Total: decimal.Zero}
	for _, amount := range amounts {
		stats.Total = stats.Total.Add(amount)
	}
	return stats, nil
}

// WithTransaction executes fn within a database transaction, handing it
// donation and campaign repositories bound to that transaction.
func (r *donationRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, donations DonationRepository, campaigns CampaignRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &donationRepository{db: tx}, &campaignRepository{db: tx})
	})
}
