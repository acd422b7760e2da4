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
	"charitychain/internal/chain"
	apperrors "charitychain/internal/errors"
	"charitychain/internal/events"
	"charitychain/internal/model"
	"charitychain/internal/repository"
)

// TxVerifier confirms that a donation transaction was mined successfully.
type TxVerifier interface {
	VerifyTransaction(ctx context.Context, txHash string) (chain.Receipt, error)
}

// DonationPublisher announces committed donations.
type DonationPublisher interface {
	PublishDonationConfirmed(ctx context.Context, event events.DonationConfirmedEvent) error
}

// RecordDonationInput carries a donation reported by a client after its
// on-chain transaction.
type RecordDonationInput struct {
	CampaignID  uint
	Amount      decimal.Decimal
	Message     string
	TxHash      string
	BlockNumber *uint64
}

// DonationListFilter is the query of a donation listing.
type DonationListFilter struct {
	CampaignID uint
	DonorID    uint
	Page       int
	Limit      int
}

// DonationPage is one page of donations.
type DonationPage struct {
	Donations []model.Donation
	Pagination
}

// DonationService exposes donation use cases.
type DonationService interface {
	Record(ctx context.Context, donorID uint, input RecordDonationInput) (*model.Donation, error)
	List(ctx context.Context, filter DonationListFilter) (*DonationPage, error)
	Get(ctx context.Context, id uint) (*model.Donation, error)
}

type donationService struct {
	donationRepo repository.DonationRepository
	campaignRepo repository.CampaignRepository
	cache        *cache.Client
	verifier     TxVerifier
	publisher    DonationPublisher
	log          *zap.Logger
}

// NewDonationService creates a new donation service. A nil verifier skips
// receipt checks and a nil publisher skips events.
func NewDonationService(
	donationRepo repository.DonationRepository,
	campaignRepo repository.CampaignRepository,
	cache *cache.Client,
	verifier TxVerifier,
	publisher DonationPublisher,
	log *zap.Logger,
) DonationService {
	return &donationService{
		donationRepo: donationRepo,
		campaignRepo: campaignRepo,
		cache:        cache,
		verifier:     verifier,
		publisher:    publisher,
		log:          log,
	}
}

// Record stores a confirmed donation and adds it to the campaign total in
// one transaction. The campaign is completed when an active campaign's new
// total reaches its goal.
func (s *donationService) Record(ctx context.Context, donorID uint, input RecordDonationInput) (*model.Donation, error) {
	if input.Amount.IsNegative() {
		return nil, apperrors.ErrInvalidAmount
	}
	txHash := strings.TrimSpace(input.TxHash)
	if txHash == "" {
		return nil, apperrors.ErrMissingTxHash
	}

	if _, err := s.campaignRepo.FindByID(ctx, input.CampaignID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCampaignNotFound
		}
		return nil, fmt.Errorf("find campaign: %w", err)
	}

	exists, err := s.donationRepo.ExistsByTxHash(ctx, txHash)
	if err != nil {
		return nil, fmt.Errorf("check transaction: %w", err)
	}
	if exists {
		return nil, apperrors.ErrDuplicateTransaction
	}

	blockNumber := input.BlockNumber
	if s.verifier != nil {
		receipt, err := s.verifier.VerifyTransaction(ctx, txHash)
		if errors.Is(err, chain.ErrInvalidTxHash) {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrTransactionNotConfirmed, err)
		}
		if err != nil {
			return nil, fmt.Errorf("verify transaction: %w", err)
		}
		if !receipt.Found || !receipt.Success {
			return nil, apperrors.ErrTransactionNotConfirmed
		}
		if blockNumber == nil {
			n := receipt.BlockNumber
			blockNumber = &n
		}
	}

	donation := &model.Donation{
		CampaignID:  input.CampaignID,
		DonorID:     donorID,
		Amount:      input.Amount,
		Message:     input.Message,
		TxHash:      txHash,
		BlockNumber: blockNumber,
		Status:      model.DonationStatusConfirmed,
	}

	err = s.donationRepo.WithTransaction(ctx, func(ctx context.Context, donations repository.DonationRepository, campaigns repository.CampaignRepository) error {
		if _, err := campaigns.FindByIDForUpdate(ctx, input.CampaignID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrCampaignNotFound
			}
			return err
		}

		// Re-check under the lock: a concurrent request may have won.
		exists, err := donations.ExistsByTxHash(ctx, txHash)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.ErrDuplicateTransaction
		}

		if err := donations.Create(ctx, donation); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.ErrDuplicateTransaction
			}
			return err
		}

		if err := campaigns.ApplyDonation(ctx, input.CampaignID, input.Amount); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrCampaignNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicateTransaction) || errors.Is(err, apperrors.ErrCampaignNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("record donation: %w", err)
	}

	_ = s.cache.Delete(ctx, campaignCacheKey(input.CampaignID))

	recorded, err := s.donationRepo.FindByID(ctx, donation.ID)
	if err != nil {
		return nil, fmt.Errorf("reload donation: %w", err)
	}

	s.publish(ctx, recorded)
	return recorded, nil
}

func (s *donationService) publish(ctx context.Context, donation *model.Donation) {
	if s.publisher == nil {
		return
	}
	event := events.DonationConfirmedEvent{
		DonationID:  donation.ID,
		CampaignID:  donation.CampaignID,
		DonorID:     donation.DonorID,
		Amount:      donation.Amount,
		TxHash:      donation.TxHash,
		ConfirmedAt: time.Now().UTC(),
	}
	if donation.Campaign != nil {
		event.CampaignStatus = string(donation.Campaign.Status)
		event.CurrentAmount = donation.Campaign.CurrentAmount
	}
	if err := s.publisher.PublishDonationConfirmed(ctx, event); err != nil {
		s.log.Warn("publish donation event failed", zap.Uint("donation_id", donation.ID), zap.Error(err))
	}
}

func (s *donationService) List(ctx context.Context, filter DonationListFilter) (*DonationPage, error) {
	page := newPagination(filter.Page, filter.Limit, DefaultDonationPageSize)
	donations, total, err := s.donationRepo.List(ctx, repository.DonationFilter{
		CampaignID: filter.CampaignID,
		DonorID:    filter.DonorID,
		Offset:     page.offset(),
		Limit:      page.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	page.Total = total
	return &DonationPage{Donations: donations, Pagination: page}, nil
}

func (s *donationService) Get(ctx context.Context, id uint) (*model.Donation, error) {
	donation, err := s.donationRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrDonationNotFound
		}
		return nil, err
	}
	return donation, nil
}
