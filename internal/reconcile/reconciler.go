// Package reconcile restores campaigns recorded on the contract into the
// relational store.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"charitychain/internal/chain"
	"charitychain/internal/model"
	"charitychain/internal/repository"
)

const (
	// SystemUserEmail identifies the account that owns restored campaigns.
	SystemUserEmail = "blockchain_sync@system.local"
	// SystemUserName is the display name of that account.
	SystemUserName = "Blockchain Sync Bot"
	// PlaceholderImage is used for restored campaigns, which carry no image on chain.
	PlaceholderImage = "https://via.placeholder.com/800x400?text=Restored+from+Blockchain"

	zeroAddress   = "0x0000000000000000000000000000000000000000"
	restoredTxTag = "restored_from_chain_"
	weiDecimals   = 18
)

// FallbackGoal replaces a goal that converts to zero.
var FallbackGoal = decimal.NewFromInt(1_000_000)

// Ledger is the read side of the campaign contract.
type Ledger interface {
	CampaignCount(ctx context.Context) (uint64, error)
	GetCampaign(ctx context.Context, id uint64) (*chain.Campaign, error)
}

// Result counts the outcome of one run.
type Result struct {
	Total    uint64 `json:"total"`
	Imported int    `json:"imported"`
	Skipped  int    `json:"skipped"`
	Failed   int    `json:"failed"`
}

// Options configures how on-chain records are converted.
type Options struct {
	ExchangeRate    decimal.Decimal
	ContractAddress string
}

// Reconciler imports contract campaigns missing from the store.
type Reconciler struct {
	ledger    Ledger
	users     repository.UserRepository
	campaigns repository.CampaignRepository
	opts      Options
	log       *zap.Logger
	now       func() time.Time
}

// New creates a reconciler.
func New(ledger Ledger, users repository.UserRepository, campaigns repository.CampaignRepository, opts Options, log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{
		ledger:    ledger,
		users:     users,
		campaigns: campaigns,
		opts:      opts,
		log:       log,
		now:       time.Now,
	}
}

// Run walks campaign ids 1..N and inserts every record not yet mirrored.
// Existing rows are never modified. Only the count lookup and the system
// account setup are fatal; per-record failures are counted and skipped.
func (r *Reconciler) Run(ctx context.Context) (Result, error) {
	var result Result

	count, err := r.ledger.CampaignCount(ctx)
	if err != nil {
		return result, fmt.Errorf("read campaign count: %w", err)
	}
	result.Total = count
	r.log.Info("reconciliation started", zap.Uint64("on_chain_campaigns", count))

	owner, err := r.systemUser(ctx)
	if err != nil {
		return result, fmt.Errorf("ensure system user: %w", err)
	}

	for id := uint64(1); id <= count; id++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		imported, err := r.importOne(ctx, id, owner.ID)
		switch {
		case err != nil:
			result.Failed++
			r.log.Warn("campaign import failed", zap.Uint64("on_chain_id", id), zap.Error(err))
		case imported:
			result.Imported++
			r.log.Info("campaign imported", zap.Uint64("on_chain_id", id))
		default:
			result.Skipped++
			r.log.Debug("campaign already present", zap.Uint64("on_chain_id", id))
		}
	}

	r.log.Info("reconciliation finished",
		zap.Uint64("total", result.Total),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func (r *Reconciler) importOne(ctx context.Context, id uint64, ownerID uint) (bool, error) {
	record, err := r.ledger.GetCampaign(ctx, id)
	if err != nil {
		return false, err
	}

	_, err = r.campaigns.FindByOnChainID(ctx, id)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("lookup: %w", err)
	}

	campaign := r.toCampaign(record, ownerID)
	if err := r.campaigns.Create(ctx, campaign); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, fmt.Errorf("insert: %w", err)
	}
	return true, nil
}

func (r *Reconciler) toCampaign(record *chain.Campaign, ownerID uint) *model.Campaign {
	goal := WeiToDisplay(record.GoalWei, r.opts.ExchangeRate)
	if goal.IsZero() {
		goal = FallbackGoal
	}

	status := model.CampaignStatusCompleted
	if record.IsActive {
		status = model.CampaignStatusActive
	}

	now := r.now()
	startDate := record.CreatedAt
	if startDate.IsZero() {
		startDate = now
	}

	onChainID := record.OnChainID
	return &model.Campaign{
		Title:            record.Title,
		Description:      record.Description,
		Image:            PlaceholderImage,
		GoalAmount:       goal,
		CurrentAmount:    WeiToDisplay(record.CurrentWei, r.opts.ExchangeRate),
		CreatorID:        ownerID,
		Category:         model.CategoryOther,
		Status:           status,
		StartDate:        startDate,
		EndDate:          record.EndDate,
		BlockchainTxHash: fmt.Sprintf("%s%d", restoredTxTag, now.UnixMilli()),
		ContractAddress:  r.opts.ContractAddress,
		OnChainID:        &onChainID,
	}
}

func (r *Reconciler) systemUser(ctx context.Context) (*model.User, error) {
	user, created, err := r.users.FindOrCreateByEmail(ctx, &model.User{
		Name:          SystemUserName,
		Email:         SystemUserEmail,
		Password:      uuid.NewString(),
		WalletAddress: zeroAddress,
		Role:          model.RoleAdmin,
	})
	if err != nil {
		return nil, err
	}
	if created {
		r.log.Info("system user created", zap.String("email", SystemUserEmail))
	}
	return user, nil
}

// WeiToDisplay converts a wei amount to display currency at rate units per
// native coin, rounded to two decimals. A nil amount converts to zero.
func WeiToDisplay(wei *big.Int, rate decimal.Decimal) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, -weiDecimals).Mul(rate).Round(2)
}
