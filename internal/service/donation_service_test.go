package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"charitychain/internal/chain"
	apperrors "charitychain/internal/errors"
	"charitychain/internal/events"
	"charitychain/internal/model"
	"charitychain/internal/repository"
	"charitychain/internal/testutil"
)

type stubVerifier struct {
	receipt chain.Receipt
	err     error
}

func (s stubVerifier) VerifyTransaction(context.Context, string) (chain.Receipt, error) {
	return s.receipt, s.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.DonationConfirmedEvent
	err    error
}

func (p *recordingPublisher) PublishDonationConfirmed(_ context.Context, event events.DonationConfirmedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

type donationFixture struct {
	db       *gorm.DB
	donor    *model.User
	campaign *model.Campaign
}

func newDonationFixture(t *testing.T, goal string) donationFixture {
	t.Helper()
	gdb := testutil.NewDB(t)
	creator := testutil.CreateUser(t, gdb, "creator@example.com", model.RoleOrganization)
	donor := testutil.CreateUser(t, gdb, "donor@example.com", model.RoleUser)

	campaign := &model.Campaign{
		Title:       "Clean water",
		Description: "Wells for villages",
		GoalAmount:  decimal.RequireFromString(goal),
		CreatorID:   creator.ID,
		Category:    model.CategoryHealth,
		Status:      model.CampaignStatusActive,
		StartDate:   time.Now(),
		EndDate:     time.Now().Add(30 * 24 * time.Hour),
	}
	require.NoError(t, gdb.Create(campaign).Error)
	return donationFixture{db: gdb, donor: donor, campaign: campaign}
}

func (f donationFixture) service(verifier TxVerifier, publisher DonationPublisher) DonationService {
	return NewDonationService(
		repository.NewDonationRepository(f.db),
		repository.NewCampaignRepository(f.db),
		nil,
		verifier,
		publisher,
		zap.NewNop(),
	)
}

func (f donationFixture) reloadCampaign(t *testing.T) model.Campaign {
	t.Helper()
	var campaign model.Campaign
	require.NoError(t, f.db.First(&campaign, f.campaign.ID).Error)
	return campaign
}

func TestDonationService_RecordUpdatesCampaign(t *testing.T) {
	f := newDonationFixture(t, "100")
	publisher := &recordingPublisher{}
	svc := f.service(nil, publisher)
	ctx := context.Background()

	donation, err := svc.Record(ctx, f.donor.ID, RecordDonationInput{
		CampaignID: f.campaign.ID,
		Amount:     decimal.RequireFromString("50.5"),
		Message:    "good luck",
		TxHash:     "0xaaa",
	})
	require.NoError(t, err)
	assert.Equal(t, model.DonationStatusConfirmed, donation.Status)
	require.NotNil(t, donation.Campaign)
	require.NotNil(t, donation.Donor)
	assert.Equal(t, f.donor.ID, donation.Donor.ID)

	campaign := f.reloadCampaign(t)
	assert.True(t, campaign.CurrentAmount.Equal(decimal.RequireFromString("50.5")), campaign.CurrentAmount.String())
	assert.Equal(t, model.CampaignStatusActive, campaign.Status)

	_, err = svc.Record(ctx, f.donor.ID, RecordDonationInput{
		CampaignID: f.campaign.ID,
		Amount:     decimal.RequireFromString("49.5"),
		TxHash:     "0xbbb",
	})
	require.NoError(t, err)

	campaign = f.reloadCampaign(t)
	assert.True(t, campaign.CurrentAmount.Equal(decimal.NewFromInt(100)), campaign.CurrentAmount.String())
	assert.Equal(t, model.CampaignStatusCompleted, campaign.Status)

	require.Len(t, publisher.events, 2)
	assert.Equal(t, "0xaaa", publisher.events[0].TxHash)
	assert.Equal(t, "completed", publisher.events[1].CampaignStatus)
}

func TestDonationService_RecordRejectsDuplicateTransaction(t *testing.T) {
	f := newDonationFixture(t, "100")
	svc := f.service(nil, nil)
	ctx := context.Background()
	input := RecordDonationInput{CampaignID: f.campaign.ID, Amount: decimal.NewFromInt(25), TxHash: "0xdup"}

	_, err := svc.Record(ctx, f.donor.ID, input)
	require.NoError(t, err)

	_, err = svc.Record(ctx, f.donor.ID, input)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateTransaction)

	campaign := f.reloadCampaign(t)
	assert.True(t, campaign.CurrentAmount.Equal(decimal.NewFromInt(25)), campaign.CurrentAmount.String())

	var count int64
	require.NoError(t, f.db.Model(&model.Donation{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDonationService_RecordRejectsBlankTxHash(t *testing.T) {
	f := newDonationFixture(t, "100")
	svc := f.service(nil, nil)

	for _, hash := range []string{"", "   ", "\t\n"} {
		_, err := svc.Record(context.Background(), f.donor.ID, RecordDonationInput{
			CampaignID: f.campaign.ID,
			Amount:     decimal.NewFromInt(1),
			TxHash:     hash,
		})
		assert.ErrorIs(t, err, apperrors.ErrMissingTxHash, "hash %q", hash)
	}

	var count int64
	require.NoError(t, f.db.Model(&model.Donation{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.True(t, f.reloadCampaign(t).CurrentAmount.IsZero())
}

func TestDonationService_RecordConcurrent(t *testing.T) {
	f := newDonationFixture(t, "100")
	svc := f.service(nil, nil)
	const donors = 20

	var wg sync.WaitGroup
	errs := make(chan error, donors)
	for i := 0; i < donors; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Record(context.Background(), f.donor.ID, RecordDonationInput{
				CampaignID: f.campaign.ID,
				Amount:     decimal.NewFromInt(5),
				TxHash:     fmt.Sprintf("0xconcurrent%02d", i),
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	campaign := f.reloadCampaign(t)
	assert.True(t, campaign.CurrentAmount.Equal(decimal.NewFromInt(5*donors)), campaign.CurrentAmount.String())
	assert.True(t, campaign.GoalReached())
	assert.Equal(t, model.CampaignStatusCompleted, campaign.Status)

	var count int64
	require.NoError(t, f.db.Model(&model.Donation{}).Count(&count).Error)
	assert.Equal(t, int64(donors), count)
}

func TestDonationService_RecordConcurrentSameHash(t *testing.T) {
	f := newDonationFixture(t, "100")
	svc := f.service(nil, nil)
	const attempts = 10

	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Record(context.Background(), f.donor.ID, RecordDonationInput{
				CampaignID: f.campaign.ID,
				Amount:     decimal.NewFromInt(5),
				TxHash:     "0xshared",
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, apperrors.ErrDuplicateTransaction)
	}
	assert.Equal(t, 1, ok)

	campaign := f.reloadCampaign(t)
	assert.True(t, campaign.CurrentAmount.Equal(decimal.NewFromInt(5)), campaign.CurrentAmount.String())
	assert.False(t, campaign.GoalReached())
}

func TestDonationService_RecordUnknownCampaign(t *testing.T) {
	f := newDonationFixture(t, "100")
	svc := f.service(nil, nil)

	_, err := svc.Record(context.Background(), f.donor.ID, RecordDonationInput{
		CampaignID: f.campaign.ID + 100,
		Amount:     decimal.NewFromInt(1),
		TxHash:     "0xnone",
	})
	assert.ErrorIs(t, err, apperrors.ErrCampaignNotFound)
}

func TestDonationService_RecordRejectsNegativeAmount(t *testing.T) {
	f := newDonationFixture(t, "100")
	svc := f.service(nil, nil)

	_, err := svc.Record(context.Background(), f.donor.ID, RecordDonationInput{
		CampaignID: f.campaign.ID,
		Amount:     decimal.NewFromInt(-1),
		TxHash:     "0xneg",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidAmount)
}

func TestDonationService_RecordKeepsFinalStatus(t *testing.T) {
	f := newDonationFixture(t, "10")
	require.NoError(t, f.db.Model(&model.Campaign{}).Where("id = ?", f.campaign.ID).
		Update("status", model.CampaignStatusCancelled).Error)
	svc := f.service(nil, nil)

	_, err := svc.Record(context.Background(), f.donor.ID, RecordDonationInput{
		CampaignID: f.campaign.ID,
		Amount:     decimal.NewFromInt(25),
		TxHash:     "0xlate",
	})
	require.NoError(t, err)

	campaign := f.reloadCampaign(t)
	assert.Equal(t, model.CampaignStatusCancelled, campaign.Status)
	assert.True(t, campaign.CurrentAmount.Equal(decimal.NewFromInt(25)))
}

func TestDonationService_RecordVerifiesReceipt(t *testing.T) {
	ctx := context.Background()

	t.Run("unmined transaction is rejected", func(t *testing.T) {
		f := newDonationFixture(t, "100")
		svc := f.service(stubVerifier{receipt: chain.Receipt{}}, nil)

		_, err := svc.Record(ctx, f.donor.ID, RecordDonationInput{CampaignID: f.campaign.ID, Amount: decimal.NewFromInt(1), TxHash: "0x01"})
		assert.ErrorIs(t, err, apperrors.ErrTransactionNotConfirmed)
	})

	t.Run("reverted transaction is rejected", func(t *testing.T) {
		f := newDonationFixture(t, "100")
		svc := f.service(stubVerifier{receipt: chain.Receipt{Found: true}}, nil)

		_, err := svc.Record(ctx, f.donor.ID, RecordDonationInput{CampaignID: f.campaign.ID, Amount: decimal.NewFromInt(1), TxHash: "0x02"})
		assert.ErrorIs(t, err, apperrors.ErrTransactionNotConfirmed)
	})

	t.Run("malformed hash is rejected", func(t *testing.T) {
		f := newDonationFixture(t, "100")
		svc := f.service(stubVerifier{err: chain.ErrInvalidTxHash}, nil)

		_, err := svc.Record(ctx, f.donor.ID, RecordDonationInput{CampaignID: f.campaign.ID, Amount: decimal.NewFromInt(1), TxHash: "bogus"})
		assert.ErrorIs(t, err, apperrors.ErrTransactionNotConfirmed)
	})

	t.Run("rpc failure is an internal error", func(t *testing.T) {
		f := newDonationFixture(t, "100")
		svc := f.service(stubVerifier{err: errors.New("rpc down")}, nil)

		_, err := svc.Record(ctx, f.donor.ID, RecordDonationInput{CampaignID: f.campaign.ID, Amount: decimal.NewFromInt(1), TxHash: "0x03"})
		require.Error(t, err)
		assert.NotErrorIs(t, err, apperrors.ErrTransactionNotConfirmed)
	})

	t.Run("confirmed transaction fills block number", func(t *testing.T) {
		f := newDonationFixture(t, "100")
		svc := f.service(stubVerifier{receipt: chain.Receipt{Found: true, Success: true, BlockNumber: 99}}, nil)

		donation, err := svc.Record(ctx, f.donor.ID, RecordDonationInput{CampaignID: f.campaign.ID, Amount: decimal.NewFromInt(1), TxHash: "0x04"})
		require.NoError(t, err)
		require.NotNil(t, donation.BlockNumber)
		assert.Equal(t, uint64(99), *donation.BlockNumber)
	})
}

func TestDonationService_PublishFailureDoesNotFailRecord(t *testing.T) {
	f := newDonationFixture(t, "100")
	svc := f.service(nil, &recordingPublisher{err: errors.New("broker gone")})

	_, err := svc.Record(context.Background(), f.donor.ID, RecordDonationInput{
		CampaignID: f.campaign.ID,
		Amount:     decimal.NewFromInt(5),
		TxHash:     "0xpub",
	})
	assert.NoError(t, err)
}

func TestDonationService_ListAndGet(t *testing.T) {
	f := newDonationFixture(t, "1000")
	svc := f.service(nil, nil)
	ctx := context.Background()

	for _, hash := range []string{"0x1", "0x2", "0x3"} {
		_, err := svc.Record(ctx, f.donor.ID, RecordDonationInput{CampaignID: f.campaign.ID, Amount: decimal.NewFromInt(10), TxHash: hash})
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, DonationListFilter{CampaignID: f.campaign.ID, Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.Pages())
	require.Len(t, page.Donations, 1)
	assert.Equal(t, "0x1", page.Donations[0].TxHash)

	page, err = svc.List(ctx, DonationListFilter{DonorID: f.donor.ID + 100})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.Equal(t, DefaultDonationPageSize, page.Limit)

	var first model.Donation
	require.NoError(t, f.db.Where("tx_hash = ?", "0x1").First(&first).Error)
	got, err := svc.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.Campaign)
	assert.NotNil(t, got.Donor)

	_, err = svc.Get(ctx, 9999)
	assert.ErrorIs(t, err, apperrors.ErrDonationNotFound)
}
