package chain

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testContract = common.HexToAddress("0x00000000000000000000000000000000000000c0")

type fakeBackend struct {
	abi      abi.ABI
	results  map[string][]byte
	receipts map[common.Hash]*types.Receipt
	callErr  error
	lastMsg  ethereum.CallMsg
}

func (f *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.lastMsg = msg
	if f.callErr != nil {
		return nil, f.callErr
	}
	for name, method := range f.abi.Methods {
		if bytes.HasPrefix(msg.Data, method.ID) {
			return f.results[name], nil
		}
	}
	return nil, errors.New("unknown method")
}

func (f *fakeBackend) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	receipt, ok := f.receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return receipt, nil
}

func loadTestABI(t *testing.T) abi.ABI {
	t.Helper()
	contractABI, err := LoadABI("")
	require.NoError(t, err)
	return contractABI
}

func packCampaign(t *testing.T, contractABI abi.ABI, id int64, title string, goal, current *big.Int, endDate int64, active bool) []byte {
	t.Helper()
	out, err := contractABI.Methods["getCampaign"].Outputs.Pack(
		big.NewInt(id),
		title,
		"restored description",
		common.HexToAddress("0x1111111111111111111111111111111111111111"),
		goal,
		current,
		big.NewInt(1700000000),
		big.NewInt(endDate),
		active,
	)
	require.NoError(t, err)
	return out
}

func TestLoadABI_BundledMethods(t *testing.T) {
	contractABI := loadTestABI(t)

	for _, name := range []string{"campaignCount", "getCampaign", "createCampaign", "donate"} {
		_, ok := contractABI.Methods[name]
		assert.True(t, ok, "missing method %s", name)
	}
}

func TestLoadABI_MissingFile(t *testing.T) {
	_, err := LoadABI("/nonexistent/abi.json")
	assert.Error(t, err)
}

func TestCampaignCount(t *testing.T) {
	contractABI := loadTestABI(t)
	out, err := contractABI.Methods["campaignCount"].Outputs.Pack(big.NewInt(3))
	require.NoError(t, err)

	backend := &fakeBackend{abi: contractABI, results: map[string][]byte{"campaignCount": out}}
	client := newClient(backend, testContract, contractABI)

	count, err := client.CampaignCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
	require.NotNil(t, backend.lastMsg.To)
	assert.Equal(t, testContract, *backend.lastMsg.To)
}

func TestCampaignCount_CallError(t *testing.T) {
	contractABI := loadTestABI(t)
	backend := &fakeBackend{abi: contractABI, callErr: errors.New("rpc down")}
	client := newClient(backend, testContract, contractABI)

	_, err := client.CampaignCount(context.Background())
	assert.ErrorContains(t, err, "rpc down")
}

func TestGetCampaign_Decodes(t *testing.T) {
	contractABI := loadTestABI(t)
	goal, _ := new(big.Int).SetString("2000000000000000000", 10)
	current, _ := new(big.Int).SetString("500000000000000000", 10)
	backend := &fakeBackend{abi: contractABI, results: map[string][]byte{
		"getCampaign": packCampaign(t, contractABI, 2, "Clean Water", goal, current, 1800000000, true),
	}}
	client := newClient(backend, testContract, contractABI)

	campaign, err := client.GetCampaign(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), campaign.OnChainID)
	assert.Equal(t, "Clean Water", campaign.Title)
	assert.Equal(t, "restored description", campaign.Description)
	assert.Equal(t, "0x1111111111111111111111111111111111111111", campaign.Creator)
	assert.Equal(t, 0, campaign.GoalWei.Cmp(goal))
	assert.Equal(t, 0, campaign.CurrentWei.Cmp(current))
	assert.Equal(t, time.Unix(1800000000, 0).UTC(), campaign.EndDate)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), campaign.CreatedAt)
	assert.True(t, campaign.IsActive)
}

func TestGetCampaign_RejectsMismatchedID(t *testing.T) {
	contractABI := loadTestABI(t)
	backend := &fakeBackend{abi: contractABI, results: map[string][]byte{
		"getCampaign": packCampaign(t, contractABI, 7, "Other", big.NewInt(1), big.NewInt(0), 1800000000, true),
	}}
	client := newClient(backend, testContract, contractABI)

	_, err := client.GetCampaign(context.Background(), 2)
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestGetCampaign_RejectsEmptyTitle(t *testing.T) {
	contractABI := loadTestABI(t)
	backend := &fakeBackend{abi: contractABI, results: map[string][]byte{
		"getCampaign": packCampaign(t, contractABI, 1, "  ", big.NewInt(1), big.NewInt(0), 1800000000, false),
	}}
	client := newClient(backend, testContract, contractABI)

	_, err := client.GetCampaign(context.Background(), 1)
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestGetCampaign_RejectsGarbage(t *testing.T) {
	contractABI := loadTestABI(t)
	backend := &fakeBackend{abi: contractABI, results: map[string][]byte{
		"getCampaign": {0x01, 0x02},
	}}
	client := newClient(backend, testContract, contractABI)

	_, err := client.GetCampaign(context.Background(), 1)
	assert.Error(t, err)
}

func TestVerifyTransaction(t *testing.T) {
	contractABI := loadTestABI(t)
	okHash := common.HexToHash("0xaa")
	failedHash := common.HexToHash("0xbb")
	backend := &fakeBackend{abi: contractABI, receipts: map[common.Hash]*types.Receipt{
		okHash:     {Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(42)},
		failedHash: {Status: types.ReceiptStatusFailed, BlockNumber: big.NewInt(43)},
	}}
	client := newClient(backend, testContract, contractABI)
	ctx := context.Background()

	receipt, err := client.VerifyTransaction(ctx, okHash.Hex())
	require.NoError(t, err)
	assert.True(t, receipt.Found)
	assert.True(t, receipt.Success)
	assert.Equal(t, uint64(42), receipt.BlockNumber)

	receipt, err = client.VerifyTransaction(ctx, failedHash.Hex())
	require.NoError(t, err)
	assert.True(t, receipt.Found)
	assert.False(t, receipt.Success)

	receipt, err = client.VerifyTransaction(ctx, common.HexToHash("0xcc").Hex())
	require.NoError(t, err)
	assert.False(t, receipt.Found)

	_, err = client.VerifyTransaction(ctx, "0xabc")
	assert.ErrorIs(t, err, ErrInvalidTxHash)
}

func TestDial_InvalidAddress(t *testing.T) {
	_, err := Dial(context.Background(), "http://127.0.0.1:1", "not-an-address", loadTestABI(t))
	assert.Error(t, err)
}
