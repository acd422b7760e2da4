package chain

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

//go:embed charity_campaign.abi.json
var defaultABI []byte

var (
	// ErrInvalidRecord is returned when the contract returns a record that fails validation.
	ErrInvalidRecord = errors.New("invalid on-chain campaign record")
	// ErrInvalidTxHash is returned for strings that are not 32-byte hex hashes.
	ErrInvalidTxHash = errors.New("invalid transaction hash")
)

// Campaign is the typed view of a getCampaign result. Amounts stay in wei.
type Campaign struct {
	OnChainID   uint64
	Title       string
	Description string
	Creator     string
	GoalWei     *big.Int
	CurrentWei  *big.Int
	CreatedAt   time.Time
	EndDate     time.Time
	IsActive    bool
}

// Receipt summarizes the outcome of a mined transaction.
type Receipt struct {
	Found       bool
	Success     bool
	BlockNumber uint64
}

// backend is the subset of ethclient.Client the contract client needs.
type backend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Client reads the charity campaign contract over JSON-RPC.
type Client struct {
	backend  backend
	rpc      *ethclient.Client
	contract common.Address
	abi      abi.ABI
}

// LoadABI parses the contract ABI from path, or the bundled ABI when path is empty.
func LoadABI(path string) (abi.ABI, error) {
	raw := defaultABI
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return abi.ABI{}, fmt.Errorf("read abi: %w", err)
		}
		raw = data
	}
	parsed, err := abi.JSON(bytes.NewReader(raw))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse abi: %w", err)
	}
	return parsed, nil
}

// Dial connects to the RPC endpoint and binds the contract at address.
func Dial(ctx context.Context, rpcURL, address string, contractABI abi.ABI) (*Client, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid contract address %q", address)
	}
	rpc, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rpcURL, err)
	}
	c := newClient(rpc, common.HexToAddress(address), contractABI)
	c.rpc = rpc
	return c, nil
}

func newClient(b backend, address common.Address, contractABI abi.ABI) *Client {
	return &Client{backend: b, contract: address, abi: contractABI}
}

// Address returns the bound contract address in checksum form.
func (c *Client) Address() string {
	return c.contract.Hex()
}

// Close releases the RPC connection.
func (c *Client) Close() {
	if c.rpc != nil {
		c.rpc.Close()
	}
}

// CampaignCount returns how many campaigns the contract holds.
func (c *Client) CampaignCount(ctx context.Context) (uint64, error) {
	out, err := c.call(ctx, "campaignCount")
	if err != nil {
		return 0, err
	}
	values, err := c.abi.Unpack("campaignCount", out)
	if err != nil {
		return 0, fmt.Errorf("decode campaignCount: %w", err)
	}
	if len(values) != 1 {
		return 0, fmt.Errorf("decode campaignCount: %d values", len(values))
	}
	count, ok := values[0].(*big.Int)
	if !ok || count == nil || !count.IsUint64() {
		return 0, fmt.Errorf("decode campaignCount: unexpected value %v", values[0])
	}
	return count.Uint64(), nil
}

// GetCampaign fetches and decodes campaign id.
func (c *Client) GetCampaign(ctx context.Context, id uint64) (*Campaign, error) {
	out, err := c.call(ctx, "getCampaign", new(big.Int).SetUint64(id))
	if err != nil {
		return nil, err
	}
	return decodeCampaign(c.abi, id, out)
}

// VerifyTransaction looks up the receipt of txHash. A transaction that is not
// mined yet yields a Receipt with Found false and no error.
func (c *Client) VerifyTransaction(ctx context.Context, txHash string) (Receipt, error) {
	if !isHexHash(txHash) {
		return Receipt{}, ErrInvalidTxHash
	}
	receipt, err := c.backend.TransactionReceipt(ctx, common.HexToHash(txHash))
	if errors.Is(err, ethereum.NotFound) {
		return Receipt{}, nil
	}
	if err != nil {
		return Receipt{}, fmt.Errorf("transaction receipt: %w", err)
	}
	result := Receipt{
		Found:   true,
		Success: receipt.Status == types.ReceiptStatusSuccessful,
	}
	if receipt.BlockNumber != nil {
		result.BlockNumber = receipt.BlockNumber.Uint64()
	}
	return result, nil
}

func (c *Client) call(ctx context.Context, method string, args ...interface{}) ([]byte, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	out, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &c.contract, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	return out, nil
}

// campaignOutput mirrors the named outputs of getCampaign.
type campaignOutput struct {
	Id            *big.Int
	Title         string
	Description   string
	Creator       common.Address
	GoalAmount    *big.Int
	CurrentAmount *big.Int
	CreatedAt     *big.Int
	EndDate       *big.Int
	IsActive      bool
}

func decodeCampaign(contractABI abi.ABI, requested uint64, out []byte) (*Campaign, error) {
	var raw campaignOutput
	if err := contractABI.UnpackIntoInterface(&raw, "getCampaign", out); err != nil {
		return nil, fmt.Errorf("decode getCampaign(%d): %w", requested, err)
	}

	switch {
	case raw.Id == nil || !raw.Id.IsUint64():
		return nil, fmt.Errorf("%w: missing id", ErrInvalidRecord)
	case raw.Id.Uint64() != requested:
		return nil, fmt.Errorf("%w: asked for %d, got %d", ErrInvalidRecord, requested, raw.Id.Uint64())
	case raw.GoalAmount == nil || raw.GoalAmount.Sign() < 0:
		return nil, fmt.Errorf("%w: bad goal amount", ErrInvalidRecord)
	case raw.CurrentAmount == nil || raw.CurrentAmount.Sign() < 0:
		return nil, fmt.Errorf("%w: bad current amount", ErrInvalidRecord)
	case raw.EndDate == nil || !raw.EndDate.IsInt64():
		return nil, fmt.Errorf("%w: bad end date", ErrInvalidRecord)
	case strings.TrimSpace(raw.Title) == "":
		return nil, fmt.Errorf("%w: empty title", ErrInvalidRecord)
	}

	campaign := &Campaign{
		OnChainID:   raw.Id.Uint64(),
		Title:       raw.Title,
		Description: raw.Description,
		Creator:     raw.Creator.Hex(),
		GoalWei:     raw.GoalAmount,
		CurrentWei:  raw.CurrentAmount,
		EndDate:     time.Unix(raw.EndDate.Int64(), 0).UTC(),
		IsActive:    raw.IsActive,
	}
	if raw.CreatedAt != nil && raw.CreatedAt.IsInt64() {
		campaign.CreatedAt = time.Unix(raw.CreatedAt.Int64(), 0).UTC()
	}
	return campaign, nil
}

func isHexHash(s string) bool {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return false
	}
	s = s[2:]
	if len(s) != 2*common.HashLength {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}
