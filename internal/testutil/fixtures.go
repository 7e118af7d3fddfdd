package testutil

import (
	"math/big"

	"github.com/bimakw/recipient-scanner/internal/domain/entities"
)

// Common test addresses (canonical EVM form)
const (
	TokenAddress = "0x55d398326f99059ff775485246999027b3197955"
	NativeToken  = "0x0000000000000000000000000000000000000802"
	WalletAddr   = "0x1111111111111111111111111111111111111111"
	AliceAddress = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	BobAddress   = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	CharlieAddr  = "0xcccccccccccccccccccccccccccccccccccccccc"
	OtherSender  = "0x9999999999999999999999999999999999999999"
)

// TestChain returns an EVM chain configuration
func TestChain(opts ...ChainOption) entities.ChainConfig {
	c := entities.ChainConfig{
		ID:                 "testchain",
		Name:               "Test Chain",
		Kind:               entities.ChainKindEVM,
		ChainID:            "1337",
		ExplorerURL:        "https://explorer.test",
		NativeCurrency:     "TEST",
		NativeTokenAddress: NativeToken,
		DefaultContract:    TokenAddress,
		DemoSymbol:         "DEMO",
	}

	for _, opt := range opts {
		opt(&c)
	}

	return c
}

type ChainOption func(*entities.ChainConfig)

func WithChainID(id string) ChainOption {
	return func(c *entities.ChainConfig) {
		c.ID = id
	}
}

func WithMinTransferAmount(v *big.Int) ChainOption {
	return func(c *entities.ChainConfig) {
		c.MinTransferAmount = v
	}
}

func WithExcludedRecipients(addrs ...string) ChainOption {
	return func(c *entities.ChainConfig) {
		c.ExcludedRecipients = addrs
	}
}

// CreateTestTransfer creates a transfer from WalletAddr to AliceAddress with default values
func CreateTestTransfer(opts ...TransferOption) entities.Transfer {
	t := entities.NewTransfer(
		"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		WalletAddr,
		AliceAddress,
		big.NewInt(1000000),
		12345678,
		1705314600,
	)

	for _, opt := range opts {
		opt(&t)
	}

	return t
}

type TransferOption func(*entities.Transfer)

func WithTxHash(hash string) TransferOption {
	return func(t *entities.Transfer) {
		t.TxHash = hash
	}
}

func WithFrom(addr string) TransferOption {
	return func(t *entities.Transfer) {
		t.From = addr
	}
}

func WithTo(addr string) TransferOption {
	return func(t *entities.Transfer) {
		t.To = addr
	}
}

func WithValue(v *big.Int) TransferOption {
	return func(t *entities.Transfer) {
		t.Value = v
		t.ValueString = v.String()
	}
}

func WithBlockNumber(num uint64) TransferOption {
	return func(t *entities.Transfer) {
		t.BlockNumber = num
	}
}

func WithTimestamp(ts uint64) TransferOption {
	return func(t *entities.Transfer) {
		t.Timestamp = ts
	}
}

func WithTokenSymbol(symbol string) TransferOption {
	return func(t *entities.Transfer) {
		t.TokenSymbol = symbol
	}
}
