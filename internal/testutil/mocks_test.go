package testutil

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/bimakw/recipient-scanner/internal/domain/adapters"
	"github.com/bimakw/recipient-scanner/internal/domain/entities"
)

func TestMockChainAdapter_IndexedPaging(t *testing.T) {
	adapter := NewMockChainAdapter(TestChain(), true)
	adapter.AddTransfers(
		CreateTestTransfer(WithTxHash("0x1")),
		CreateTestTransfer(WithTxHash("0x2")),
		CreateTestTransfer(WithTxHash("0x3")),
	)

	ctx := context.Background()

	page, err := adapter.FetchOutgoingTransfers(ctx, adapters.TransferQuery{PageSize: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Transfers) != 2 || page.NextCursor != "2" {
		t.Fatalf("unexpected first page: %d transfers, cursor %q", len(page.Transfers), page.NextCursor)
	}

	page, err = adapter.FetchOutgoingTransfers(ctx, adapters.TransferQuery{PageSize: 2, Cursor: page.NextCursor})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Transfers) != 1 || page.NextCursor != "" {
		t.Errorf("unexpected last page: %d transfers, cursor %q", len(page.Transfers), page.NextCursor)
	}

	if adapter.CallCount("FetchOutgoingTransfers") != 2 {
		t.Errorf("expected 2 calls, got %d", adapter.CallCount("FetchOutgoingTransfers"))
	}
}

func TestMockChainAdapter_RangeFilter(t *testing.T) {
	adapter := NewMockChainAdapter(TestChain(), false)
	adapter.AddTransfers(
		CreateTestTransfer(WithBlockNumber(10)),
		CreateTestTransfer(WithBlockNumber(20)),
		CreateTestTransfer(WithBlockNumber(30)),
	)

	page, err := adapter.FetchOutgoingTransfers(context.Background(), adapters.TransferQuery{FromBlock: 15, ToBlock: 30})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Transfers) != 2 {
		t.Errorf("expected 2 transfers in range, got %d", len(page.Transfers))
	}
}

func TestMockChainAdapter_Defaults(t *testing.T) {
	adapter := NewMockChainAdapter(TestChain(), true)
	adapter.SetBalance(AliceAddress, big.NewInt(42))
	ctx := context.Background()

	balance, err := adapter.FetchBalance(ctx, entities.Address{Canonical: AliceAddress}, entities.Address{Canonical: TokenAddress})
	if err != nil || balance.Int64() != 42 {
		t.Errorf("expected 42, got %v (%v)", balance, err)
	}

	if _, err := adapter.FetchBlockTimestamp(ctx, 1); !errors.Is(err, entities.ErrUpstream) {
		t.Errorf("expected ErrUpstream for unknown block, got %v", err)
	}

	if _, err := adapter.FetchTokenSymbol(ctx, entities.Address{Canonical: TokenAddress}); !errors.Is(err, entities.ErrNotFound) {
		t.Errorf("expected ErrNotFound without symbol, got %v", err)
	}
}

func TestMockSymbolCache(t *testing.T) {
	cache := NewMockSymbolCache()
	ctx := context.Background()

	if _, ok := cache.GetSymbol(ctx, "bsc", TokenAddress); ok {
		t.Error("expected miss")
	}
	cache.SetSymbol(ctx, "bsc", TokenAddress, "USDT")
	if s, ok := cache.GetSymbol(ctx, "bsc", TokenAddress); !ok || s != "USDT" {
		t.Errorf("expected USDT hit, got %q %v", s, ok)
	}
}
