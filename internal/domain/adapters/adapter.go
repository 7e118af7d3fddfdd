package adapters

import (
	"context"
	"math/big"

	"github.com/bimakw/recipient-scanner/internal/domain/entities"
)

// TransferQuery selects one page of raw transfer records.
// Indexed adapters ignore the block range and follow Cursor as a page number;
// range adapters scan [FromBlock, ToBlock] and follow Cursor as a continuation token.
type TransferQuery struct {
	Wallet    entities.Address
	Contract  entities.Address
	FromBlock uint64
	ToBlock   uint64
	Cursor    string
	PageSize  int
}

// TransferPage is one decoded page of transfers.
// An empty NextCursor means the query is exhausted.
type TransferPage struct {
	Transfers  []entities.Transfer
	Skipped    int
	NextCursor string
}

// ChainAdapter wraps a chain's native query primitives behind a uniform interface.
//
// Errors wrap entities.ErrUpstream, entities.ErrRateLimited or entities.ErrDecode.
// An empty result is returned as an empty page, never as an error.
type ChainAdapter interface {
	// Chain returns the configuration the adapter serves
	Chain() entities.ChainConfig

	// Indexed reports whether the upstream already indexes transfers by address.
	// Indexed adapters are paged; the rest are scanned backward in block chunks.
	Indexed() bool

	// FetchHead returns the latest block height
	FetchHead(ctx context.Context) (uint64, error)

	// FetchOutgoingTransfers returns a page of transfers for the contract.
	// Callers filter by sender; adapters may return transfers from other senders.
	FetchOutgoingTransfers(ctx context.Context, query TransferQuery) (*TransferPage, error)

	// FetchBalance returns holder's balance of contract (or the native coin)
	FetchBalance(ctx context.Context, holder, contract entities.Address) (*big.Int, error)

	// FetchBlockTimestamp returns the unix time of a block
	FetchBlockTimestamp(ctx context.Context, blockNumber uint64) (uint64, error)

	// FetchTokenSymbol returns the contract's symbol, best effort
	FetchTokenSymbol(ctx context.Context, contract entities.Address) (string, error)
}

// RateLimiter throttles outbound requests to a shared upstream
type RateLimiter interface {
	Wait(ctx context.Context, key string) error
}

// SymbolCache stores token symbols, which never change for a deployed contract
type SymbolCache interface {
	GetSymbol(ctx context.Context, chainID, contract string) (string, bool)
	SetSymbol(ctx context.Context, chainID, contract, symbol string)
}
