package ethereum

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/bimakw/recipient-scanner/internal/domain/adapters"
	"github.com/bimakw/recipient-scanner/internal/domain/entities"
)

// LogAdapter is the ChainAdapter for EVM chains served by a plain JSON-RPC node.
// Nodes do not index by address, so the scanner walks eth_getLogs backward in block chunks.
type LogAdapter struct {
	client  *Client
	reader  *ContractReader
	chain   entities.ChainConfig
	workers int
	logger  *zap.Logger
}

var _ adapters.ChainAdapter = (*LogAdapter)(nil)

// NewLogAdapter creates a log-scanning adapter
func NewLogAdapter(client *Client, chain entities.ChainConfig, workers int, logger *zap.Logger) *LogAdapter {
	if workers <= 0 {
		workers = 1
	}
	return &LogAdapter{
		client:  client,
		reader:  NewContractReader(client),
		chain:   chain,
		workers: workers,
		logger:  logger.With(zap.String("chain", chain.ID)),
	}
}

// Chain returns the chain configuration
func (a *LogAdapter) Chain() entities.ChainConfig {
	return a.chain
}

// Indexed is false: history is scanned in block ranges
func (a *LogAdapter) Indexed() bool {
	return false
}

// FetchHead returns the latest block number
func (a *LogAdapter) FetchHead(ctx context.Context) (uint64, error) {
	return a.client.GetLatestBlockNumber(ctx)
}

// FetchBalance returns holder's token balance, or native balance for the native sentinel
func (a *LogAdapter) FetchBalance(ctx context.Context, holder, contract entities.Address) (*big.Int, error) {
	if a.chain.IsNativeToken(contract.Canonical) {
		balance, err := a.client.BalanceAt(ctx, common.HexToAddress(holder.Canonical))
		if err != nil {
			return nil, fmt.Errorf("failed to fetch native balance: %w", err)
		}
		return balance, nil
	}
	return a.reader.BalanceOf(ctx, contract.Canonical, holder.Canonical)
}

// FetchBlockTimestamp returns a block's unix time
func (a *LogAdapter) FetchBlockTimestamp(ctx context.Context, blockNumber uint64) (uint64, error) {
	return a.client.GetBlockTimestamp(ctx, blockNumber)
}

// FetchTokenSymbol reads symbol() from the contract
func (a *LogAdapter) FetchTokenSymbol(ctx context.Context, contract entities.Address) (string, error) {
	if a.chain.IsNativeToken(contract.Canonical) {
		return a.chain.NativeCurrency, nil
	}
	return a.reader.TokenSymbol(ctx, contract.Canonical)
}
