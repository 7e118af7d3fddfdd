package starknet

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"github.com/bimakw/recipient-scanner/internal/domain/adapters"
	"github.com/bimakw/recipient-scanner/internal/domain/entities"
)

// Adapter is the ChainAdapter for Starknet. Transfer history is read from
// starknet_getEvents over bounded block ranges; balances and symbols via starknet_call.
type Adapter struct {
	client   *Client
	chain    entities.ChainConfig
	pageSize int
	logger   *zap.Logger
}

var _ adapters.ChainAdapter = (*Adapter)(nil)

// NewAdapter creates a Starknet adapter
func NewAdapter(client *Client, chain entities.ChainConfig, pageSize int, logger *zap.Logger) *Adapter {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Adapter{
		client:   client,
		chain:    chain,
		pageSize: pageSize,
		logger:   logger.With(zap.String("chain", chain.ID)),
	}
}

// Chain returns the chain configuration
func (a *Adapter) Chain() entities.ChainConfig {
	return a.chain
}

// Indexed is false: events are scanned in block ranges
func (a *Adapter) Indexed() bool {
	return false
}

// FetchHead returns the latest block number
func (a *Adapter) FetchHead(ctx context.Context) (uint64, error) {
	head, err := a.client.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch head: %w", err)
	}
	return head, nil
}

// FetchOutgoingTransfers returns one page of Transfer events emitted by the contract in the range.
// Events are not filtered by sender because the non-indexed layout carries it in data.
func (a *Adapter) FetchOutgoingTransfers(ctx context.Context, query adapters.TransferQuery) (*adapters.TransferPage, error) {
	pageSize := query.PageSize
	if pageSize <= 0 {
		pageSize = a.pageSize
	}

	chunk, err := a.client.GetEvents(ctx, eventFilter{
		FromBlock:         blockID{BlockNumber: query.FromBlock},
		ToBlock:           blockID{BlockNumber: query.ToBlock},
		Address:           query.Contract.Canonical,
		Keys:              [][]string{{feltHex(transferSelector)}},
		ChunkSize:         pageSize,
		ContinuationToken: query.Cursor,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch Transfer events %d-%d: %w", query.FromBlock, query.ToBlock, err)
	}

	transfers := make([]entities.Transfer, 0, len(chunk.Events))
	skipped := 0
	for _, ev := range chunk.Events {
		transfer := decodeTransferEvent(ev)
		if transfer == nil {
			skipped++
			continue
		}
		transfers = append(transfers, *transfer)
	}

	return &adapters.TransferPage{
		Transfers:  transfers,
		Skipped:    skipped,
		NextCursor: chunk.ContinuationToken,
	}, nil
}

// FetchBalance calls balanceOf(holder) and decodes the u256 result
func (a *Adapter) FetchBalance(ctx context.Context, holder, contract entities.Address) (*big.Int, error) {
	result, err := a.client.Call(ctx, contract.Canonical, feltHex(balanceOfSelector), []string{holder.Canonical})
	if err != nil {
		return nil, fmt.Errorf("failed to call balanceOf for %s: %w", holder.Canonical, err)
	}
	balance, err := decodeBalance(result)
	if err != nil {
		return nil, fmt.Errorf("failed to decode balance of %s: %w", holder.Canonical, err)
	}
	return balance, nil
}

// FetchBlockTimestamp returns a block's unix time
func (a *Adapter) FetchBlockTimestamp(ctx context.Context, blockNumber uint64) (uint64, error) {
	return a.client.BlockTimestamp(ctx, blockNumber)
}

// FetchTokenSymbol calls symbol() and decodes the packed string, falling back to UnknownSymbol
func (a *Adapter) FetchTokenSymbol(ctx context.Context, contract entities.Address) (string, error) {
	result, err := a.client.Call(ctx, contract.Canonical, feltHex(symbolSelector), nil)
	if err != nil {
		return "", fmt.Errorf("failed to call symbol: %w", err)
	}

	var raw []string
	if err := json.Unmarshal(result, &raw); err != nil {
		return "", fmt.Errorf("bad symbol result: %v: %w", err, entities.ErrDecode)
	}

	felts := make([]*big.Int, 0, len(raw))
	for _, r := range raw {
		v, ok := parseFelt(r)
		if !ok {
			return "", fmt.Errorf("bad symbol felt %q: %w", r, entities.ErrDecode)
		}
		felts = append(felts, v)
	}

	symbol := decodeSymbol(felts)
	if symbol == UnknownSymbol {
		a.logger.Debug("Could not decode token symbol", zap.String("contract", contract.Canonical), zap.Strings("raw", raw))
	}
	return symbol, nil
}
