package ethereum

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bimakw/recipient-scanner/internal/domain/adapters"
	"github.com/bimakw/recipient-scanner/internal/domain/entities"
)

// FetchOutgoingTransfers scans [FromBlock, ToBlock] for Transfer logs emitted by the contract
// with the wallet as indexed sender. Each call covers the whole range, so NextCursor is always empty.
func (a *LogAdapter) FetchOutgoingTransfers(ctx context.Context, query adapters.TransferQuery) (*adapters.TransferPage, error) {
	if a.chain.IsNativeToken(query.Contract.Canonical) {
		return nil, fmt.Errorf("native coin history is not exposed by eth_getLogs: %w", entities.ErrUpstream)
	}

	filter := a.client.BuildFilterQuery(
		query.FromBlock,
		query.ToBlock,
		common.HexToAddress(query.Contract.Canonical),
		common.HexToAddress(query.Wallet.Canonical),
	)

	a.logger.Debug("Fetching logs",
		zap.Uint64("from_block", query.FromBlock),
		zap.Uint64("to_block", query.ToBlock),
	)

	logs, err := a.client.GetLogs(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch logs: %w", err)
	}

	if len(logs) == 0 {
		return &adapters.TransferPage{Transfers: []entities.Transfer{}}, nil
	}

	blockNumbers := make(map[uint64]struct{})
	for _, log := range logs {
		blockNumbers[log.BlockNumber] = struct{}{}
	}

	blockTimestamps, err := a.fetchBlockTimestamps(ctx, blockNumbers)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch block timestamps: %w", err)
	}

	transfers, failedIndices := ParseTransferLogs(logs, blockTimestamps)

	if len(failedIndices) > 0 {
		a.logger.Warn("Failed to parse some logs",
			zap.Int("failed_count", len(failedIndices)),
			zap.Int("total_logs", len(logs)),
		)
	}

	return &adapters.TransferPage{
		Transfers: transfers,
		Skipped:   len(failedIndices),
	}, nil
}

// fetchBlockTimestamps fetches timestamps for multiple blocks concurrently
func (a *LogAdapter) fetchBlockTimestamps(ctx context.Context, blockNumbers map[uint64]struct{}) (map[uint64]uint64, error) {
	timestamps := make(map[uint64]uint64, len(blockNumbers))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	for blockNum := range blockNumbers {
		blockNum := blockNum
		g.Go(func() error {
			timestamp, err := a.client.GetBlockTimestamp(ctx, blockNum)
			if err != nil {
				return fmt.Errorf("failed to get timestamp for block %d: %w", blockNum, err)
			}

			mu.Lock()
			timestamps[blockNum] = timestamp
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return timestamps, nil
}
