package services

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bimakw/recipient-scanner/internal/config"
	"github.com/bimakw/recipient-scanner/internal/domain/adapters"
	"github.com/bimakw/recipient-scanner/internal/domain/entities"
	"github.com/bimakw/recipient-scanner/internal/infrastructure/metrics"
)

// BalanceResolver turns aggregates into analyses by looking up each recipient's current balance
type BalanceResolver struct {
	partialEvery int
	concurrency  int
	callTimeout  time.Duration
	metrics      *metrics.ScanMetrics
	logger       *zap.Logger
}

// NewBalanceResolver creates a resolver from the aggregator settings
func NewBalanceResolver(cfg config.AggregatorConfig, m *metrics.ScanMetrics, logger *zap.Logger) *BalanceResolver {
	r := &BalanceResolver{
		partialEvery: cfg.PartialEvery,
		concurrency:  cfg.BalanceConcurrency,
		callTimeout:  cfg.CallTimeout,
		metrics:      m,
		logger:       logger,
	}
	if r.partialEvery <= 0 {
		r.partialEvery = 10
	}
	if r.concurrency <= 0 {
		r.concurrency = 1
	}
	if r.callTimeout <= 0 {
		r.callTimeout = 20 * time.Second
	}
	return r
}

// ResolveInput is the state handed to Resolve
type ResolveInput struct {
	Adapter        adapters.ChainAdapter
	Contract       entities.Address
	Recipients     []*entities.RecipientAggregate
	TotalTransfers int
	TokenSymbol    string
	WalletBalance  string
}

// Resolve looks up balances in batches and emits a snapshot after each batch.
// A failed lookup yields "0" for that recipient only. The output keeps the input order.
// Once ctx is done the remaining recipients stay pending and are not counted as failures.
func (r *BalanceResolver) Resolve(
	ctx context.Context,
	in ResolveInput,
	emit func(entities.PartialResults),
) ([]entities.RecipientAnalysis, int) {
	chain := in.Adapter.Chain()
	results := make([]entities.RecipientAnalysis, len(in.Recipients))
	for i, agg := range in.Recipients {
		results[i] = entities.RecipientAnalysis{
			Address:          agg.Address,
			TotalReceived:    agg.TotalReceived.String(),
			CurrentBalance:   entities.BalancePending,
			TransferCount:    agg.TransferCount,
			LastTransferTime: formatTransferTime(agg),
			ExplorerURL:      chain.AddressURL(agg.Address),
		}
	}

	snapshot := func() {
		if emit == nil {
			return
		}
		recipients := make([]entities.RecipientAnalysis, len(results))
		copy(recipients, results)
		emit(entities.PartialResults{
			Recipients:     recipients,
			TotalTransfers: in.TotalTransfers,
			TokenSymbol:    in.TokenSymbol,
			WalletBalance:  in.WalletBalance,
		})
	}

	snapshot()

	timestamps := &timestampCache{byBlock: make(map[uint64]string)}
	failed := 0

	for start := 0; start < len(results); start += r.partialEvery {
		if ctx.Err() != nil {
			r.logger.Info("Balance resolution cancelled",
				zap.String("chain", chain.ID),
				zap.Int("resolved", start),
				zap.Int("total", len(results)),
			)
			break
		}

		end := start + r.partialEvery
		if end > len(results) {
			end = len(results)
		}

		g := new(errgroup.Group)
		g.SetLimit(r.concurrency)

		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				r.resolveOne(ctx, in, in.Recipients[i], &results[i], timestamps)
				return nil
			})
		}
		_ = g.Wait()

		for i := start; i < end; i++ {
			if results[i].BalanceFailed {
				failed++
				r.metrics.IncBalanceFailure(chain.ID)
			}
		}

		r.logger.Debug("Balance batch resolved",
			zap.String("chain", chain.ID),
			zap.Int("resolved", end),
			zap.Int("total", len(results)),
		)
		snapshot()
	}

	return results, failed
}

// resolveOne fills the balance and, when only the block is known, the transfer time
func (r *BalanceResolver) resolveOne(
	ctx context.Context,
	in ResolveInput,
	agg *entities.RecipientAggregate,
	out *entities.RecipientAnalysis,
	timestamps *timestampCache,
) {
	if ctx.Err() != nil {
		return
	}

	holder := entities.Address{Canonical: agg.Address, Display: agg.Address, Kind: in.Contract.Kind}

	callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
	balance, err := in.Adapter.FetchBalance(callCtx, holder, in.Contract)
	cancel()

	if err != nil && ctx.Err() != nil {
		return
	}
	if err != nil {
		r.logger.Warn("Failed to fetch recipient balance",
			zap.String("recipient", agg.Address),
			zap.Error(err),
		)
		out.CurrentBalance = "0"
		out.BalanceFailed = true
	} else {
		out.CurrentBalance = balance.String()
	}

	if agg.LastTimestamp == 0 && agg.LastBlock > 0 {
		out.LastTransferTime = timestamps.resolve(ctx, r, in.Adapter, agg.LastBlock)
	}
}

type timestampCache struct {
	mu      sync.Mutex
	byBlock map[uint64]string
}

// resolve returns the block's unix time, or the block label when the lookup fails
func (c *timestampCache) resolve(ctx context.Context, r *BalanceResolver, adapter adapters.ChainAdapter, block uint64) string {
	c.mu.Lock()
	if v, ok := c.byBlock[block]; ok {
		c.mu.Unlock()
		return v
	}
	c.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
	ts, err := adapter.FetchBlockTimestamp(callCtx, block)
	cancel()

	value := blockLabel(block)
	if err != nil {
		r.logger.Debug("Failed to fetch block timestamp", zap.Uint64("block", block), zap.Error(err))
	} else {
		value = strconv.FormatUint(ts, 10)
	}

	c.mu.Lock()
	c.byBlock[block] = value
	c.mu.Unlock()
	return value
}

func formatTransferTime(agg *entities.RecipientAggregate) string {
	if agg.LastTimestamp > 0 {
		return strconv.FormatUint(agg.LastTimestamp, 10)
	}
	return blockLabel(agg.LastBlock)
}

func blockLabel(block uint64) string {
	return "block " + strconv.FormatUint(block, 10)
}
