package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/bimakw/recipient-scanner/internal/domain/adapters"
	"github.com/bimakw/recipient-scanner/internal/domain/entities"
	"github.com/bimakw/recipient-scanner/internal/infrastructure/metrics"
)

const (
	DefaultTransferLimit = 100
	MaxTransferLimit     = 1000
)

// ListRequest identifies an outgoing transfer listing
type ListRequest struct {
	ChainID  string
	Wallet   string
	Contract string // empty selects the chain's default contract
	Limit    int
	Abort    <-chan struct{}
}

// TransferService lists a wallet's outgoing transfers
type TransferService struct {
	registry *adapters.Registry
	scanner  *Scanner
	metrics  *metrics.ScanMetrics
	logger   *zap.Logger
}

// NewTransferService creates a new transfer service
func NewTransferService(
	registry *adapters.Registry,
	scanner *Scanner,
	m *metrics.ScanMetrics,
	logger *zap.Logger,
) *TransferService {
	return &TransferService{
		registry: registry,
		scanner:  scanner,
		metrics:  m,
		logger:   logger,
	}
}

// ListOutgoing returns up to Limit outgoing transfers, newest first.
// Like ScanRecipients it only fails on an unknown chain or malformed address.
func (s *TransferService) ListOutgoing(ctx context.Context, req ListRequest) (*entities.TransferListResult, error) {
	chain, wallet, contract, err := resolveTarget(s.registry, req.ChainID, req.Wallet, req.Contract)
	if err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = DefaultTransferLimit
	}
	if limit > MaxTransferLimit {
		limit = MaxTransferLimit
	}

	adapter, mode, notice, err := s.registry.Resolve(chain.ID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	if mode == entities.ModeUnconfigured {
		s.metrics.ObserveScan(chain.ID, string(entities.ModeUnconfigured), time.Since(start))
		return demoTransferList(chain, wallet, limit, notice), nil
	}

	transfers := make([]entities.Transfer, 0, limit)
	stats, err := s.scanner.Scan(ctx, ScanTarget{
		Adapter:  adapter,
		Wallet:   wallet,
		Contract: contract,
		Abort:    req.Abort,
	}, nil, func(t entities.Transfer) bool {
		transfers = append(transfers, t)
		return len(transfers) < limit
	})
	if err != nil {
		s.logger.Error("Transfer listing failed, falling back to demo data",
			zap.String("chain", chain.ID),
			zap.String("wallet", wallet.Canonical),
			zap.Error(err),
		)
		s.metrics.ObserveScan(chain.ID, string(entities.ModeDemoFallback), time.Since(start))
		return demoTransferList(chain, wallet, limit, fmt.Sprintf("Failed to fetch transfers: %v. Showing demo data.", err)), nil
	}

	sort.SliceStable(transfers, func(i, j int) bool {
		return transfers[i].BlockNumber > transfers[j].BlockNumber
	})
	linkTransactions(chain, transfers)

	s.metrics.ObserveScan(chain.ID, string(entities.ModeLive), time.Since(start))
	s.logger.Debug("Listed outgoing transfers",
		zap.String("chain", chain.ID),
		zap.String("wallet", wallet.Canonical),
		zap.Int("count", len(transfers)),
	)

	return &entities.TransferListResult{
		Chain:     chain.ID,
		Transfers: transfers,
		Truncated: stats.Truncated || stats.Stopped,
	}, nil
}

func demoTransferList(chain entities.ChainConfig, wallet entities.Address, limit int, notice string) *entities.TransferListResult {
	transfers := DemoTransfers(chain, wallet.Canonical)
	if len(transfers) > limit {
		transfers = transfers[:limit]
	}
	linkTransactions(chain, transfers)
	return &entities.TransferListResult{
		Chain:     chain.ID,
		Transfers: transfers,
		IsDemo:    true,
		Error:     notice,
	}
}

func linkTransactions(chain entities.ChainConfig, transfers []entities.Transfer) {
	for i := range transfers {
		transfers[i].ExplorerURL = chain.TransactionURL(transfers[i].TxHash)
	}
}
