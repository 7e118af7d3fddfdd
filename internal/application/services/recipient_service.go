package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bimakw/recipient-scanner/internal/domain/adapters"
	"github.com/bimakw/recipient-scanner/internal/domain/address"
	"github.com/bimakw/recipient-scanner/internal/domain/entities"
	"github.com/bimakw/recipient-scanner/internal/infrastructure/metrics"
)

// UnknownSymbol is shown when a token symbol cannot be resolved
const UnknownSymbol = "TOKEN"

const scanSteps = 5

// ScanRequest identifies a recipient analysis
type ScanRequest struct {
	ChainID  string
	Wallet   string
	Contract string // empty selects the chain's default contract
	// Abort ends the history walk early; the result is then marked truncated
	Abort <-chan struct{}
}

// RecipientService runs recipient analyses against the configured chains
type RecipientService struct {
	registry *adapters.Registry
	scanner  *Scanner
	resolver *BalanceResolver
	symbols  adapters.SymbolCache
	metrics  *metrics.ScanMetrics
	logger   *zap.Logger
}

// NewRecipientService creates a new recipient service. symbols may be nil.
func NewRecipientService(
	registry *adapters.Registry,
	scanner *Scanner,
	resolver *BalanceResolver,
	symbols adapters.SymbolCache,
	m *metrics.ScanMetrics,
	logger *zap.Logger,
) *RecipientService {
	return &RecipientService{
		registry: registry,
		scanner:  scanner,
		resolver: resolver,
		symbols:  symbols,
		metrics:  m,
		logger:   logger,
	}
}

// ScanRecipients analyzes who received tokens from the wallet.
// It returns an error only for an unknown chain or a malformed address; every other
// failure degrades to the demo dataset with Error set.
func (s *RecipientService) ScanRecipients(ctx context.Context, req ScanRequest, observer Observer) (*entities.ScanResult, error) {
	chain, wallet, contract, err := resolveTarget(s.registry, req.ChainID, req.Wallet, req.Contract)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rep := newReporter(observer, scanSteps)

	adapter, mode, notice, err := s.registry.Resolve(chain.ID)
	if err != nil {
		return nil, err
	}

	if mode == entities.ModeUnconfigured {
		rep.progress(scanSteps, "No live data source configured, showing demo data")
		result := DemoScanResult(chain)
		result.Error = notice
		s.metrics.ObserveScan(chain.ID, string(entities.ModeUnconfigured), time.Since(start))
		return result, nil
	}

	result, err := s.scanLive(ctx, adapter, chain, wallet, contract, req.Abort, rep)
	if err != nil {
		s.logger.Error("Recipient scan failed, falling back to demo data",
			zap.String("chain", chain.ID),
			zap.String("wallet", wallet.Canonical),
			zap.String("contract", contract.Canonical),
			zap.Error(err),
		)
		rep.progress(scanSteps, "Live query failed, showing demo data")
		result = DemoScanResult(chain)
		result.Error = fmt.Sprintf("Failed to fetch transfers: %v. Showing demo data.", err)
		s.metrics.ObserveScan(chain.ID, string(entities.ModeDemoFallback), time.Since(start))
		return result, nil
	}

	s.metrics.ObserveScan(chain.ID, string(entities.ModeLive), time.Since(start))
	s.logger.Info("Recipient scan completed",
		zap.String("chain", chain.ID),
		zap.String("wallet", wallet.Canonical),
		zap.Int("recipients", len(result.Recipients)),
		zap.Int("transfers", result.TotalTransfers),
		zap.Bool("truncated", result.Truncated),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}

func (s *RecipientService) scanLive(
	ctx context.Context,
	adapter adapters.ChainAdapter,
	chain entities.ChainConfig,
	wallet, contract entities.Address,
	abort <-chan struct{},
	rep *reporter,
) (*entities.ScanResult, error) {
	rep.progress(1, fmt.Sprintf("Scanning %s transfers from %s", chain.Name, address.Short(wallet.Canonical)))

	agg := NewAggregator()
	firstSymbol := ""
	stats, err := s.scanner.Scan(ctx, ScanTarget{
		Adapter:   adapter,
		Wallet:    wallet,
		Contract:  contract,
		MinAmount: chain.MinTransferAmount,
		Abort:     abort,
	}, func(msg string) {
		rep.progress(2, msg)
	}, func(t entities.Transfer) bool {
		if firstSymbol == "" {
			firstSymbol = t.TokenSymbol
		}
		agg.Add(t)
		return true
	})
	if err != nil {
		return nil, err
	}

	rep.progress(3, fmt.Sprintf("Found %d transfers to %d recipients, resolving token metadata", agg.TotalTransfers(), agg.Len()))

	excluded := make([]string, 0, len(chain.ExcludedRecipients))
	for _, raw := range chain.ExcludedRecipients {
		excluded = append(excluded, address.Canonical(raw, chain.Kind))
	}
	if removed := agg.Exclude(excluded); removed > 0 {
		s.logger.Debug("Excluded configured recipients", zap.String("chain", chain.ID), zap.Int("transfers", removed))
	}

	symbol := s.tokenSymbol(ctx, adapter, chain, contract, firstSymbol)
	walletBalance := s.walletBalance(ctx, adapter, wallet, contract)

	result := &entities.ScanResult{
		Chain:          chain.ID,
		Recipients:     []entities.RecipientAnalysis{},
		TotalTransfers: agg.TotalTransfers(),
		TokenSymbol:    symbol,
		WalletBalance:  walletBalance,
		Truncated:      stats.Truncated,
		SkippedEvents:  stats.Skipped,
	}

	if agg.Len() == 0 {
		rep.progress(scanSteps, "No outgoing transfers found")
		result.Message = MessageNoTransfers
		return result, nil
	}

	rep.progress(4, fmt.Sprintf("Resolving balances for %d recipients", agg.Len()))

	recipients, failed := s.resolver.Resolve(ctx, ResolveInput{
		Adapter:        adapter,
		Contract:       contract,
		Recipients:     agg.Sorted(),
		TotalTransfers: agg.TotalTransfers(),
		TokenSymbol:    symbol,
		WalletBalance:  walletBalance,
	}, rep.partial)

	result.Recipients = recipients
	result.FailedBalances = failed
	if ctx.Err() != nil {
		result.Truncated = true
	}

	rep.progress(scanSteps, fmt.Sprintf("Analysis complete: %d recipients", len(recipients)))
	return result, nil
}

// tokenSymbol resolves the contract's symbol through the cache, the scanned rows and the adapter.
// It never fails.
func (s *RecipientService) tokenSymbol(
	ctx context.Context,
	adapter adapters.ChainAdapter,
	chain entities.ChainConfig,
	contract entities.Address,
	fromRows string,
) string {
	if chain.IsNativeToken(contract.Canonical) {
		return chain.NativeCurrency
	}

	if s.symbols != nil {
		if cached, ok := s.symbols.GetSymbol(ctx, chain.ID, contract.Canonical); ok {
			return cached
		}
	}

	symbol := strings.TrimSpace(fromRows)
	if symbol == "" {
		fetched, err := adapter.FetchTokenSymbol(ctx, contract)
		if err != nil {
			if !errors.Is(err, entities.ErrNotFound) && ctx.Err() == nil {
				s.logger.Warn("Failed to fetch token symbol",
					zap.String("contract", contract.Canonical),
					zap.Error(err),
				)
			}
			return UnknownSymbol
		}
		symbol = fetched
	}

	if symbol == "" || symbol == UnknownSymbol {
		return UnknownSymbol
	}
	if s.symbols != nil {
		s.symbols.SetSymbol(ctx, chain.ID, contract.Canonical, symbol)
	}
	return symbol
}

// walletBalance returns the wallet's own balance, or "" when it cannot be read
func (s *RecipientService) walletBalance(ctx context.Context, adapter adapters.ChainAdapter, wallet, contract entities.Address) string {
	balance, err := adapter.FetchBalance(ctx, wallet, contract)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("Failed to fetch wallet balance",
				zap.String("wallet", wallet.Canonical),
				zap.Error(err),
			)
		}
		return ""
	}
	return balance.String()
}

// resolveTarget validates the chain and both addresses before any network call
func resolveTarget(
	registry *adapters.Registry,
	chainID, rawWallet, rawContract string,
) (entities.ChainConfig, entities.Address, entities.Address, error) {
	chain, ok := registry.Chain(chainID)
	if !ok {
		return entities.ChainConfig{}, entities.Address{}, entities.Address{},
			fmt.Errorf("chain %q: %w", chainID, entities.ErrUnsupportedChain)
	}

	wallet, err := address.Normalize(rawWallet, chain.Kind)
	if err != nil {
		return chain, entities.Address{}, entities.Address{}, err
	}

	if strings.TrimSpace(rawContract) == "" {
		rawContract = chain.DefaultContract
	}
	contract, err := address.Normalize(rawContract, chain.Kind)
	if err != nil {
		return chain, entities.Address{}, entities.Address{}, err
	}

	return chain, wallet, contract, nil
}
