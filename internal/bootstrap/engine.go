// Package bootstrap wires configuration into live chain adapters and the scan services.
package bootstrap

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bimakw/recipient-scanner/internal/application/services"
	"github.com/bimakw/recipient-scanner/internal/config"
	"github.com/bimakw/recipient-scanner/internal/domain/adapters"
	"github.com/bimakw/recipient-scanner/internal/domain/entities"
	"github.com/bimakw/recipient-scanner/internal/infrastructure/cache"
	"github.com/bimakw/recipient-scanner/internal/infrastructure/ethereum"
	"github.com/bimakw/recipient-scanner/internal/infrastructure/explorer"
	"github.com/bimakw/recipient-scanner/internal/infrastructure/metrics"
	"github.com/bimakw/recipient-scanner/internal/infrastructure/ratelimit"
	"github.com/bimakw/recipient-scanner/internal/infrastructure/starknet"
)

// Engine holds the services shared by the API server and the CLI
type Engine struct {
	Registry   *adapters.Registry
	Recipients *services.RecipientService
	Transfers  *services.TransferService
	// Cache is nil when Redis is not configured or unreachable
	Cache *cache.RedisCache

	closers []func()
}

// New builds the engine. Missing credentials never fail: the affected chains run in demo mode.
func New(cfg *config.Config, reg prometheus.Registerer, logger *zap.Logger) (*Engine, error) {
	e := &Engine{}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		client, err := cache.Connect(cfg.Redis, logger)
		if err != nil {
			logger.Warn("Failed to connect to Redis, running without cache", zap.Error(err))
		} else {
			redisClient = client
			e.Cache = cache.NewRedisCache(client, cfg.Redis.CacheTTL, logger)
			e.closers = append(e.closers, func() { _ = client.Close() })
		}
	}

	limiter := ratelimit.NewLimiter(cfg.RateLimit, redisClient, logger)
	logger.Info("Upstream rate limiter ready", zap.Stringer("limiter", limiter))
	scanMetrics := metrics.NewScanMetrics(reg)

	chains := config.DefaultChains()
	e.Registry = adapters.NewRegistry(chains)

	if err := e.wireEVM(cfg, chains, limiter, scanMetrics, logger); err != nil {
		e.Close()
		return nil, err
	}
	e.wireStarknet(cfg, chains, limiter, scanMetrics, logger)

	scanner := services.NewScanner(cfg.Scanner, cfg.Explorer.MaxPages, scanMetrics, logger)
	resolver := services.NewBalanceResolver(cfg.Aggregator, scanMetrics, logger)

	var symbols adapters.SymbolCache
	if e.Cache != nil {
		symbols = e.Cache
	}

	e.Recipients = services.NewRecipientService(e.Registry, scanner, resolver, symbols, scanMetrics, logger)
	e.Transfers = services.NewTransferService(e.Registry, scanner, scanMetrics, logger)

	for _, c := range e.Registry.Chains() {
		_, mode, _, _ := e.Registry.Resolve(c.ID)
		logger.Info("Chain configured", zap.String("chain", c.ID), zap.String("mode", string(mode)))
	}

	return e, nil
}

// wireEVM prefers the explorer API; a node URL alone serves its one chain through log scans
func (e *Engine) wireEVM(
	cfg *config.Config,
	chains []entities.ChainConfig,
	limiter adapters.RateLimiter,
	m *metrics.ScanMetrics,
	logger *zap.Logger,
) error {
	var node *ethereum.Client
	if cfg.Ethereum.RPCURL != "" {
		client, err := ethereum.NewClient(cfg.Ethereum, limiter, m, logger)
		if err != nil {
			return fmt.Errorf("failed to create EVM client: %w", err)
		}
		node = client
		e.closers = append(e.closers, client.Close)
	}

	var explorerClient *explorer.Client
	if cfg.Explorer.HasCredential() {
		explorerClient = explorer.NewClient(cfg.Explorer, limiter, m, logger)
	}

	for _, chain := range chains {
		if chain.Kind != entities.ChainKindEVM {
			continue
		}

		nodeServesChain := node != nil && chain.ID == cfg.Ethereum.RPCChain

		switch {
		case explorerClient != nil:
			var reader explorer.ContractReader
			if nodeServesChain {
				reader = ethereum.NewContractReader(node)
			}
			e.Registry.Register(chain.ID, explorer.NewAdapter(explorerClient, chain, cfg.Explorer.PageSize, reader, logger))
		case nodeServesChain:
			e.Registry.Register(chain.ID, ethereum.NewLogAdapter(node, chain, cfg.Ethereum.WorkerCount, logger))
		default:
			e.Registry.SetNotice(chain.ID, services.UnconfiguredNotice(chain))
		}
	}
	return nil
}

func (e *Engine) wireStarknet(
	cfg *config.Config,
	chains []entities.ChainConfig,
	limiter adapters.RateLimiter,
	m *metrics.ScanMetrics,
	logger *zap.Logger,
) {
	for _, chain := range chains {
		if chain.Kind != entities.ChainKindFelt {
			continue
		}

		if !cfg.Starknet.IsEnabled() {
			e.Registry.SetNotice(chain.ID, services.UnconfiguredNotice(chain))
			continue
		}

		handle, err := starknet.Dial(cfg.Starknet)
		if err != nil {
			logger.Warn("Starknet RPC unavailable, using demo data", zap.Error(err))
			e.Registry.SetNotice(chain.ID, fmt.Sprintf("Starknet RPC unavailable: %v. Showing demo data.", err))
			continue
		}
		e.closers = append(e.closers, handle.Close)

		client := starknet.NewClient(handle, cfg.Starknet, limiter, m, logger)
		e.Registry.Register(chain.ID, starknet.NewAdapter(client, chain, cfg.Scanner.EventsPageSize, logger))
	}
}

// Close releases connections in reverse order of creation
func (e *Engine) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
	e.closers = nil
}
