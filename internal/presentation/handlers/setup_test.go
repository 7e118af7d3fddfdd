package handlers

import (
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/bimakw/recipient-scanner/internal/application/services"
	"github.com/bimakw/recipient-scanner/internal/config"
	"github.com/bimakw/recipient-scanner/internal/domain/adapters"
	"github.com/bimakw/recipient-scanner/internal/domain/entities"
	"github.com/bimakw/recipient-scanner/internal/testutil"
)

type testServer struct {
	router   chi.Router
	registry *adapters.Registry
	adapter  *testutil.MockChainAdapter
}

// setupTestServer wires a live "testchain" backed by a mock adapter and an unconfigured "demochain"
func setupTestServer() *testServer {
	logger := zap.NewNop()
	live := testutil.TestChain()
	demo := testutil.TestChain(testutil.WithChainID("demochain"))

	adapter := testutil.NewMockChainAdapter(live, true)
	adapter.Symbol = "USDT"

	registry := adapters.NewRegistry([]entities.ChainConfig{live, demo})
	registry.Register(live.ID, adapter)
	registry.SetNotice(demo.ID, services.UnconfiguredNotice(demo))

	scanner := services.NewScanner(config.ScannerConfig{
		MaxBlocks:        1000,
		ChunkSize:        100,
		MaxChunks:        10,
		EventsPageSize:   10,
		MaxPagesPerChunk: 5,
		ProgressEvery:    1,
	}, 5, nil, logger)
	resolver := services.NewBalanceResolver(config.AggregatorConfig{
		PartialEvery:       1,
		BalanceConcurrency: 1,
		CallTimeout:        time.Second,
	}, nil, logger)

	recipients := services.NewRecipientService(registry, scanner, resolver, nil, nil, logger)
	transfers := services.NewTransferService(registry, scanner, nil, logger)

	r := chi.NewRouter()
	NewChainHandler(registry).RegisterRoutes(r)
	NewRecipientHandler(recipients, logger).RegisterRoutes(r)
	NewTransferHandler(transfers, logger).RegisterRoutes(r)

	return &testServer{router: r, registry: registry, adapter: adapter}
}
