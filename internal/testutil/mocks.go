package testutil

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"sync"

	"github.com/bimakw/recipient-scanner/internal/domain/adapters"
	"github.com/bimakw/recipient-scanner/internal/domain/entities"
)

// MockCall records a single call made to a mock
type MockCall struct {
	Method string
	Args   []interface{}
}

// MockChainAdapter is a mock implementation of adapters.ChainAdapter.
// Without hooks it serves its transfers either page by page (indexed) or by block range.
type MockChainAdapter struct {
	mu         sync.Mutex
	chain      entities.ChainConfig
	indexed    bool
	transfers  []entities.Transfer
	Head       uint64
	Balances   map[string]*big.Int
	Timestamps map[uint64]uint64
	Symbol     string

	// Function hooks for custom behavior
	FetchHeadFunc              func(ctx context.Context) (uint64, error)
	FetchOutgoingTransfersFunc func(ctx context.Context, query adapters.TransferQuery) (*adapters.TransferPage, error)
	FetchBalanceFunc           func(ctx context.Context, holder, contract entities.Address) (*big.Int, error)
	FetchBlockTimestampFunc    func(ctx context.Context, blockNumber uint64) (uint64, error)
	FetchTokenSymbolFunc       func(ctx context.Context, contract entities.Address) (string, error)

	// Call tracking
	Calls []MockCall
}

var _ adapters.ChainAdapter = (*MockChainAdapter)(nil)

// NewMockChainAdapter creates a mock adapter for chain
func NewMockChainAdapter(chain entities.ChainConfig, indexed bool) *MockChainAdapter {
	return &MockChainAdapter{
		chain:      chain,
		indexed:    indexed,
		transfers:  make([]entities.Transfer, 0),
		Balances:   make(map[string]*big.Int),
		Timestamps: make(map[uint64]uint64),
		Calls:      make([]MockCall, 0),
	}
}

// AddTransfers adds transfers served by FetchOutgoingTransfers
func (m *MockChainAdapter) AddTransfers(transfers ...entities.Transfer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transfers = append(m.transfers, transfers...)
}

// SetBalance sets the balance returned for holder
func (m *MockChainAdapter) SetBalance(holder string, balance *big.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Balances[holder] = balance
}

// CallCount returns how many times method was called
func (m *MockChainAdapter) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.Calls {
		if c.Method == method {
			count++
		}
	}
	return count
}

func (m *MockChainAdapter) record(method string, args ...interface{}) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Method: method, Args: args})
	m.mu.Unlock()
}

func (m *MockChainAdapter) Chain() entities.ChainConfig {
	return m.chain
}

func (m *MockChainAdapter) Indexed() bool {
	return m.indexed
}

func (m *MockChainAdapter) FetchHead(ctx context.Context) (uint64, error) {
	m.record("FetchHead")
	if m.FetchHeadFunc != nil {
		return m.FetchHeadFunc(ctx)
	}
	return m.Head, nil
}

func (m *MockChainAdapter) FetchOutgoingTransfers(ctx context.Context, query adapters.TransferQuery) (*adapters.TransferPage, error) {
	m.record("FetchOutgoingTransfers", query)
	if m.FetchOutgoingTransfersFunc != nil {
		return m.FetchOutgoingTransfersFunc(ctx, query)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	matching := make([]entities.Transfer, 0, len(m.transfers))
	for _, t := range m.transfers {
		if !m.indexed && (t.BlockNumber < query.FromBlock || t.BlockNumber > query.ToBlock) {
			continue
		}
		matching = append(matching, t)
	}

	pageSize := query.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}

	start := 0
	if query.Cursor != "" {
		offset, err := strconv.Atoi(query.Cursor)
		if err != nil {
			return nil, fmt.Errorf("bad cursor %q", query.Cursor)
		}
		start = offset
	}
	if start > len(matching) {
		start = len(matching)
	}
	end := start + pageSize
	if end > len(matching) {
		end = len(matching)
	}

	next := ""
	if end < len(matching) {
		next = strconv.Itoa(end)
	}

	page := make([]entities.Transfer, end-start)
	copy(page, matching[start:end])
	return &adapters.TransferPage{Transfers: page, NextCursor: next}, nil
}

func (m *MockChainAdapter) FetchBalance(ctx context.Context, holder, contract entities.Address) (*big.Int, error) {
	m.record("FetchBalance", holder.Canonical, contract.Canonical)
	if m.FetchBalanceFunc != nil {
		return m.FetchBalanceFunc(ctx, holder, contract)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.Balances[holder.Canonical]; ok {
		return new(big.Int).Set(b), nil
	}
	return big.NewInt(0), nil
}

func (m *MockChainAdapter) FetchBlockTimestamp(ctx context.Context, blockNumber uint64) (uint64, error) {
	m.record("FetchBlockTimestamp", blockNumber)
	if m.FetchBlockTimestampFunc != nil {
		return m.FetchBlockTimestampFunc(ctx, blockNumber)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if ts, ok := m.Timestamps[blockNumber]; ok {
		return ts, nil
	}
	return 0, fmt.Errorf("block %d: %w", blockNumber, entities.ErrUpstream)
}

func (m *MockChainAdapter) FetchTokenSymbol(ctx context.Context, contract entities.Address) (string, error) {
	m.record("FetchTokenSymbol", contract.Canonical)
	if m.FetchTokenSymbolFunc != nil {
		return m.FetchTokenSymbolFunc(ctx, contract)
	}
	if m.Symbol == "" {
		return "", fmt.Errorf("no symbol: %w", entities.ErrNotFound)
	}
	return m.Symbol, nil
}

// MockSymbolCache is an in-memory adapters.SymbolCache
type MockSymbolCache struct {
	mu      sync.Mutex
	symbols map[string]string
	Sets    int
}

var _ adapters.SymbolCache = (*MockSymbolCache)(nil)

func NewMockSymbolCache() *MockSymbolCache {
	return &MockSymbolCache{symbols: make(map[string]string)}
}

func (m *MockSymbolCache) GetSymbol(ctx context.Context, chainID, contract string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.symbols[chainID+":"+contract]
	return s, ok
}

func (m *MockSymbolCache) SetSymbol(ctx context.Context, chainID, contract, symbol string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.symbols[chainID+":"+contract] = symbol
	m.Sets++
}

// MockHealthChecker is a mock implementation of HealthChecker
type MockHealthChecker struct {
	mu sync.Mutex

	Error error
	Calls []MockCall
}

func NewMockHealthChecker(healthy bool) *MockHealthChecker {
	var err error
	if !healthy {
		err = errors.New("health check failed")
	}
	return &MockHealthChecker{
		Error: err,
		Calls: make([]MockCall, 0),
	}
}

func (m *MockHealthChecker) HealthCheck(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, MockCall{Method: "HealthCheck", Args: nil})
	return m.Error
}
