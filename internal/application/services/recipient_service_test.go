package services

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bimakw/recipient-scanner/internal/config"
	"github.com/bimakw/recipient-scanner/internal/domain/adapters"
	"github.com/bimakw/recipient-scanner/internal/domain/entities"
	"github.com/bimakw/recipient-scanner/internal/testutil"
)

func setupRecipientTest(chain entities.ChainConfig, indexed bool) (*RecipientService, *testutil.MockChainAdapter, *testutil.MockSymbolCache) {
	adapter := testutil.NewMockChainAdapter(chain, indexed)
	cache := testutil.NewMockSymbolCache()

	registry := adapters.NewRegistry([]entities.ChainConfig{chain})
	registry.Register(chain.ID, adapter)

	scanner := NewScanner(testScannerConfig(), 10, nil, zap.NewNop())
	resolver := NewBalanceResolver(config.AggregatorConfig{PartialEvery: 2, BalanceConcurrency: 1, CallTimeout: time.Second}, nil, zap.NewNop())

	return NewRecipientService(registry, scanner, resolver, cache, nil, zap.NewNop()), adapter, cache
}

type recordingObserver struct {
	progress []entities.ScanProgress
	partials []entities.PartialResults
}

func (o *recordingObserver) OnProgress(p entities.ScanProgress) {
	o.progress = append(o.progress, p)
}

func (o *recordingObserver) OnPartialResults(p entities.PartialResults) {
	o.partials = append(o.partials, p)
}

func TestScanRecipients_Live(t *testing.T) {
	svc, adapter, cache := setupRecipientTest(testutil.TestChain(), true)
	adapter.Symbol = "USDT"
	adapter.SetBalance(testutil.AliceAddress, big.NewInt(40))
	adapter.SetBalance(testutil.BobAddress, big.NewInt(1))
	adapter.SetBalance(testutil.WalletAddr, big.NewInt(999))
	adapter.AddTransfers(
		testutil.CreateTestTransfer(testutil.WithTo(testutil.AliceAddress), testutil.WithValue(big.NewInt(5)), testutil.WithTimestamp(100)),
		testutil.CreateTestTransfer(testutil.WithTo(testutil.BobAddress), testutil.WithValue(big.NewInt(100)), testutil.WithTimestamp(200)),
		testutil.CreateTestTransfer(testutil.WithTo(testutil.CharlieAddr), testutil.WithValue(big.NewInt(5)), testutil.WithTimestamp(300)),
		testutil.CreateTestTransfer(testutil.WithTo(testutil.AliceAddress), testutil.WithValue(big.NewInt(0)), testutil.WithTimestamp(400)),
		testutil.CreateTestTransfer(testutil.WithFrom(testutil.OtherSender), testutil.WithTo(testutil.AliceAddress), testutil.WithValue(big.NewInt(1000))),
	)

	observer := &recordingObserver{}
	result, err := svc.ScanRecipients(context.Background(), ScanRequest{
		ChainID:  "testchain",
		Wallet:   "0x1111111111111111111111111111111111111111",
		Contract: "0x55d398326f99059fF775485246999027B3197955",
	}, observer)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsDemo || result.Error != "" {
		t.Errorf("expected live result, got demo=%v error=%q", result.IsDemo, result.Error)
	}
	if result.TokenSymbol != "USDT" {
		t.Errorf("expected USDT, got %s", result.TokenSymbol)
	}
	if result.WalletBalance != "999" {
		t.Errorf("expected wallet balance 999, got %s", result.WalletBalance)
	}

	// Sorted [100, 5, 5] with ties in discovery order
	expected := []struct {
		addr    string
		total   string
		balance string
		count   int
	}{
		{testutil.BobAddress, "100", "1", 1},
		{testutil.AliceAddress, "5", "40", 2},
		{testutil.CharlieAddr, "5", "0", 1},
	}
	if len(result.Recipients) != len(expected) {
		t.Fatalf("expected %d recipients, got %d", len(expected), len(result.Recipients))
	}
	sum := 0
	for i, e := range expected {
		r := result.Recipients[i]
		if r.Address != e.addr || r.TotalReceived != e.total || r.CurrentBalance != e.balance || r.TransferCount != e.count {
			t.Errorf("position %d: expected %+v, got %+v", i, e, r)
		}
		if r.ExplorerURL != "https://explorer.test/address/"+e.addr {
			t.Errorf("position %d: unexpected explorer link %s", i, r.ExplorerURL)
		}
		sum += r.TransferCount
	}
	if sum != result.TotalTransfers || result.TotalTransfers != 4 {
		t.Errorf("expected transfer counts to sum to total 4, got sum %d total %d", sum, result.TotalTransfers)
	}
	if result.Recipients[1].LastTransferTime != "400" {
		t.Errorf("expected latest time 400, got %s", result.Recipients[1].LastTransferTime)
	}

	previous := 0
	for _, p := range observer.progress {
		if p.Step < previous || p.TotalSteps != scanSteps {
			t.Errorf("progress went from %d to %d of %d", previous, p.Step, p.TotalSteps)
		}
		previous = p.Step
	}
	if previous != scanSteps {
		t.Errorf("expected final step %d, got %d", scanSteps, previous)
	}
	if len(observer.partials) == 0 {
		t.Error("expected partial results")
	}

	if s, ok := cache.GetSymbol(context.Background(), "testchain", testutil.TokenAddress); !ok || s != "USDT" {
		t.Errorf("expected symbol cached, got %q", s)
	}
}

func TestScanRecipients_SymbolFromCache(t *testing.T) {
	svc, adapter, cache := setupRecipientTest(testutil.TestChain(), true)
	cache.SetSymbol(context.Background(), "testchain", testutil.TokenAddress, "CACHED")
	adapter.AddTransfers(testutil.CreateTestTransfer())

	result, err := svc.ScanRecipients(context.Background(), ScanRequest{
		ChainID: "testchain",
		Wallet:  testutil.WalletAddr,
	}, nil)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TokenSymbol != "CACHED" {
		t.Errorf("expected cached symbol, got %s", result.TokenSymbol)
	}
	if adapter.CallCount("FetchTokenSymbol") != 0 {
		t.Error("expected no symbol lookup on cache hit")
	}
}

func TestScanRecipients_SymbolFallsBack(t *testing.T) {
	tests := []struct {
		name     string
		rows     string
		adapter  string
		expected string
	}{
		{"from transfer rows", "WGLMR", "", "WGLMR"},
		{"from adapter", "", "LORDS", "LORDS"},
		{"unknown", "", "", UnknownSymbol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, adapter, _ := setupRecipientTest(testutil.TestChain(), true)
			adapter.Symbol = tt.adapter
			adapter.AddTransfers(testutil.CreateTestTransfer(testutil.WithTokenSymbol(tt.rows)))

			result, err := svc.ScanRecipients(context.Background(), ScanRequest{ChainID: "testchain", Wallet: testutil.WalletAddr}, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.TokenSymbol != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, result.TokenSymbol)
			}
		})
	}
}

func TestScanRecipients_NativeToken(t *testing.T) {
	svc, adapter, _ := setupRecipientTest(testutil.TestChain(), true)
	adapter.AddTransfers(testutil.CreateTestTransfer())

	result, err := svc.ScanRecipients(context.Background(), ScanRequest{
		ChainID:  "testchain",
		Wallet:   testutil.WalletAddr,
		Contract: testutil.NativeToken,
	}, nil)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TokenSymbol != "TEST" {
		t.Errorf("expected native currency symbol, got %s", result.TokenSymbol)
	}
}

func TestScanRecipients_EmptyResult(t *testing.T) {
	svc, adapter, _ := setupRecipientTest(testutil.TestChain(), false)
	adapter.Head = 300

	result, err := svc.ScanRecipients(context.Background(), ScanRequest{ChainID: "testchain", Wallet: testutil.WalletAddr}, nil)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsDemo || result.Error != "" {
		t.Errorf("empty result must not be the failure path: demo=%v error=%q", result.IsDemo, result.Error)
	}
	if len(result.Recipients) != 0 || result.TotalTransfers != 0 {
		t.Errorf("expected no recipients, got %d/%d", len(result.Recipients), result.TotalTransfers)
	}
	if result.Message != MessageNoTransfers {
		t.Errorf("expected informational message, got %q", result.Message)
	}
	if adapter.CallCount("FetchBalance") != 1 {
		t.Errorf("expected only the wallet balance lookup, got %d", adapter.CallCount("FetchBalance"))
	}
}

func TestScanRecipients_MinimumAmount(t *testing.T) {
	threshold := big.NewInt(20000000000000000)
	chain := testutil.TestChain(testutil.WithMinTransferAmount(threshold))
	svc, adapter, _ := setupRecipientTest(chain, true)
	adapter.AddTransfers(
		testutil.CreateTestTransfer(testutil.WithValue(new(big.Int).Set(threshold))),
		testutil.CreateTestTransfer(testutil.WithValue(new(big.Int).Add(threshold, big.NewInt(1)))),
	)

	result, err := svc.ScanRecipients(context.Background(), ScanRequest{ChainID: "testchain", Wallet: testutil.WalletAddr}, nil)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Recipients) != 1 {
		t.Fatalf("expected 1 recipient, got %d", len(result.Recipients))
	}
	r := result.Recipients[0]
	if r.TotalReceived != "20000000000000001" || r.TransferCount != 1 {
		t.Errorf("expected only the transfer above the threshold, got %s/%d", r.TotalReceived, r.TransferCount)
	}
}

func TestScanRecipients_ExcludedRecipients(t *testing.T) {
	chain := testutil.TestChain(testutil.WithExcludedRecipients("0xBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB"))
	svc, adapter, _ := setupRecipientTest(chain, true)
	adapter.AddTransfers(
		testutil.CreateTestTransfer(testutil.WithTo(testutil.AliceAddress)),
		testutil.CreateTestTransfer(testutil.WithTo(testutil.BobAddress)),
		testutil.CreateTestTransfer(testutil.WithTo(testutil.BobAddress)),
	)

	result, err := svc.ScanRecipients(context.Background(), ScanRequest{ChainID: "testchain", Wallet: testutil.WalletAddr}, nil)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Recipients) != 1 || result.Recipients[0].Address != testutil.AliceAddress {
		t.Fatalf("expected only alice, got %+v", result.Recipients)
	}
	if result.TotalTransfers != 1 {
		t.Errorf("expected excluded transfers removed from total, got %d", result.TotalTransfers)
	}
	for _, c := range adapter.Calls {
		if c.Method == "FetchBalance" && c.Args[0] == testutil.BobAddress {
			t.Error("excluded recipient balance should not be queried")
		}
	}
}

func TestScanRecipients_BalanceFailureIsolated(t *testing.T) {
	svc, adapter, _ := setupRecipientTest(testutil.TestChain(), true)
	adapter.AddTransfers(
		testutil.CreateTestTransfer(testutil.WithTo(testutil.AliceAddress), testutil.WithValue(big.NewInt(3))),
		testutil.CreateTestTransfer(testutil.WithTo(testutil.BobAddress), testutil.WithValue(big.NewInt(2))),
		testutil.CreateTestTransfer(testutil.WithTo(testutil.CharlieAddr), testutil.WithValue(big.NewInt(1))),
	)
	adapter.FetchBalanceFunc = func(ctx context.Context, holder, contract entities.Address) (*big.Int, error) {
		if holder.Canonical == testutil.BobAddress {
			return nil, entities.ErrDecode
		}
		return big.NewInt(9), nil
	}

	result, err := svc.ScanRecipients(context.Background(), ScanRequest{ChainID: "testchain", Wallet: testutil.WalletAddr}, nil)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsDemo {
		t.Fatal("balance failure must not trigger demo fallback")
	}
	balances := []string{result.Recipients[0].CurrentBalance, result.Recipients[1].CurrentBalance, result.Recipients[2].CurrentBalance}
	if balances[0] != "9" || balances[1] != "0" || balances[2] != "9" {
		t.Errorf("expected [9 0 9], got %v", balances)
	}
	if result.FailedBalances != 1 {
		t.Errorf("expected 1 failed balance, got %d", result.FailedBalances)
	}
}

func TestScanRecipients_Unconfigured(t *testing.T) {
	chain := testutil.TestChain()
	registry := adapters.NewRegistry([]entities.ChainConfig{chain})
	registry.SetNotice(chain.ID, UnconfiguredNotice(chain))

	svc := NewRecipientService(registry,
		NewScanner(testScannerConfig(), 10, nil, zap.NewNop()),
		NewBalanceResolver(config.AggregatorConfig{}, nil, zap.NewNop()),
		nil, nil, zap.NewNop())

	result, err := svc.ScanRecipients(context.Background(), ScanRequest{ChainID: chain.ID, Wallet: testutil.WalletAddr}, nil)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsDemo {
		t.Error("expected demo result")
	}
	if !strings.Contains(result.Error, "API key") {
		t.Errorf("expected actionable notice, got %q", result.Error)
	}

	demo := DemoScanResult(chain)
	if len(result.Recipients) == 0 || len(result.Recipients) != len(demo.Recipients) {
		t.Fatalf("expected demo recipients, got %d", len(result.Recipients))
	}
	for i := range demo.Recipients {
		if result.Recipients[i] != demo.Recipients[i] {
			t.Errorf("recipient %d differs from demo dataset", i)
		}
	}
}

func TestScanRecipients_UpstreamFailureFallsBack(t *testing.T) {
	svc, adapter, _ := setupRecipientTest(testutil.TestChain(), true)
	adapter.FetchOutgoingTransfersFunc = func(ctx context.Context, q adapters.TransferQuery) (*adapters.TransferPage, error) {
		return nil, entities.ErrRateLimited
	}

	result, err := svc.ScanRecipients(context.Background(), ScanRequest{ChainID: "testchain", Wallet: testutil.WalletAddr}, nil)

	if err != nil {
		t.Fatalf("upstream failure should not be returned: %v", err)
	}
	if !result.IsDemo || result.Error == "" {
		t.Errorf("expected demo fallback with error, got demo=%v error=%q", result.IsDemo, result.Error)
	}
	if !strings.Contains(result.Error, "rate limited") {
		t.Errorf("expected error to describe the failure, got %q", result.Error)
	}
}

func TestScanRecipients_InputErrors(t *testing.T) {
	tests := []struct {
		name    string
		req     ScanRequest
		checkFn func(error) bool
	}{
		{
			name:    "unknown chain",
			req:     ScanRequest{ChainID: "solana", Wallet: testutil.WalletAddr},
			checkFn: func(err error) bool { return errors.Is(err, entities.ErrUnsupportedChain) },
		},
		{
			name:    "short wallet",
			req:     ScanRequest{ChainID: "testchain", Wallet: "0x1234"},
			checkFn: entities.IsInvalidAddress,
		},
		{
			name:    "bad contract",
			req:     ScanRequest{ChainID: "testchain", Wallet: testutil.WalletAddr, Contract: "not-an-address"},
			checkFn: entities.IsInvalidAddress,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, adapter, _ := setupRecipientTest(testutil.TestChain(), true)

			_, err := svc.ScanRecipients(context.Background(), tt.req, nil)
			if err == nil || !tt.checkFn(err) {
				t.Errorf("unexpected error: %v", err)
			}
			if len(adapter.Calls) != 0 {
				t.Errorf("expected no upstream calls, got %d", len(adapter.Calls))
			}
		})
	}
}

func TestScanRecipients_AbortTruncates(t *testing.T) {
	svc, adapter, _ := setupRecipientTest(testutil.TestChain(), false)
	adapter.Head = 100000

	abort := make(chan struct{})
	adapter.FetchOutgoingTransfersFunc = func(ctx context.Context, q adapters.TransferQuery) (*adapters.TransferPage, error) {
		select {
		case <-abort:
		default:
			close(abort)
		}
		return &adapters.TransferPage{Transfers: []entities.Transfer{testutil.CreateTestTransfer()}}, nil
	}

	result, err := svc.ScanRecipients(context.Background(), ScanRequest{
		ChainID: "testchain",
		Wallet:  testutil.WalletAddr,
		Abort:   abort,
	}, nil)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Truncated || result.IsDemo {
		t.Errorf("expected truncated live result, got truncated=%v demo=%v", result.Truncated, result.IsDemo)
	}
	if len(result.Recipients) != 1 || result.TotalTransfers != 1 {
		t.Errorf("expected the best-effort partial result, got %d recipients", len(result.Recipients))
	}
}

func TestScanRecipients_CancelledDuringBalances(t *testing.T) {
	svc, adapter, _ := setupRecipientTest(testutil.TestChain(), true)
	adapter.Symbol = "USDT"
	adapter.AddTransfers(
		testutil.CreateTestTransfer(testutil.WithTo(testutil.AliceAddress), testutil.WithValue(big.NewInt(5))),
		testutil.CreateTestTransfer(testutil.WithTo(testutil.BobAddress), testutil.WithValue(big.NewInt(3))),
		testutil.CreateTestTransfer(testutil.WithTo(testutil.CharlieAddr), testutil.WithValue(big.NewInt(1))),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	adapter.FetchBalanceFunc = func(ctx context.Context, holder, contract entities.Address) (*big.Int, error) {
		if holder.Canonical == testutil.WalletAddr {
			return big.NewInt(7), nil
		}
		// the client goes away while recipient balances are being resolved
		cancel()
		return nil, ctx.Err()
	}

	result, err := svc.ScanRecipients(ctx, ScanRequest{
		ChainID: "testchain",
		Wallet:  testutil.WalletAddr,
	}, nil)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsDemo || !result.Truncated {
		t.Errorf("expected truncated live result, got demo=%v truncated=%v", result.IsDemo, result.Truncated)
	}
	if result.FailedBalances != 0 {
		t.Errorf("expected no failed balances, got %d", result.FailedBalances)
	}
	if len(result.Recipients) != 3 {
		t.Fatalf("expected 3 recipients, got %d", len(result.Recipients))
	}
	for _, r := range result.Recipients {
		if r.CurrentBalance != entities.BalancePending || r.BalanceFailed {
			t.Errorf("%s: expected pending balance, got %s (failed=%v)", r.Address, r.CurrentBalance, r.BalanceFailed)
		}
	}
	if result.WalletBalance != "7" {
		t.Errorf("expected wallet balance 7, got %s", result.WalletBalance)
	}
}
