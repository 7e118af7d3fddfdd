package bootstrap

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/bimakw/recipient-scanner/internal/config"
	"github.com/bimakw/recipient-scanner/internal/domain/entities"
	"github.com/bimakw/recipient-scanner/internal/infrastructure/ethereum"
	"github.com/bimakw/recipient-scanner/internal/infrastructure/explorer"
	"github.com/bimakw/recipient-scanner/internal/infrastructure/starknet"
)

func testConfig() *config.Config {
	return &config.Config{
		Ethereum: config.EthereumConfig{RPCChain: "bsc", WorkerCount: 2},
		Scanner:  config.ScannerConfig{EventsPageSize: 100},
	}
}

func TestNew_Unconfigured(t *testing.T) {
	engine, err := New(testConfig(), prometheus.NewRegistry(), zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer engine.Close()

	if engine.Cache != nil {
		t.Error("expected no cache without Redis")
	}

	for _, id := range []string{"bsc", "moonbeam", "starknet"} {
		adapter, mode, notice, err := engine.Registry.Resolve(id)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", id, err)
		}
		if adapter != nil || mode != entities.ModeUnconfigured || notice == "" {
			t.Errorf("%s: expected unconfigured with notice, got %v %q", id, mode, notice)
		}
	}
}

func TestNew_ExplorerKey(t *testing.T) {
	cfg := testConfig()
	cfg.Explorer.APIKey = "key"

	engine, err := New(cfg, prometheus.NewRegistry(), zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer engine.Close()

	for _, id := range []string{"bsc", "moonbeam"} {
		adapter, mode, _, _ := engine.Registry.Resolve(id)
		if mode != entities.ModeLive {
			t.Errorf("%s: expected live, got %s", id, mode)
		}
		if _, ok := adapter.(*explorer.Adapter); !ok {
			t.Errorf("%s: expected explorer adapter, got %T", id, adapter)
		}
	}
}

func TestNew_NodeOnly(t *testing.T) {
	cfg := testConfig()
	cfg.Ethereum.RPCURL = "http://127.0.0.1:8545"

	engine, err := New(cfg, prometheus.NewRegistry(), zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer engine.Close()

	adapter, mode, _, _ := engine.Registry.Resolve("bsc")
	if mode != entities.ModeLive {
		t.Fatalf("expected bsc live through the node, got %s", mode)
	}
	if _, ok := adapter.(*ethereum.LogAdapter); !ok {
		t.Errorf("expected log adapter, got %T", adapter)
	}

	if _, mode, _, _ := engine.Registry.Resolve("moonbeam"); mode != entities.ModeUnconfigured {
		t.Errorf("expected moonbeam unconfigured, got %s", mode)
	}
}

func TestNew_StarknetEnabled(t *testing.T) {
	cfg := testConfig()
	cfg.Starknet.Enabled = "enabled"
	cfg.Starknet.RPCURL = "http://127.0.0.1:9545"

	engine, err := New(cfg, prometheus.NewRegistry(), zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer engine.Close()

	adapter, mode, _, _ := engine.Registry.Resolve("starknet")
	if mode != entities.ModeLive {
		t.Fatalf("expected starknet live, got %s", mode)
	}
	if _, ok := adapter.(*starknet.Adapter); !ok {
		t.Errorf("expected starknet adapter, got %T", adapter)
	}
}
