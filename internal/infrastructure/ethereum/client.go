package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/bimakw/recipient-scanner/internal/config"
	"github.com/bimakw/recipient-scanner/internal/domain/adapters"
	"github.com/bimakw/recipient-scanner/internal/domain/entities"
	"github.com/bimakw/recipient-scanner/internal/infrastructure/metrics"
)

const limiterKey = "evm-rpc"

// Backend is the subset of ethclient.Client used by the scanner
type Backend interface {
	BlockNumber(ctx context.Context) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// Client wraps an EVM node connection with retry logic and utilities
type Client struct {
	backend Backend
	closer  func()
	config  config.EthereumConfig
	limiter adapters.RateLimiter
	metrics *metrics.ScanMetrics
	logger  *zap.Logger
}

// NewClient dials an EVM node
func NewClient(cfg config.EthereumConfig, limiter adapters.RateLimiter, m *metrics.ScanMetrics, logger *zap.Logger) (*Client, error) {
	client, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to EVM node: %w", err)
	}

	logger.Info("Connected to EVM node",
		zap.String("rpc_url", cfg.RPCURL),
		zap.String("chain", cfg.RPCChain),
	)

	c := NewClientWithBackend(client, cfg, limiter, m, logger)
	c.closer = client.Close
	return c, nil
}

// NewClientWithBackend wraps an existing backend
func NewClientWithBackend(backend Backend, cfg config.EthereumConfig, limiter adapters.RateLimiter, m *metrics.ScanMetrics, logger *zap.Logger) *Client {
	return &Client{
		backend: backend,
		config:  cfg,
		limiter: limiter,
		metrics: m,
		logger:  logger,
	}
}

// Close closes the node connection
func (c *Client) Close() {
	if c.closer != nil {
		c.closer()
	}
}

// GetLatestBlockNumber returns the latest block number
func (c *Client) GetLatestBlockNumber(ctx context.Context) (uint64, error) {
	var blockNumber uint64
	err := c.retry(ctx, "eth_blockNumber", func(ctx context.Context) error {
		var err error
		blockNumber, err = c.backend.BlockNumber(ctx)
		return err
	})
	return blockNumber, err
}

// GetBlockTimestamp returns the unix timestamp of a block
func (c *Client) GetBlockTimestamp(ctx context.Context, blockNumber uint64) (uint64, error) {
	var header *types.Header
	err := c.retry(ctx, "eth_getBlockByNumber", func(ctx context.Context) error {
		var err error
		header, err = c.backend.HeaderByNumber(ctx, new(big.Int).SetUint64(blockNumber))
		return err
	})
	if err != nil {
		return 0, err
	}
	return header.Time, nil
}

// GetLogs retrieves logs matching the filter query
func (c *Client) GetLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	var logs []types.Log
	err := c.retry(ctx, "eth_getLogs", func(ctx context.Context) error {
		var err error
		logs, err = c.backend.FilterLogs(ctx, query)
		return err
	})
	return logs, err
}

// CallContract executes a read-only call against the latest state
func (c *Client) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	var result []byte
	err := c.retry(ctx, "eth_call", func(ctx context.Context) error {
		var err error
		result, err = c.backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
		return err
	})
	return result, err
}

// BalanceAt returns an account's native balance at the latest block
func (c *Client) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	var balance *big.Int
	err := c.retry(ctx, "eth_getBalance", func(ctx context.Context) error {
		var err error
		balance, err = c.backend.BalanceAt(ctx, account, nil)
		return err
	})
	return balance, err
}

// BuildFilterQuery builds a filter for Transfer events of a token sent by from
func (c *Client) BuildFilterQuery(fromBlock, toBlock uint64, token, from common.Address) ethereum.FilterQuery {
	return ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{token},
		Topics: [][]common.Hash{
			{TransferEventSignature},
			{common.BytesToHash(from.Bytes())},
		},
	}
}

// retry runs fn up to MaxRetries+1 times with a per-call timeout.
// Exhausted retries are reported as upstream errors.
func (c *Client) retry(ctx context.Context, method string, fn func(ctx context.Context) error) error {
	var err error

	for i := 0; i <= c.config.MaxRetries; i++ {
		if c.limiter != nil {
			if werr := c.limiter.Wait(ctx, limiterKey); werr != nil {
				return fmt.Errorf("%s: %v: %w", method, werr, entities.ErrUpstream)
			}
		}

		callCtx := ctx
		cancel := func() {}
		if c.config.RequestTimeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, c.config.RequestTimeout)
		}
		err = fn(callCtx)
		cancel()

		c.metrics.ObserveUpstream(limiterKey, method, err)
		if err == nil {
			return nil
		}

		c.logger.Warn("EVM request failed, retrying",
			zap.String("method", method),
			zap.Int("attempt", i+1),
			zap.Error(err),
		)

		if ctx.Err() != nil {
			break
		}
		if i < c.config.MaxRetries {
			select {
			case <-ctx.Done():
			case <-time.After(c.config.RetryDelay):
			}
		}
	}

	return fmt.Errorf("%s failed after %d retries: %v: %w", method, c.config.MaxRetries, err, entities.ErrUpstream)
}
