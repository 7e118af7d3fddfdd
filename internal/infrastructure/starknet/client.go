package starknet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"github.com/bimakw/recipient-scanner/internal/config"
	"github.com/bimakw/recipient-scanner/internal/domain/adapters"
	"github.com/bimakw/recipient-scanner/internal/domain/entities"
	"github.com/bimakw/recipient-scanner/internal/infrastructure/metrics"
)

const limiterKey = "starknet-rpc"

// Dial creates the JSON-RPC connection handle shared by all Starknet scans
func Dial(cfg config.StarknetConfig) (*rpc.Client, error) {
	httpClient := &http.Client{Timeout: cfg.RequestTimeout}

	client, err := rpc.DialHTTPWithClient(cfg.RPCURL, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create Starknet RPC client: %w", err)
	}
	return client, nil
}

// Client issues Starknet JSON-RPC calls over a shared connection handle.
// It holds no per-call state and is safe for concurrent use.
type Client struct {
	rpc     *rpc.Client
	limiter adapters.RateLimiter
	metrics *metrics.ScanMetrics
	logger  *zap.Logger

	requestTimeout  time.Duration
	initialInterval time.Duration
	maxRetryTime    time.Duration
}

// NewClient wraps a connection handle created by Dial
func NewClient(handle *rpc.Client, cfg config.StarknetConfig, limiter adapters.RateLimiter, m *metrics.ScanMetrics, logger *zap.Logger) *Client {
	maxRetryTime := cfg.MaxRetryTime
	if maxRetryTime <= 0 {
		maxRetryTime = 30 * time.Second
	}
	return &Client{
		rpc:             handle,
		limiter:         limiter,
		metrics:         m,
		logger:          logger,
		requestTimeout:  cfg.RequestTimeout,
		initialInterval: 500 * time.Millisecond,
		maxRetryTime:    maxRetryTime,
	}
}

// blockID selects a block by number
type blockID struct {
	BlockNumber uint64 `json:"block_number"`
}

// eventFilter is the starknet_getEvents request object
type eventFilter struct {
	FromBlock         blockID    `json:"from_block"`
	ToBlock           blockID    `json:"to_block"`
	Address           string     `json:"address"`
	Keys              [][]string `json:"keys"`
	ChunkSize         int        `json:"chunk_size"`
	ContinuationToken string     `json:"continuation_token,omitempty"`
}

// functionCall is the starknet_call request object
type functionCall struct {
	ContractAddress    string   `json:"contract_address"`
	EntryPointSelector string   `json:"entry_point_selector"`
	Calldata           []string `json:"calldata"`
}

// BlockNumber returns the latest accepted block height
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	var head uint64
	if err := c.call(ctx, &head, "starknet_blockNumber"); err != nil {
		return 0, err
	}
	return head, nil
}

// GetEvents returns one page of events matching the filter
func (c *Client) GetEvents(ctx context.Context, filter eventFilter) (*eventsChunk, error) {
	var chunk eventsChunk
	if err := c.call(ctx, &chunk, "starknet_getEvents", filter); err != nil {
		return nil, err
	}
	return &chunk, nil
}

// BlockTimestamp returns the unix time of a block
func (c *Client) BlockTimestamp(ctx context.Context, blockNumber uint64) (uint64, error) {
	var block struct {
		Timestamp *uint64 `json:"timestamp"`
	}
	if err := c.call(ctx, &block, "starknet_getBlockWithTxHashes", blockID{BlockNumber: blockNumber}); err != nil {
		return 0, err
	}
	if block.Timestamp == nil {
		return 0, fmt.Errorf("block %d has no timestamp: %w", blockNumber, entities.ErrDecode)
	}
	return *block.Timestamp, nil
}

// Call executes a view function against the latest block and returns the raw result
func (c *Client) Call(ctx context.Context, contract, selector string, calldata []string) (json.RawMessage, error) {
	if calldata == nil {
		calldata = []string{}
	}
	var result json.RawMessage
	req := functionCall{
		ContractAddress:    contract,
		EntryPointSelector: selector,
		Calldata:           calldata,
	}
	if err := c.call(ctx, &result, "starknet_call", req, "latest"); err != nil {
		return nil, err
	}
	return result, nil
}

// call performs one JSON-RPC request, retrying with exponential backoff while throttled
func (c *Client) call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	throttled := false

	operation := func() error {
		throttled = false
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx, limiterKey); err != nil {
				return backoff.Permanent(err)
			}
		}

		callCtx := ctx
		cancel := func() {}
		if c.requestTimeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		}
		defer cancel()

		err := c.rpc.CallContext(callCtx, result, method, args...)
		if err == nil {
			return nil
		}
		if isThrottled(err) {
			throttled = true
			c.logger.Warn("Starknet RPC rate limited, retrying with backoff", zap.String("method", method))
			return err
		}
		return backoff.Permanent(err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialInterval
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = c.maxRetryTime
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.5

	err := backoff.Retry(operation, backoff.WithContext(b, ctx))
	c.metrics.ObserveUpstream(limiterKey, method, err)
	if err == nil {
		return nil
	}
	if throttled {
		return fmt.Errorf("%s: %v: %w", method, err, entities.ErrRateLimited)
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return fmt.Errorf("%s: %v: %w", method, err, entities.ErrDecode)
	}
	return fmt.Errorf("%s: %v: %w", method, err, entities.ErrUpstream)
}

func isThrottled(err error) bool {
	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusTooManyRequests {
		return true
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == http.StatusTooManyRequests {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "too many requests") || strings.Contains(msg, "rate limit")
}
