package explorer

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/bimakw/recipient-scanner/internal/domain/adapters"
	"github.com/bimakw/recipient-scanner/internal/domain/entities"
)

// ContractReader reads token metadata directly from a node
type ContractReader interface {
	TokenSymbol(ctx context.Context, contract string) (string, error)
}

// Adapter is the ChainAdapter for EVM chains backed by an Etherscan v2 compatible explorer.
// The explorer indexes transfers by address, so queries are page-followed rather than chunked.
type Adapter struct {
	client   *Client
	chain    entities.ChainConfig
	pageSize int
	contract ContractReader
	logger   *zap.Logger
}

var _ adapters.ChainAdapter = (*Adapter)(nil)

// NewAdapter creates an explorer adapter. reader may be nil.
// Page budgets belong to the caller: a full page always yields a next cursor.
func NewAdapter(client *Client, chain entities.ChainConfig, pageSize int, reader ContractReader, logger *zap.Logger) *Adapter {
	if pageSize <= 0 {
		pageSize = 1000
	}
	return &Adapter{
		client:   client,
		chain:    chain,
		pageSize: pageSize,
		contract: reader,
		logger:   logger.With(zap.String("chain", chain.ID)),
	}
}

// Chain returns the chain configuration
func (a *Adapter) Chain() entities.ChainConfig {
	return a.chain
}

// Indexed is always true for the explorer
func (a *Adapter) Indexed() bool {
	return true
}

// FetchHead returns the latest block number via the proxy module
func (a *Adapter) FetchHead(ctx context.Context) (uint64, error) {
	params := a.params("proxy", "eth_blockNumber")
	result, err := a.client.CallProxy(ctx, params)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch head: %w", err)
	}

	head, err := strconv.ParseUint(strings.TrimPrefix(result, "0x"), 16, 64)
	if err != nil {
		return 0, fmt.Errorf("bad block number %q: %w", result, entities.ErrDecode)
	}
	return head, nil
}

// FetchOutgoingTransfers returns one page of the wallet's transfers, newest first.
// Native-coin contracts use txlist; everything else uses tokentx.
func (a *Adapter) FetchOutgoingTransfers(ctx context.Context, query adapters.TransferQuery) (*adapters.TransferPage, error) {
	page := 1
	if query.Cursor != "" {
		p, err := strconv.Atoi(query.Cursor)
		if err != nil || p < 1 {
			return nil, fmt.Errorf("invalid cursor %q", query.Cursor)
		}
		page = p
	}

	pageSize := query.PageSize
	if pageSize <= 0 || pageSize > a.pageSize {
		pageSize = a.pageSize
	}

	native := a.chain.IsNativeToken(query.Contract.Canonical)
	action := "tokentx"
	if native {
		action = "txlist"
	}

	params := a.params("account", action)
	params.Set("address", query.Wallet.Canonical)
	if !native {
		params.Set("contractaddress", query.Contract.Canonical)
	}
	params.Set("page", strconv.Itoa(page))
	params.Set("offset", strconv.Itoa(pageSize))
	params.Set("startblock", "0")
	params.Set("endblock", "99999999")
	params.Set("sort", "desc")

	result, err := a.client.Call(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s page %d: %w", action, page, err)
	}

	transfers, skipped, rows, err := decodeRows(result, native, a.chain.NativeCurrency)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s page %d: %w", action, page, err)
	}

	if skipped > 0 {
		a.logger.Debug("Skipped malformed explorer rows",
			zap.String("action", action),
			zap.Int("page", page),
			zap.Int("skipped", skipped),
		)
	}

	next := ""
	if rows >= pageSize {
		next = strconv.Itoa(page + 1)
	}

	return &adapters.TransferPage{
		Transfers:  transfers,
		Skipped:    skipped,
		NextCursor: next,
	}, nil
}

// FetchBalance returns the holder's token balance, or native balance for the native sentinel
func (a *Adapter) FetchBalance(ctx context.Context, holder, contract entities.Address) (*big.Int, error) {
	var params url.Values
	if a.chain.IsNativeToken(contract.Canonical) {
		params = a.params("account", "balance")
	} else {
		params = a.params("account", "tokenbalance")
		params.Set("contractaddress", contract.Canonical)
	}
	params.Set("address", holder.Canonical)
	params.Set("tag", "latest")

	result, err := a.client.Call(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch balance of %s: %w", holder.Canonical, err)
	}
	return parseAmount(result)
}

// FetchBlockTimestamp returns a block's unix time
func (a *Adapter) FetchBlockTimestamp(ctx context.Context, blockNumber uint64) (uint64, error) {
	params := a.params("block", "getblockreward")
	params.Set("blockno", strconv.FormatUint(blockNumber, 10))

	result, err := a.client.Call(ctx, params)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch block %d: %w", blockNumber, err)
	}

	var block struct {
		TimeStamp string `json:"timeStamp"`
	}
	if err := json.Unmarshal(result, &block); err != nil {
		return 0, fmt.Errorf("bad block payload: %v: %w", err, entities.ErrDecode)
	}
	ts, err := strconv.ParseUint(block.TimeStamp, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad block timestamp %q: %w", block.TimeStamp, entities.ErrDecode)
	}
	return ts, nil
}

// FetchTokenSymbol returns the native currency for the native sentinel, otherwise reads the
// contract via the node when available and falls back to the symbol on the latest transfer
func (a *Adapter) FetchTokenSymbol(ctx context.Context, contract entities.Address) (string, error) {
	if a.chain.IsNativeToken(contract.Canonical) {
		return a.chain.NativeCurrency, nil
	}

	if a.contract != nil {
		symbol, err := a.contract.TokenSymbol(ctx, contract.Canonical)
		if err == nil && symbol != "" {
			return symbol, nil
		}
		a.logger.Debug("Contract symbol read failed, trying explorer",
			zap.String("contract", contract.Canonical),
			zap.Error(err),
		)
	}

	params := a.params("account", "tokentx")
	params.Set("contractaddress", contract.Canonical)
	params.Set("page", "1")
	params.Set("offset", "1")
	params.Set("sort", "desc")

	result, err := a.client.Call(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to fetch token symbol: %w", err)
	}

	var rows []txRow
	if err := json.Unmarshal(result, &rows); err != nil {
		return "", fmt.Errorf("bad symbol payload: %v: %w", err, entities.ErrDecode)
	}
	if len(rows) == 0 || rows[0].TokenSymbol == "" {
		return "", fmt.Errorf("no transfers for %s: %w", contract.Canonical, entities.ErrNotFound)
	}
	return rows[0].TokenSymbol, nil
}

func (a *Adapter) params(module, action string) url.Values {
	params := url.Values{}
	params.Set("chainid", a.chain.ChainID)
	params.Set("module", module)
	params.Set("action", action)
	return params
}
