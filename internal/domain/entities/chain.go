package entities

import (
	"math/big"
	"strings"
)

// ChainKind identifies the address grammar and query model of a chain
type ChainKind string

const (
	// ChainKindEVM is an EVM-compatible chain with 20-byte hex addresses
	ChainKindEVM ChainKind = "evm"
	// ChainKindFelt is a felt-based chain (Starknet) with field element addresses
	ChainKindFelt ChainKind = "felt"
)

// ChainConfig describes a chain the scanner can query
type ChainConfig struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Kind           ChainKind `json:"kind"`
	ChainID        string    `json:"chain_id"`
	APIURL         string    `json:"api_url"`
	ExplorerURL    string    `json:"explorer_url"`
	NativeCurrency string    `json:"native_currency"`

	// NativeTokenAddress is a sentinel contract meaning "native coin transfers"
	NativeTokenAddress string `json:"native_token_address,omitempty"`
	DefaultContract    string `json:"default_contract"`
	DemoSymbol         string `json:"-"`

	// MinTransferAmount excludes transfers with value <= threshold (nil disables)
	MinTransferAmount *big.Int `json:"-"`
	// ExcludedRecipients are skipped before balance resolution
	ExcludedRecipients []string `json:"-"`
}

// IsNativeToken reports whether contract refers to the chain's native coin
func (c ChainConfig) IsNativeToken(contract string) bool {
	return c.NativeTokenAddress != "" && strings.EqualFold(c.NativeTokenAddress, contract)
}

// AddressURL returns the explorer page for an address, or "" without an explorer
func (c ChainConfig) AddressURL(address string) string {
	if c.ExplorerURL == "" {
		return ""
	}
	if c.Kind == ChainKindFelt {
		return c.ExplorerURL + "/contract/" + address
	}
	return c.ExplorerURL + "/address/" + address
}

// TransactionURL returns the explorer page for a transaction, or "" without an explorer
func (c ChainConfig) TransactionURL(txHash string) string {
	if c.ExplorerURL == "" {
		return ""
	}
	return c.ExplorerURL + "/tx/" + txHash
}
