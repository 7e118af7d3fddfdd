/*
 * Copyright (c) 2024 Bima Kharisma Wicaksana
 * GitHub: https://github.com/bimakw
 *
 * Licensed under MIT License with Attribution Requirement.
 * See LICENSE file for details.
 */

package ethereum

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bimakw/recipient-scanner/internal/domain/entities"
)

// ERC-20 function selectors (first 4 bytes of keccak256 hash)
var (
	// symbol() -> 0x95d89b41
	symbolSig = common.FromHex("0x95d89b41")
	// balanceOf(address) -> 0x70a08231
	balanceOfSig = common.FromHex("0x70a08231")
)

// ContractReader reads ERC-20 state via eth_call
type ContractReader struct {
	client *Client
}

// NewContractReader creates a new contract reader
func NewContractReader(client *Client) *ContractReader {
	return &ContractReader{client: client}
}

// TokenSymbol fetches a token's symbol, accepting both string and bytes32 encodings
func (r *ContractReader) TokenSymbol(ctx context.Context, tokenAddress string) (string, error) {
	result, err := r.client.CallContract(ctx, common.HexToAddress(tokenAddress), symbolSig)
	if err != nil {
		return "", err
	}
	symbol, err := decodeStringOrBytes32(result)
	if err != nil {
		return "", fmt.Errorf("failed to decode symbol of %s: %v: %w", tokenAddress, err, entities.ErrDecode)
	}
	return symbol, nil
}

// BalanceOf fetches holder's token balance
func (r *ContractReader) BalanceOf(ctx context.Context, tokenAddress, holder string) (*big.Int, error) {
	data := make([]byte, 0, 4+32)
	data = append(data, balanceOfSig...)
	data = append(data, common.LeftPadBytes(common.HexToAddress(holder).Bytes(), 32)...)

	result, err := r.client.CallContract(ctx, common.HexToAddress(tokenAddress), data)
	if err != nil {
		return nil, err
	}
	if len(result) < 32 {
		return nil, fmt.Errorf("invalid balanceOf response length %d: %w", len(result), entities.ErrDecode)
	}
	return new(big.Int).SetBytes(result[:32]), nil
}

// decodeStringOrBytes32 decodes a response that could be either:
// 1. ABI-encoded string: offset (32 bytes) + length (32 bytes) + data (padded to 32 bytes)
// 2. bytes32: raw 32 bytes (e.g., MKR token)
func decodeStringOrBytes32(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty data")
	}

	if len(data) < 32 {
		return "", fmt.Errorf("data too short: %d bytes", len(data))
	}

	if len(data) >= 64 {
		offset := new(big.Int).SetBytes(data[:32])
		if offset.Uint64() == 32 {
			length := new(big.Int).SetBytes(data[32:64])
			strLen := int(length.Uint64())

			if strLen == 0 {
				return "", nil
			}

			if len(data) >= 64+strLen {
				strData := data[64 : 64+strLen]
				return strings.TrimRight(string(strData), "\x00"), nil
			}
		}
	}

	result := bytes.TrimRight(data[:32], "\x00")

	if isPrintableASCII(result) {
		return string(result), nil
	}

	return "0x" + hex.EncodeToString(data[:32]), nil
}

// isPrintableASCII checks if all bytes are printable ASCII characters
func isPrintableASCII(data []byte) bool {
	for _, b := range data {
		if b < 32 || b > 126 {
			return false
		}
	}
	return len(data) > 0
}
