// Package address canonicalizes chain-specific account identifiers so that
// textually different spellings of the same account compare equal.
package address

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bimakw/recipient-scanner/internal/domain/entities"
)

// feltAddressBound is the exclusive upper bound of a Starknet contract address (2^251 - 256)
var feltAddressBound = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 251), big.NewInt(256))

// Normalize validates raw against the chain's address grammar and returns its canonical form
func Normalize(raw string, kind entities.ChainKind) (entities.Address, error) {
	trimmed := strings.TrimSpace(raw)

	switch kind {
	case entities.ChainKindEVM:
		canonical, err := normalizeEVM(trimmed)
		if err != nil {
			return entities.Address{}, &entities.InvalidAddressError{Input: raw, Kind: kind, Reason: err.Error()}
		}
		return entities.Address{Canonical: canonical, Display: Checksum(canonical), Kind: kind}, nil

	case entities.ChainKindFelt:
		value, err := parseFelt(trimmed)
		if err != nil {
			return entities.Address{}, &entities.InvalidAddressError{Input: raw, Kind: kind, Reason: err.Error()}
		}
		if value.Cmp(feltAddressBound) >= 0 {
			return entities.Address{}, &entities.InvalidAddressError{Input: raw, Kind: kind, Reason: "value out of address range"}
		}
		return entities.Address{Canonical: formatFelt(value), Display: trimmed, Kind: kind}, nil

	default:
		return entities.Address{}, &entities.InvalidAddressError{Input: raw, Kind: kind, Reason: "unknown chain kind"}
	}
}

// Equals compares canonical forms only
func Equals(a, b entities.Address) bool {
	return a.Kind == b.Kind && a.Canonical == b.Canonical
}

// Canonical returns the canonical string for an address reported by the chain itself.
// Felt values are padded without the contract-address range check; unparseable input is lowercased.
func Canonical(raw string, kind entities.ChainKind) string {
	trimmed := strings.TrimSpace(raw)
	switch kind {
	case entities.ChainKindEVM:
		if canonical, err := normalizeEVM(trimmed); err == nil {
			return canonical
		}
	case entities.ChainKindFelt:
		if value, err := parseFelt(trimmed); err == nil {
			return formatFelt(value)
		}
	}
	return strings.ToLower(trimmed)
}

// Checksum returns the EIP-55 display form of an EVM address
func Checksum(canonical string) string {
	return common.HexToAddress(canonical).Hex()
}

// Short abbreviates an address for display (0x1234...abcd)
func Short(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}

func normalizeEVM(raw string) (string, error) {
	if !strings.HasPrefix(raw, "0x") && !strings.HasPrefix(raw, "0X") {
		return "", fmt.Errorf("missing 0x prefix")
	}
	if len(raw) != 42 {
		return "", fmt.Errorf("expected 40 hex characters, got %d", len(raw)-2)
	}
	if !common.IsHexAddress(raw) {
		return "", fmt.Errorf("contains non-hex characters")
	}
	return "0x" + strings.ToLower(raw[2:]), nil
}

func parseFelt(raw string) (*big.Int, error) {
	digits := raw
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		digits = digits[2:]
	} else {
		return nil, fmt.Errorf("missing 0x prefix")
	}
	if len(digits) == 0 || len(digits) > 64 {
		return nil, fmt.Errorf("expected 1 to 64 hex characters, got %d", len(digits))
	}

	value, ok := new(big.Int).SetString(digits, 16)
	if !ok {
		return nil, fmt.Errorf("contains non-hex characters")
	}
	return value, nil
}

func formatFelt(value *big.Int) string {
	return fmt.Sprintf("0x%064x", value)
}
