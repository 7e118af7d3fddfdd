package starknet

import (
	"math/big"
	"strings"

	"github.com/bimakw/recipient-scanner/internal/domain/address"
	"github.com/bimakw/recipient-scanner/internal/domain/entities"
)

// emittedEvent is one element of a starknet_getEvents page
type emittedEvent struct {
	FromAddress     string   `json:"from_address"`
	Keys            []string `json:"keys"`
	Data            []string `json:"data"`
	BlockNumber     *uint64  `json:"block_number,omitempty"`
	BlockHash       string   `json:"block_hash,omitempty"`
	TransactionHash string   `json:"transaction_hash"`
}

// eventsChunk is the starknet_getEvents result
type eventsChunk struct {
	Events            []emittedEvent `json:"events"`
	ContinuationToken string         `json:"continuation_token,omitempty"`
}

// decodeTransferEvent maps a Transfer event to a Transfer.
//
// Two layouts are recognized:
//   - keys [selector, from, to], data [amount.low, amount.high]
//   - keys [selector], data [from, to, amount.low, amount.high]
//
// Anything else, including pending events without a block number, yields nil.
func decodeTransferEvent(ev emittedEvent) *entities.Transfer {
	if ev.BlockNumber == nil {
		return nil
	}

	var fromRaw, toRaw, lowRaw, highRaw string
	switch {
	case len(ev.Keys) >= 3 && len(ev.Data) >= 2:
		fromRaw, toRaw = ev.Keys[1], ev.Keys[2]
		lowRaw, highRaw = ev.Data[0], ev.Data[1]
	case len(ev.Keys) == 1 && len(ev.Data) >= 4:
		fromRaw, toRaw = ev.Data[0], ev.Data[1]
		lowRaw, highRaw = ev.Data[2], ev.Data[3]
	default:
		return nil
	}

	low, ok := parseFelt(lowRaw)
	if !ok {
		return nil
	}
	high, ok := parseFelt(highRaw)
	if !ok {
		return nil
	}
	if _, ok := parseFelt(fromRaw); !ok {
		return nil
	}
	if _, ok := parseFelt(toRaw); !ok {
		return nil
	}

	transfer := entities.NewTransfer(
		address.Canonical(ev.TransactionHash, entities.ChainKindFelt),
		address.Canonical(fromRaw, entities.ChainKindFelt),
		address.Canonical(toRaw, entities.ChainKindFelt),
		combineU256(low, high),
		*ev.BlockNumber,
		0,
	)
	return &transfer
}

// combineU256 reconstructs (high << 128) + low
func combineU256(low, high *big.Int) *big.Int {
	value := new(big.Int).Lsh(high, 128)
	return value.Add(value, low)
}

// parseFelt parses a 0x-prefixed hex felt, or a decimal string
func parseFelt(raw string) (*big.Int, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, false
	}
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
		if s == "" {
			return nil, false
		}
	}
	v, ok := new(big.Int).SetString(s, base)
	if !ok || v.Sign() < 0 {
		return nil, false
	}
	return v, true
}
