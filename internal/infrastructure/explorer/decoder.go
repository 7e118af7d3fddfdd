package explorer

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/bimakw/recipient-scanner/internal/domain/address"
	"github.com/bimakw/recipient-scanner/internal/domain/entities"
)

// txRow is one row of a tokentx or txlist result
type txRow struct {
	BlockNumber     string `json:"blockNumber"`
	TimeStamp       string `json:"timeStamp"`
	Hash            string `json:"hash"`
	From            string `json:"from"`
	To              string `json:"to"`
	Value           string `json:"value"`
	ContractAddress string `json:"contractAddress"`
	TokenSymbol     string `json:"tokenSymbol"`
	IsError         string `json:"isError"`
}

// decodeRows maps a result array to transfers.
// Malformed rows are counted in skipped; a non-array result is a decode error.
func decodeRows(result json.RawMessage, native bool, nativeSymbol string) ([]entities.Transfer, int, int, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(result, &raw); err != nil {
		return nil, 0, 0, fmt.Errorf("result is not a list: %v: %w", err, entities.ErrDecode)
	}

	transfers := make([]entities.Transfer, 0, len(raw))
	skipped := 0
	for _, item := range raw {
		var row txRow
		if err := json.Unmarshal(item, &row); err != nil {
			skipped++
			continue
		}

		transfer, err := decodeRow(row, native)
		if err != nil {
			skipped++
			continue
		}
		if transfer == nil {
			continue
		}
		if native {
			transfer.TokenSymbol = nativeSymbol
		}
		transfers = append(transfers, *transfer)
	}

	return transfers, skipped, len(raw), nil
}

// decodeRow maps a single row. It returns nil without error for well-formed rows
// that do not represent a value movement (failed, zero-value or contract creation
// transactions in native mode).
func decodeRow(row txRow, native bool) (*entities.Transfer, error) {
	if row.Hash == "" {
		return nil, fmt.Errorf("missing hash: %w", entities.ErrDecode)
	}

	if native {
		if row.IsError == "1" || row.Value == "0" || row.To == "" {
			return nil, nil
		}
	}

	from, err := address.Normalize(row.From, entities.ChainKindEVM)
	if err != nil {
		return nil, fmt.Errorf("bad from: %v: %w", err, entities.ErrDecode)
	}
	to, err := address.Normalize(row.To, entities.ChainKindEVM)
	if err != nil {
		return nil, fmt.Errorf("bad to: %v: %w", err, entities.ErrDecode)
	}

	value, ok := new(big.Int).SetString(strings.TrimSpace(row.Value), 10)
	if !ok || value.Sign() < 0 {
		return nil, fmt.Errorf("bad value %q: %w", row.Value, entities.ErrDecode)
	}

	blockNumber, err := strconv.ParseUint(row.BlockNumber, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad block number %q: %w", row.BlockNumber, entities.ErrDecode)
	}

	var timestamp uint64
	if row.TimeStamp != "" {
		timestamp, err = strconv.ParseUint(row.TimeStamp, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad timestamp %q: %w", row.TimeStamp, entities.ErrDecode)
		}
	}

	transfer := entities.NewTransfer(strings.ToLower(row.Hash), from.Canonical, to.Canonical, value, blockNumber, timestamp)
	transfer.TokenSymbol = row.TokenSymbol
	return &transfer, nil
}

// parseAmount parses a decimal balance result, which the API returns as a JSON string
func parseAmount(result json.RawMessage) (*big.Int, error) {
	var s string
	if err := json.Unmarshal(result, &s); err != nil {
		return nil, fmt.Errorf("balance is not a string: %v: %w", err, entities.ErrDecode)
	}
	value, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok || value.Sign() < 0 {
		return nil, fmt.Errorf("bad balance %q: %w", s, entities.ErrDecode)
	}
	return value, nil
}
