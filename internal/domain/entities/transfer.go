package entities

import (
	"math/big"
)

// Transfer is a single decoded token or native-coin movement.
// From and To hold canonical addresses.
type Transfer struct {
	TxHash      string   `json:"tx_hash"`
	From        string   `json:"from"`
	To          string   `json:"to"`
	Value       *big.Int `json:"-"`
	ValueString string   `json:"value"`
	BlockNumber uint64   `json:"block_number"`
	// Timestamp is the block time in unix seconds, zero when the source only knows the height
	Timestamp   uint64 `json:"timestamp,omitempty"`
	TokenSymbol string `json:"token_symbol,omitempty"`
	ExplorerURL string `json:"explorer_url,omitempty"`
}

// NewTransfer builds a Transfer keeping Value and ValueString in sync
func NewTransfer(txHash, from, to string, value *big.Int, blockNumber, timestamp uint64) Transfer {
	if value == nil {
		value = new(big.Int)
	}
	return Transfer{
		TxHash:      txHash,
		From:        from,
		To:          to,
		Value:       value,
		ValueString: value.String(),
		BlockNumber: blockNumber,
		Timestamp:   timestamp,
	}
}
