package entities

import (
	"math/big"
)

// BalancePending marks a recipient whose balance has not been resolved yet
const BalancePending = "pending"

// RecipientAggregate accumulates transfers to one recipient during a scan
type RecipientAggregate struct {
	Address       string
	TotalReceived *big.Int
	TransferCount int
	LastBlock     uint64
	LastTimestamp uint64
}

// Add folds a transfer into the aggregate
func (r *RecipientAggregate) Add(t Transfer) {
	if r.TotalReceived == nil {
		r.TotalReceived = new(big.Int)
	}
	if t.Value != nil {
		r.TotalReceived.Add(r.TotalReceived, t.Value)
	}
	r.TransferCount++
	if t.BlockNumber > r.LastBlock {
		r.LastBlock = t.BlockNumber
	}
	if t.Timestamp > r.LastTimestamp {
		r.LastTimestamp = t.Timestamp
	}
}

// Clone returns a deep copy safe to hand to observers
func (r *RecipientAggregate) Clone() *RecipientAggregate {
	c := *r
	c.TotalReceived = new(big.Int)
	if r.TotalReceived != nil {
		c.TotalReceived.Set(r.TotalReceived)
	}
	return &c
}

// RecipientAnalysis is the output view of a recipient
type RecipientAnalysis struct {
	Address          string `json:"address"`
	TotalReceived    string `json:"total_received"`
	CurrentBalance   string `json:"current_balance"`
	TransferCount    int    `json:"transfer_count"`
	LastTransferTime string `json:"last_transfer_time"`
	BalanceFailed    bool   `json:"balance_failed,omitempty"`
	ExplorerURL      string `json:"explorer_url,omitempty"`
}
