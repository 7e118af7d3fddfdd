package services

import (
	"sort"

	"github.com/bimakw/recipient-scanner/internal/domain/entities"
)

// Aggregator folds transfers into per-recipient totals keyed by canonical address.
// It remembers discovery order so sorting ties stay deterministic.
type Aggregator struct {
	order      []string
	recipients map[string]*entities.RecipientAggregate
	total      int
}

// NewAggregator creates an empty aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{
		recipients: make(map[string]*entities.RecipientAggregate),
	}
}

// Add folds one transfer into its recipient's aggregate
func (a *Aggregator) Add(t entities.Transfer) {
	agg, ok := a.recipients[t.To]
	if !ok {
		agg = &entities.RecipientAggregate{Address: t.To}
		a.recipients[t.To] = agg
		a.order = append(a.order, t.To)
	}
	agg.Add(t)
	a.total++
}

// Len returns the number of distinct recipients
func (a *Aggregator) Len() int {
	return len(a.order)
}

// TotalTransfers returns the number of transfers folded so far
func (a *Aggregator) TotalTransfers() int {
	return a.total
}

// Exclude drops the given recipients and their transfers from the totals.
// It returns how many transfers were removed.
func (a *Aggregator) Exclude(addresses []string) int {
	removed := 0
	for _, addr := range addresses {
		agg, ok := a.recipients[addr]
		if !ok {
			continue
		}
		removed += agg.TransferCount
		a.total -= agg.TransferCount
		delete(a.recipients, addr)

		for i, o := range a.order {
			if o == addr {
				a.order = append(a.order[:i], a.order[i+1:]...)
				break
			}
		}
	}
	return removed
}

// Sorted returns copies of the aggregates ordered by total received, largest first.
// Equal totals keep discovery order.
func (a *Aggregator) Sorted() []*entities.RecipientAggregate {
	out := make([]*entities.RecipientAggregate, 0, len(a.order))
	for _, addr := range a.order {
		out = append(out, a.recipients[addr].Clone())
	}
	SortAggregates(out)
	return out
}

// Fold groups transfers by canonical recipient
func Fold(transfers []entities.Transfer) map[string]*entities.RecipientAggregate {
	agg := NewAggregator()
	for _, t := range transfers {
		agg.Add(t)
	}
	return agg.recipients
}

// SortAggregates orders aggregates by total received, largest first, keeping the relative order of ties
func SortAggregates(aggs []*entities.RecipientAggregate) {
	sort.SliceStable(aggs, func(i, j int) bool {
		return aggs[i].TotalReceived.Cmp(aggs[j].TotalReceived) > 0
	})
}
