package adapters

import (
	"sync"

	"github.com/bimakw/recipient-scanner/internal/domain/entities"
)

// Registry maps chain ids to their configuration and, when configured, a live adapter.
// Chains registered without an adapter run in demo mode.
type Registry struct {
	mu       sync.RWMutex
	order    []string
	chains   map[string]entities.ChainConfig
	adapters map[string]ChainAdapter
	notices  map[string]string
}

// NewRegistry creates a registry for the given chains, all initially unconfigured
func NewRegistry(chains []entities.ChainConfig) *Registry {
	r := &Registry{
		chains:   make(map[string]entities.ChainConfig, len(chains)),
		adapters: make(map[string]ChainAdapter),
		notices:  make(map[string]string),
	}
	for _, c := range chains {
		if _, ok := r.chains[c.ID]; !ok {
			r.order = append(r.order, c.ID)
		}
		r.chains[c.ID] = c
	}
	return r
}

// Register attaches a live adapter to a chain
func (r *Registry) Register(chainID string, adapter ChainAdapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[chainID] = adapter
	delete(r.notices, chainID)
}

// SetNotice records why a chain has no live adapter
func (r *Registry) SetNotice(chainID, notice string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices[chainID] = notice
}

// Chain returns the configuration for a chain id
func (r *Registry) Chain(chainID string) (entities.ChainConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.chains[chainID]
	return c, ok
}

// Chains returns all chains in registration order
func (r *Registry) Chains() []entities.ChainConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entities.ChainConfig, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.chains[id])
	}
	return out
}

// Resolve returns the chain's adapter and mode.
// When the chain is unconfigured the adapter is nil and notice explains why.
func (r *Registry) Resolve(chainID string) (adapter ChainAdapter, mode entities.Mode, notice string, err error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.chains[chainID]; !ok {
		return nil, "", "", entities.ErrUnsupportedChain
	}
	if a, ok := r.adapters[chainID]; ok {
		return a, entities.ModeLive, "", nil
	}
	return nil, entities.ModeUnconfigured, r.notices[chainID], nil
}
