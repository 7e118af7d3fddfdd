package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bimakw/recipient-scanner/internal/domain/adapters"
	"github.com/bimakw/recipient-scanner/internal/domain/entities"
)

// ChainHandler lists the chains the scanner serves
type ChainHandler struct {
	registry *adapters.Registry
}

// NewChainHandler creates a new chain handler
func NewChainHandler(registry *adapters.Registry) *ChainHandler {
	return &ChainHandler{registry: registry}
}

// ChainDTO is the API representation of a chain
type ChainDTO struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Kind               string `json:"kind"`
	ChainID            string `json:"chain_id"`
	ExplorerURL        string `json:"explorer_url"`
	NativeCurrency     string `json:"native_currency"`
	NativeTokenAddress string `json:"native_token_address,omitempty"`
	DefaultContract    string `json:"default_contract"`
	Mode               string `json:"mode"`
	Notice             string `json:"notice,omitempty"`
}

// RegisterRoutes registers the chain routes
func (h *ChainHandler) RegisterRoutes(r chi.Router) {
	r.Get("/chains", h.ListChains)
}

// ListChains handles GET /chains
func (h *ChainHandler) ListChains(w http.ResponseWriter, r *http.Request) {
	chains := h.registry.Chains()
	out := make([]ChainDTO, 0, len(chains))

	for _, c := range chains {
		_, mode, notice, _ := h.registry.Resolve(c.ID)
		dto := ChainDTO{
			ID:                 c.ID,
			Name:               c.Name,
			Kind:               string(c.Kind),
			ChainID:            c.ChainID,
			ExplorerURL:        c.ExplorerURL,
			NativeCurrency:     c.NativeCurrency,
			NativeTokenAddress: c.NativeTokenAddress,
			DefaultContract:    c.DefaultContract,
			Mode:               string(entities.ModeLive),
		}
		if mode != entities.ModeLive {
			dto.Mode = string(entities.ModeDemoFallback)
			dto.Notice = notice
		}
		out = append(out, dto)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"chains": out})
}
