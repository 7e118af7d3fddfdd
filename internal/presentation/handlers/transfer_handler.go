package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/bimakw/recipient-scanner/internal/application/services"
)

// TransferHandler handles HTTP requests for outgoing transfers
type TransferHandler struct {
	service *services.TransferService
	logger  *zap.Logger
}

// NewTransferHandler creates a new transfer handler
func NewTransferHandler(service *services.TransferService, logger *zap.Logger) *TransferHandler {
	return &TransferHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the transfer routes
func (h *TransferHandler) RegisterRoutes(r chi.Router) {
	r.Get("/chains/{chain}/wallets/{wallet}/transfers", h.GetOutgoingTransfers)
}

// GetOutgoingTransfers handles GET /chains/{chain}/wallets/{wallet}/transfers
func (h *TransferHandler) GetOutgoingTransfers(w http.ResponseWriter, r *http.Request) {
	limit := services.DefaultTransferLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l <= 0 || l > services.MaxTransferLimit {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = l
	}

	result, err := h.service.ListOutgoing(r.Context(), services.ListRequest{
		ChainID:  chi.URLParam(r, "chain"),
		Wallet:   chi.URLParam(r, "wallet"),
		Contract: r.URL.Query().Get("contract"),
		Limit:    limit,
		Abort:    r.Context().Done(),
	})
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
