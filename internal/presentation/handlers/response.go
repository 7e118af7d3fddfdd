package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/bimakw/recipient-scanner/internal/domain/entities"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps the engine's input errors to client errors
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var invalid *entities.InvalidAddressError
	switch {
	case errors.As(err, &invalid):
		respondError(w, http.StatusBadRequest, invalid.Error())
	case errors.Is(err, entities.ErrUnsupportedChain):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		logger.Error("Request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
