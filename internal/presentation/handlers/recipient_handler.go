package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/bimakw/recipient-scanner/internal/application/services"
	"github.com/bimakw/recipient-scanner/internal/domain/entities"
)

// RecipientHandler serves recipient analyses
type RecipientHandler struct {
	service *services.RecipientService
	logger  *zap.Logger
}

// NewRecipientHandler creates a new recipient handler
func NewRecipientHandler(service *services.RecipientService, logger *zap.Logger) *RecipientHandler {
	return &RecipientHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the recipient routes
func (h *RecipientHandler) RegisterRoutes(r chi.Router) {
	r.Get("/chains/{chain}/recipients", h.GetRecipients)
	r.Get("/chains/{chain}/recipients/stream", h.StreamRecipients)
}

// StreamEvent is one line of the NDJSON recipient stream
type StreamEvent struct {
	Type     string                   `json:"type"`
	Progress *entities.ScanProgress   `json:"progress,omitempty"`
	Partial  *entities.PartialResults `json:"partial,omitempty"`
	Result   *entities.ScanResult     `json:"result,omitempty"`
}

const (
	eventProgress = "progress"
	eventPartial  = "partial"
	eventResult   = "result"
)

// GetRecipients handles GET /chains/{chain}/recipients
func (h *RecipientHandler) GetRecipients(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ScanRecipients(r.Context(), scanRequest(r), nil)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// StreamRecipients handles GET /chains/{chain}/recipients/stream.
// Progress and partial results are flushed as they happen; the last line carries the result.
func (h *RecipientHandler) StreamRecipients(w http.ResponseWriter, r *http.Request) {
	stream := &ndjsonStream{w: w, logger: h.logger}
	stream.flusher, _ = w.(http.Flusher)

	observer := services.ObserverFuncs{
		Progress: func(p entities.ScanProgress) {
			stream.send(StreamEvent{Type: eventProgress, Progress: &p})
		},
		Partial: func(p entities.PartialResults) {
			stream.send(StreamEvent{Type: eventPartial, Partial: &p})
		},
	}

	result, err := h.service.ScanRecipients(r.Context(), scanRequest(r), observer)
	if err != nil {
		if !stream.started {
			respondServiceError(w, h.logger, err)
			return
		}
		h.logger.Error("Recipient stream failed", zap.Error(err))
		return
	}

	stream.send(StreamEvent{Type: eventResult, Result: result})
}

func scanRequest(r *http.Request) services.ScanRequest {
	return services.ScanRequest{
		ChainID:  chi.URLParam(r, "chain"),
		Wallet:   r.URL.Query().Get("wallet"),
		Contract: r.URL.Query().Get("contract"),
		Abort:    r.Context().Done(),
	}
}

// ndjsonStream writes one JSON document per line, sending headers on first use
type ndjsonStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	logger  *zap.Logger
	started bool
	failed  bool
}

func (s *ndjsonStream) send(event StreamEvent) {
	if s.failed {
		return
	}
	if !s.started {
		s.w.Header().Set("Content-Type", "application/x-ndjson")
		s.w.Header().Set("Cache-Control", "no-cache")
		s.w.Header().Set("X-Content-Type-Options", "nosniff")
		s.w.WriteHeader(http.StatusOK)
		s.started = true
	}

	if err := json.NewEncoder(s.w).Encode(event); err != nil {
		s.logger.Debug("Stream client gone", zap.Error(err))
		s.failed = true
		return
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
}
