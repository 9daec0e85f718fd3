package server

import (
	"encoding/json"
	"net/http"

	"melodex/config"
	"melodex/core/library"
	"melodex/core/stream"
	"melodex/logger"
	"melodex/repository"
)

// APIHandler handles all API requests.
type APIHandler struct {
	trackRepo  repository.TrackRepository
	artistRepo repository.ArtistRepository
	scanner    *library.Scanner
	responder  *stream.Responder
	cfg        *config.Config
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(
	trackRepo repository.TrackRepository,
	artistRepo repository.ArtistRepository,
	scanner *library.Scanner,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		trackRepo:  trackRepo,
		artistRepo: artistRepo,
		scanner:    scanner,
		responder:  &stream.Responder{ChunkSize: cfg.StreamChunkSize},
		cfg:        cfg,
	}
}

// writeJSON encodes payload as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("Failed to encode JSON response", logger.ErrorField(err))
	}
}

// writeError sends a JSON error body.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
