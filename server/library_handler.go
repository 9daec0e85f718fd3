package server

import (
	"net/http"

	"melodex/core/library"
	"melodex/logger"
	"melodex/model"
)

// ScanLibraryHandler runs a library scan synchronously and returns the
// scan report. The scanner serializes invocations internally, so a second
// trigger waits for the running scan to finish.
func (h *APIHandler) ScanLibraryHandler(w http.ResponseWriter, r *http.Request) {
	report := h.scanner.Scan(r.Context())

	status := http.StatusOK
	if report.Status == model.ScanStatusError {
		// Fatal precondition (library root missing), not a partial result.
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, report)
}

// LibraryStatsHandler returns read-only catalog statistics.
func (h *APIHandler) LibraryStatsHandler(w http.ResponseWriter, r *http.Request) {
	totalSongs, err := h.trackRepo.CountTracks()
	if err != nil {
		logger.Error("Failed to count tracks", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "failed to read library stats")
		return
	}

	totalArtists, err := h.artistRepo.CountArtists()
	if err != nil {
		logger.Error("Failed to count artists", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "failed to read library stats")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"totalSongs":       totalSongs,
		"totalArtists":     totalArtists,
		"libraryPath":      h.cfg.LibraryPath,
		"supportedFormats": library.SupportedFormats(),
	})
}
