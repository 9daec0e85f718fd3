package server

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"melodex/logger"
)

// GetArtistsHandler returns all artists in the catalog.
func (h *APIHandler) GetArtistsHandler(w http.ResponseWriter, r *http.Request) {
	artists, err := h.artistRepo.GetAllArtists()
	if err != nil {
		logger.Error("Failed to list artists", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "failed to list artists")
		return
	}
	writeJSON(w, http.StatusOK, artists)
}

// GetArtistHandler returns a single artist by ID.
func (h *APIHandler) GetArtistHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := artistIDFromRequest(w, r)
	if !ok {
		return
	}

	artist, err := h.artistRepo.GetArtistByID(id)
	if err != nil {
		logger.Error("Failed to get artist", logger.Int64("artistId", id), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "failed to get artist")
		return
	}
	if artist == nil {
		writeError(w, http.StatusNotFound, "artist not found")
		return
	}

	writeJSON(w, http.StatusOK, artist)
}

// GetArtistTracksHandler returns all tracks by one artist.
func (h *APIHandler) GetArtistTracksHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := artistIDFromRequest(w, r)
	if !ok {
		return
	}

	artist, err := h.artistRepo.GetArtistByID(id)
	if err != nil {
		logger.Error("Failed to get artist", logger.Int64("artistId", id), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "failed to get artist")
		return
	}
	if artist == nil {
		writeError(w, http.StatusNotFound, "artist not found")
		return
	}

	tracks, err := h.trackRepo.GetTracksByArtistID(id)
	if err != nil {
		logger.Error("Failed to list artist tracks", logger.Int64("artistId", id), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "failed to list artist tracks")
		return
	}

	writeJSON(w, http.StatusOK, tracks)
}

func artistIDFromRequest(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid artist id")
		return 0, false
	}
	return id, true
}
