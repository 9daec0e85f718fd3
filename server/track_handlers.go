package server

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"melodex/cache"
	"melodex/logger"
	"melodex/model"
)

const topPlayedLimit = 10

// GetTracksHandler returns every track in the catalog, or the tracks
// matching ?q= when a search keyword is present.
func (h *APIHandler) GetTracksHandler(w http.ResponseWriter, r *http.Request) {
	var (
		tracks []*model.Track
		err    error
	)

	if keyword := r.URL.Query().Get("q"); keyword != "" {
		tracks, err = h.trackRepo.SearchTracks(keyword)
	} else {
		tracks, err = h.trackRepo.GetAllTracks()
	}
	if err != nil {
		logger.Error("Failed to list tracks", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "failed to list tracks")
		return
	}

	writeJSON(w, http.StatusOK, tracks)
}

// GetTopTracksHandler returns the most played tracks.
func (h *APIHandler) GetTopTracksHandler(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.trackRepo.GetTopPlayed(topPlayedLimit)
	if err != nil {
		logger.Error("Failed to get top tracks", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "failed to get top tracks")
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

// GetTrackHandler returns a single track by ID.
func (h *APIHandler) GetTrackHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := trackIDFromRequest(w, r)
	if !ok {
		return
	}

	track, err := h.trackRepo.GetTrackByID(id)
	if err != nil {
		logger.Error("Failed to get track", logger.Int64("trackId", id), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "failed to get track")
		return
	}
	if track == nil {
		writeError(w, http.StatusNotFound, "track not found")
		return
	}

	writeJSON(w, http.StatusOK, track)
}

// PlayTrackHandler records a play event: the track's play count is
// incremented once and the new value returned.
func (h *APIHandler) PlayTrackHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := trackIDFromRequest(w, r)
	if !ok {
		return
	}

	count, err := h.trackRepo.IncrementPlayCount(id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "track not found")
		return
	}
	if err != nil {
		logger.Error("Failed to increment play count", logger.Int64("trackId", id), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "failed to record play")
		return
	}

	// The cached copy carries the old counter; drop it.
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := cache.InvalidateTracks(ctx, id); err != nil {
		logger.Warn("Failed to invalidate track cache", logger.Int64("trackId", id), logger.ErrorField(err))
	}

	writeJSON(w, http.StatusOK, map[string]int64{"playCount": count})
}

func trackIDFromRequest(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid track id")
		return 0, false
	}
	return id, true
}
