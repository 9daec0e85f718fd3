package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"melodex/cache"
	"melodex/logger"
	"melodex/model"
)

// StreamTrackHandler serves the audio bytes of a track, honoring Range
// requests for seekable playback. Responses per outcome: 200 full body,
// 206 partial body with Content-Range, 404 unknown track or missing file,
// 416 invalid range, 500 read failure.
func (h *APIHandler) StreamTrackHandler(w http.ResponseWriter, r *http.Request) {
	idStr := mux.Vars(r)["track_id"]
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	track, err := h.resolveTrack(r, id)
	if err != nil {
		logger.Error("Failed to resolve track for streaming",
			logger.Int64("trackId", id),
			logger.ErrorField(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if track == nil || track.FilePath == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	h.responder.ServeFile(w, r, filePathOf(track))
}

// resolveTrack looks the track up in the Redis cache first and falls back
// to the repository, populating the cache on a miss. Cache errors are
// logged and treated as misses.
func (h *APIHandler) resolveTrack(r *http.Request, id int64) (*model.Track, error) {
	ctx := r.Context()

	track, err := cache.GetTrack(ctx, id)
	if err != nil {
		logger.Warn("Track cache lookup failed", logger.Int64("trackId", id), logger.ErrorField(err))
	}
	if track != nil {
		return track, nil
	}

	track, err = h.trackRepo.GetTrackByID(id)
	if err != nil {
		return nil, err
	}
	if track == nil {
		return nil, nil
	}

	if err := cache.SetTrack(ctx, track); err != nil {
		logger.Warn("Failed to cache track", logger.Int64("trackId", id), logger.ErrorField(err))
	}
	return track, nil
}

// filePathOf strips a legacy "file://" prefix that older imports stored in
// the file path column.
func filePathOf(track *model.Track) string {
	return strings.TrimPrefix(track.FilePath, "file://")
}
