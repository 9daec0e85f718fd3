package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"melodex/config"
	"melodex/core/library"
	"melodex/model"
)

// fakeTrackRepo is an in-memory TrackRepository for handler tests.
type fakeTrackRepo struct {
	mu     sync.Mutex
	seq    int64
	tracks map[int64]*model.Track
}

func newFakeTrackRepo() *fakeTrackRepo {
	return &fakeTrackRepo{tracks: make(map[int64]*model.Track)}
}

func (r *fakeTrackRepo) add(track *model.Track) *model.Track {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	track.ID = r.seq
	r.tracks[track.ID] = track
	return track
}

func (r *fakeTrackRepo) CreateTrack(track *model.Track) (int64, error) {
	return r.add(track).ID, nil
}

func (r *fakeTrackRepo) GetTrackByID(id int64) (*model.Track, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tracks[id]; ok {
		copy := *t
		return &copy, nil
	}
	return nil, nil
}

func (r *fakeTrackRepo) GetTracksByArtistID(artistID int64) ([]*model.Track, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Track, 0)
	for _, t := range r.tracks {
		if t.ArtistID == artistID {
			copy := *t
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (r *fakeTrackRepo) GetAllTracks() ([]*model.Track, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Track, 0, len(r.tracks))
	for _, t := range r.tracks {
		copy := *t
		out = append(out, &copy)
	}
	return out, nil
}

func (r *fakeTrackRepo) SearchTracks(keyword string) ([]*model.Track, error) {
	return r.GetAllTracks()
}

func (r *fakeTrackRepo) GetTopPlayed(limit int) ([]*model.Track, error) {
	return r.GetAllTracks()
}

func (r *fakeTrackRepo) IncrementPlayCount(id int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tracks[id]
	if !ok {
		return 0, sql.ErrNoRows
	}
	t.PlayCount++
	return t.PlayCount, nil
}

func (r *fakeTrackRepo) CountTracks() (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.tracks)), nil
}

// fakeArtistRepo is an in-memory ArtistRepository for handler tests.
type fakeArtistRepo struct {
	mu      sync.Mutex
	seq     int64
	artists map[string]*model.Artist
}

func newFakeArtistRepo() *fakeArtistRepo {
	return &fakeArtistRepo{artists: make(map[string]*model.Artist)}
}

func (r *fakeArtistRepo) CreateIfAbsent(artist *model.Artist) (*model.Artist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.artists[artist.NameKey]; ok {
		copy := *a
		return &copy, nil
	}
	r.seq++
	stored := *artist
	stored.ID = r.seq
	r.artists[artist.NameKey] = &stored
	copy := stored
	return &copy, nil
}

func (r *fakeArtistRepo) GetArtistByID(id int64) (*model.Artist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.artists {
		if a.ID == id {
			copy := *a
			return &copy, nil
		}
	}
	return nil, nil
}

func (r *fakeArtistRepo) GetArtistByNameKey(nameKey string) (*model.Artist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.artists[nameKey]; ok {
		copy := *a
		return &copy, nil
	}
	return nil, nil
}

func (r *fakeArtistRepo) GetAllArtists() ([]*model.Artist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Artist, 0, len(r.artists))
	for _, a := range r.artists {
		copy := *a
		out = append(out, &copy)
	}
	return out, nil
}

func (r *fakeArtistRepo) CountArtists() (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.artists)), nil
}

func newTestRouter(t *testing.T, trackRepo *fakeTrackRepo, artistRepo *fakeArtistRepo, libraryPath string) *mux.Router {
	t.Helper()
	cfg := &config.Config{
		LibraryPath:     libraryPath,
		ScanWorkers:     2,
		StreamChunkSize: config.DefaultChunkSize,
	}

	scanner := library.NewScanner(cfg, artistRepo, trackRepo)
	h := NewAPIHandler(trackRepo, artistRepo, scanner, cfg)

	router := mux.NewRouter()
	router.HandleFunc("/api/songs", h.GetTracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/songs/top", h.GetTopTracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/songs/{id}", h.GetTrackHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/songs/{id}/play", h.PlayTrackHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/artists/{id}/songs", h.GetArtistTracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/admin/library/scan", h.ScanLibraryHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/admin/library/stats", h.LibraryStatsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/stream/{track_id}", h.StreamTrackHandler).Methods(http.MethodGet)
	return router
}

func seedTrackWithFile(t *testing.T, repo *fakeTrackRepo, size int) *model.Track {
	t.Helper()
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 199)
	}
	path := filepath.Join(t.TempDir(), "seeded.mp3")
	require.NoError(t, os.WriteFile(path, data, 0644))

	return repo.add(&model.Track{
		ArtistID: 1,
		Title:    "Seeded Song",
		FilePath: path,
	})
}

func TestStreamUnknownTrackIs404(t *testing.T) {
	router := newTestRouter(t, newFakeTrackRepo(), newFakeArtistRepo(), t.TempDir())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stream/42", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, rec.Body.Len())
}

func TestStreamNonNumericTrackIs404(t *testing.T) {
	router := newTestRouter(t, newFakeTrackRepo(), newFakeArtistRepo(), t.TempDir())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stream/abc", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStreamWholeTrack(t *testing.T) {
	trackRepo := newFakeTrackRepo()
	track := seedTrackWithFile(t, trackRepo, 1000)
	router := newTestRouter(t, trackRepo, newFakeArtistRepo(), t.TempDir())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/stream/%d", track.ID), nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1000", rec.Header().Get("Content-Length"))
	assert.Equal(t, "bytes", rec.Header().Get("Accept-Ranges"))
	assert.Equal(t, 1000, rec.Body.Len())
}

func TestStreamRangeRequest(t *testing.T) {
	trackRepo := newFakeTrackRepo()
	track := seedTrackWithFile(t, trackRepo, 1000)
	router := newTestRouter(t, trackRepo, newFakeArtistRepo(), t.TempDir())

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/stream/%d", track.ID), nil)
	req.Header.Set("Range", "bytes=0-9")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, "bytes 0-9/1000", rec.Header().Get("Content-Range"))
	assert.Equal(t, 10, rec.Body.Len())
}

func TestStreamUnsatisfiableRange(t *testing.T) {
	trackRepo := newFakeTrackRepo()
	track := seedTrackWithFile(t, trackRepo, 1000)
	router := newTestRouter(t, trackRepo, newFakeArtistRepo(), t.TempDir())

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/stream/%d", track.ID), nil)
	req.Header.Set("Range", "bytes=995-1005")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, rec.Code)
	assert.Equal(t, "bytes */1000", rec.Header().Get("Content-Range"))
}

func TestStreamDeletedFileIs404(t *testing.T) {
	trackRepo := newFakeTrackRepo()
	track := seedTrackWithFile(t, trackRepo, 100)
	require.NoError(t, os.Remove(track.FilePath))
	router := newTestRouter(t, trackRepo, newFakeArtistRepo(), t.TempDir())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/stream/%d", track.ID), nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPlayTrackIncrementsCounter(t *testing.T) {
	trackRepo := newFakeTrackRepo()
	track := trackRepo.add(&model.Track{Title: "Played Song"})
	router := newTestRouter(t, trackRepo, newFakeArtistRepo(), t.TempDir())

	for want := int64(1); want <= 3; want++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/songs/%d/play", track.ID), nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]int64
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, want, body["playCount"])
	}
}

func TestPlayUnknownTrackIs404(t *testing.T) {
	router := newTestRouter(t, newFakeTrackRepo(), newFakeArtistRepo(), t.TempDir())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/songs/7/play", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLibraryStats(t *testing.T) {
	trackRepo := newFakeTrackRepo()
	artistRepo := newFakeArtistRepo()
	trackRepo.add(&model.Track{Title: "One"})
	trackRepo.add(&model.Track{Title: "Two"})
	_, err := artistRepo.CreateIfAbsent(&model.Artist{Name: "Somebody", NameKey: "somebody"})
	require.NoError(t, err)

	libraryPath := t.TempDir()
	router := newTestRouter(t, trackRepo, artistRepo, libraryPath)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/library/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var stats struct {
		TotalSongs       int64    `json:"totalSongs"`
		TotalArtists     int64    `json:"totalArtists"`
		LibraryPath      string   `json:"libraryPath"`
		SupportedFormats []string `json:"supportedFormats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, int64(2), stats.TotalSongs)
	assert.Equal(t, int64(1), stats.TotalArtists)
	assert.Equal(t, libraryPath, stats.LibraryPath)
	assert.Contains(t, stats.SupportedFormats, "flac")
}

func TestScanEndpointImportsAndReports(t *testing.T) {
	libraryPath := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(libraryPath, "New Song.mp3"), []byte("junk"), 0644))

	trackRepo := newFakeTrackRepo()
	artistRepo := newFakeArtistRepo()
	router := newTestRouter(t, trackRepo, artistRepo, libraryPath)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/library/scan", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var report model.ScanReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, model.ScanStatusSuccess, report.Status)
	assert.Equal(t, 1, report.ScannedFiles)
	assert.Equal(t, 1, report.ImportedSongs)
	assert.Empty(t, report.Errors)
}

func TestScanEndpointMissingRoot(t *testing.T) {
	router := newTestRouter(t, newFakeTrackRepo(), newFakeArtistRepo(), filepath.Join(t.TempDir(), "missing"))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/library/scan", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var report model.ScanReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, model.ScanStatusError, report.Status)
	assert.NotEmpty(t, report.Message)
	assert.Zero(t, report.ScannedFiles)
}

func TestGetTrackHandler(t *testing.T) {
	trackRepo := newFakeTrackRepo()
	track := trackRepo.add(&model.Track{Title: "Lookup Song"})
	router := newTestRouter(t, trackRepo, newFakeArtistRepo(), t.TempDir())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/songs/%d", track.ID), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got model.Track
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Lookup Song", got.Title)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/songs/999", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
