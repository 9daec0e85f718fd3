package repository

import (
	"database/sql"
	"fmt"
	"time"

	"melodex/model"
)

// TrackRepository defines the interface for track data operations.
type TrackRepository interface {
	CreateTrack(track *model.Track) (int64, error)
	GetTrackByID(id int64) (*model.Track, error)
	GetTracksByArtistID(artistID int64) ([]*model.Track, error)
	GetAllTracks() ([]*model.Track, error)
	SearchTracks(keyword string) ([]*model.Track, error)
	GetTopPlayed(limit int) ([]*model.Track, error)
	IncrementPlayCount(id int64) (int64, error)
	CountTracks() (int64, error)
}

// mysqlTrackRepository implements TrackRepository for MySQL.
type mysqlTrackRepository struct {
	DB *sql.DB
}

// NewMySQLTrackRepository creates a new instance of mysqlTrackRepository.
func NewMySQLTrackRepository(db *sql.DB) TrackRepository {
	return &mysqlTrackRepository{DB: db}
}

const trackColumns = `t.id, t.artist_id, a.name, t.title, t.album, t.genre, t.duration,
	t.file_path, t.cover_path, t.play_count, t.created_at, t.released_at`

func scanTrack(row interface{ Scan(dest ...any) error }) (*model.Track, error) {
	track := &model.Track{}
	err := row.Scan(&track.ID, &track.ArtistID, &track.ArtistName, &track.Title, &track.Album,
		&track.Genre, &track.Duration, &track.FilePath, &track.CoverPath, &track.PlayCount,
		&track.CreatedAt, &track.ReleasedAt)
	if err != nil {
		return nil, err
	}
	return track, nil
}

func (r *mysqlTrackRepository) queryTracks(query string, args ...any) ([]*model.Track, error) {
	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	tracks := make([]*model.Track, 0)
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track row: %w", err)
		}
		tracks = append(tracks, track)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during track rows iteration: %w", err)
	}

	return tracks, nil
}

// CreateTrack adds a new track to the database.
func (r *mysqlTrackRepository) CreateTrack(track *model.Track) (int64, error) {
	query := `INSERT INTO tracks (artist_id, title, album, genre, duration, file_path, cover_path, play_count, created_at, released_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := r.DB.Prepare(query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement for CreateTrack: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	if track.CreatedAt.IsZero() {
		track.CreatedAt = now
	}
	if track.ReleasedAt.IsZero() {
		track.ReleasedAt = now
	}

	res, err := stmt.Exec(track.ArtistID, track.Title, track.Album, track.Genre, track.Duration,
		track.FilePath, track.CoverPath, track.PlayCount, track.CreatedAt, track.ReleasedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to execute CreateTrack: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for CreateTrack: %w", err)
	}
	track.ID = id
	return id, nil
}

// GetTrackByID retrieves a track by its ID. Returns (nil, nil) when no
// track with that ID exists.
func (r *mysqlTrackRepository) GetTrackByID(id int64) (*model.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks t JOIN artists a ON a.id = t.artist_id WHERE t.id = ?`
	track, err := scanTrack(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan track by ID %d: %w", id, err)
	}
	return track, nil
}

// GetTracksByArtistID retrieves all tracks for one artist.
func (r *mysqlTrackRepository) GetTracksByArtistID(artistID int64) ([]*model.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks t JOIN artists a ON a.id = t.artist_id
	           WHERE t.artist_id = ? ORDER BY t.created_at DESC`
	return r.queryTracks(query, artistID)
}

// GetAllTracks retrieves all tracks from the database.
func (r *mysqlTrackRepository) GetAllTracks() ([]*model.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks t JOIN artists a ON a.id = t.artist_id
	           ORDER BY t.created_at DESC`
	return r.queryTracks(query)
}

// SearchTracks finds tracks whose title, artist name or album contains the
// keyword, case-insensitively.
func (r *mysqlTrackRepository) SearchTracks(keyword string) ([]*model.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks t JOIN artists a ON a.id = t.artist_id
	           WHERE LOWER(t.title) LIKE LOWER(?) OR LOWER(a.name) LIKE LOWER(?) OR LOWER(t.album) LIKE LOWER(?)
	           ORDER BY t.play_count DESC`
	pattern := "%" + keyword + "%"
	return r.queryTracks(query, pattern, pattern, pattern)
}

// GetTopPlayed retrieves the most played tracks.
func (r *mysqlTrackRepository) GetTopPlayed(limit int) ([]*model.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks t JOIN artists a ON a.id = t.artist_id
	           ORDER BY t.play_count DESC LIMIT ?`
	return r.queryTracks(query, limit)
}

// IncrementPlayCount bumps a track's play counter by one and returns the
// new value. The single UPDATE keeps the counter monotonic under
// concurrent play events.
func (r *mysqlTrackRepository) IncrementPlayCount(id int64) (int64, error) {
	res, err := r.DB.Exec(`UPDATE tracks SET play_count = play_count + 1 WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to increment play count for track %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows for play count update: %w", err)
	}
	if affected == 0 {
		return 0, sql.ErrNoRows
	}

	var count int64
	if err := r.DB.QueryRow(`SELECT play_count FROM tracks WHERE id = ?`, id).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to read play count for track %d: %w", id, err)
	}
	return count, nil
}

// CountTracks returns the number of tracks in the catalog.
func (r *mysqlTrackRepository) CountTracks() (int64, error) {
	var count int64
	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM tracks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count tracks: %w", err)
	}
	return count, nil
}
