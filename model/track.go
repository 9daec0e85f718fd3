package model

import "time"

// Track represents one playable audio item in the catalog.
type Track struct {
	ID         int64     `json:"id"`
	ArtistID   int64     `json:"artistId"`
	ArtistName string    `json:"artist,omitempty"` // Filled by joined queries, not a column of tracks
	Title      string    `json:"title"`
	Album      string    `json:"album"`
	Genre      string    `json:"genre"`
	Duration   int       `json:"duration"` // Duration in seconds
	FilePath   string    `json:"-"`        // Absolute path to the audio file, never exposed in the API
	CoverPath  string    `json:"coverPath"`
	PlayCount  int64     `json:"playCount"`
	CreatedAt  time.Time `json:"createdAt"`
	ReleasedAt time.Time `json:"releasedAt"`
}
