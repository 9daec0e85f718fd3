package db

import (
	"database/sql"
	"fmt"
	"log"

	"melodex/config"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

var DB *sql.DB

// ConnectDB establishes a connection to the database.
func ConnectDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to the database.")
	return nil
}

// InitDB initializes the database schema, creating tables if they don't exist.
func InitDB() error {
	if err := createArtistsTable(); err != nil {
		return err
	}
	if err := createTracksTable(); err != nil {
		return err
	}
	log.Println("Database initialization completed.")
	return nil
}

func createArtistsTable() error {
	// The unique index on name_key backs the atomic create-if-absent used
	// by the library scanner: concurrent inserts for the same normalized
	// name collide here instead of producing duplicate rows.
	query := `
	CREATE TABLE IF NOT EXISTS artists (
		id INT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		name_key VARCHAR(255) NOT NULL,
		bio TEXT,
		country VARCHAR(100),
		follower_count BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT uq_artist_name_key UNIQUE (name_key)
	);
	`
	_, err := DB.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create artists table: %w", err)
	}
	return nil
}

func createTracksTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS tracks (
		id INT AUTO_INCREMENT PRIMARY KEY,
		artist_id INT NOT NULL,
		title VARCHAR(255) NOT NULL,
		album VARCHAR(255),
		genre VARCHAR(100),
		duration INT NOT NULL DEFAULT 0,
		file_path VARCHAR(767) NOT NULL,
		cover_path VARCHAR(767),
		play_count BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		released_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT fk_artist_tracks FOREIGN KEY (artist_id) REFERENCES artists(id),
		CONSTRAINT uq_track_file_path UNIQUE (file_path),
		INDEX idx_tracks_artist (artist_id)
	);
	`
	_, err := DB.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create tracks table: %w", err)
	}
	return nil
}
