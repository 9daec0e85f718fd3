package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"melodex/model"
)

// ArtistRepository defines the interface for artist data operations.
type ArtistRepository interface {
	// CreateIfAbsent inserts the artist unless one with the same NameKey
	// already exists, and returns the stored row either way. The operation
	// is atomic with respect to concurrent callers.
	CreateIfAbsent(artist *model.Artist) (*model.Artist, error)
	GetArtistByID(id int64) (*model.Artist, error)
	GetArtistByNameKey(nameKey string) (*model.Artist, error)
	GetAllArtists() ([]*model.Artist, error)
	CountArtists() (int64, error)
}

// gormArtistRepository implements ArtistRepository on GORM.
type gormArtistRepository struct {
	db *gorm.DB
}

// NewGormArtistRepository creates a new instance of gormArtistRepository.
func NewGormArtistRepository(db *gorm.DB) ArtistRepository {
	return &gormArtistRepository{db: db}
}

// CreateIfAbsent relies on the unique index on name_key: a losing insert
// is a no-op and the winner's row is fetched back.
func (r *gormArtistRepository) CreateIfAbsent(artist *model.Artist) (*model.Artist, error) {
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name_key"}},
		DoNothing: true,
	}).Create(artist).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create artist %q: %w", artist.Name, err)
	}

	stored, err := r.GetArtistByNameKey(artist.NameKey)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("artist %q missing after create", artist.Name)
	}
	return stored, nil
}

// GetArtistByID retrieves an artist by ID. Returns (nil, nil) when absent.
func (r *gormArtistRepository) GetArtistByID(id int64) (*model.Artist, error) {
	artist := &model.Artist{}
	err := r.db.First(artist, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get artist by ID %d: %w", id, err)
	}
	return artist, nil
}

// GetArtistByNameKey retrieves an artist by its normalized name key.
// Returns (nil, nil) when absent.
func (r *gormArtistRepository) GetArtistByNameKey(nameKey string) (*model.Artist, error) {
	artist := &model.Artist{}
	err := r.db.Where("name_key = ?", nameKey).First(artist).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get artist by name key %q: %w", nameKey, err)
	}
	return artist, nil
}

// GetAllArtists retrieves all artists ordered by name.
func (r *gormArtistRepository) GetAllArtists() ([]*model.Artist, error) {
	artists := make([]*model.Artist, 0)
	if err := r.db.Order("name").Find(&artists).Error; err != nil {
		return nil, fmt.Errorf("failed to list artists: %w", err)
	}
	return artists, nil
}

// CountArtists returns the number of artists in the catalog.
func (r *gormArtistRepository) CountArtists() (int64, error) {
	var count int64
	if err := r.db.Model(&model.Artist{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count artists: %w", err)
	}
	return count, nil
}
