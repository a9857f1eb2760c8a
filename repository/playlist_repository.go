package repository

import (
	"context"
	"errors"
	"fmt"

	"mantrafm/model"

	"gorm.io/gorm"
)

// PlaylistRepository defines the interface for playlist operations.
// Playlists are process-global; they are not user-owned.
type PlaylistRepository interface {
	CreatePlaylist(ctx context.Context, playlist *model.Playlist) error
	GetPlaylistByID(ctx context.Context, id int64) (*model.Playlist, error)
	GetPlaylistByType(ctx context.Context, playlistType string) (*model.Playlist, error)
	GetAllPlaylists(ctx context.Context) ([]*model.Playlist, error)
}

// gormPlaylistRepository implements PlaylistRepository with GORM.
type gormPlaylistRepository struct {
	db *gorm.DB
}

// NewGormPlaylistRepository creates a new gormPlaylistRepository.
func NewGormPlaylistRepository(db *gorm.DB) PlaylistRepository {
	return &gormPlaylistRepository{db: db}
}

// CreatePlaylist inserts a playlist.
func (r *gormPlaylistRepository) CreatePlaylist(ctx context.Context, playlist *model.Playlist) error {
	if err := r.db.WithContext(ctx).Create(playlist).Error; err != nil {
		return fmt.Errorf("failed to create playlist: %w", err)
	}
	return nil
}

// GetPlaylistByID retrieves a playlist by ID.
func (r *gormPlaylistRepository) GetPlaylistByID(ctx context.Context, id int64) (*model.Playlist, error) {
	var playlist model.Playlist
	err := r.db.WithContext(ctx).First(&playlist, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get playlist %d: %w", id, err)
	}
	return &playlist, nil
}

// GetPlaylistByType retrieves the first playlist with the given type tag.
func (r *gormPlaylistRepository) GetPlaylistByType(ctx context.Context, playlistType string) (*model.Playlist, error) {
	var playlist model.Playlist
	err := r.db.WithContext(ctx).Where("type = ?", playlistType).Order("created_at").First(&playlist).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get playlist by type %q: %w", playlistType, err)
	}
	return &playlist, nil
}

// GetAllPlaylists retrieves all playlists, oldest first.
func (r *gormPlaylistRepository) GetAllPlaylists(ctx context.Context) ([]*model.Playlist, error) {
	var playlists []*model.Playlist
	if err := r.db.WithContext(ctx).Order("created_at").Find(&playlists).Error; err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}
	return playlists, nil
}
