package repository

import (
	"context"
	"database/sql"
	"fmt"

	"mantrafm/model"
)

const songColumns = "id, user_id, mantra_id, title, genre, rhythm, lyrics, audio_url, status, playlist_type, vocal_gender, vocal_style, use_exact_lyrics, created_at, updated_at"

// SongRepository defines the interface for song data operations.
// Every read and write is scoped to the owning user.
type SongRepository interface {
	CreateSong(ctx context.Context, song *model.Song) (int64, error)
	GetSongByID(ctx context.Context, id, userID int64) (*model.Song, error)
	GetSongsByUserID(ctx context.Context, userID int64) ([]*model.Song, error)
	GetSongsByPlaylistType(ctx context.Context, userID int64, playlistType string) ([]*model.Song, error)
	UpdateSongOutcome(ctx context.Context, id, userID int64, status model.SongStatus, audioURL string) error
	UpdateSongTitle(ctx context.Context, id, userID int64, title string) error
	DeleteSong(ctx context.Context, id, userID int64) error
}

// mysqlSongRepository implements SongRepository for MySQL.
type mysqlSongRepository struct {
	db *sql.DB
}

// NewMySQLSongRepository creates a new mysqlSongRepository.
func NewMySQLSongRepository(db *sql.DB) SongRepository {
	return &mysqlSongRepository{db: db}
}

// CreateSong inserts a new song record. The caller sets Status; a song
// entering the library mid-generation starts as StatusGenerating.
func (r *mysqlSongRepository) CreateSong(ctx context.Context, song *model.Song) (int64, error) {
	if !song.Status.Valid() {
		return 0, fmt.Errorf("invalid song status %q", song.Status)
	}

	query := `
		INSERT INTO songs (user_id, mantra_id, title, genre, rhythm, lyrics, audio_url, status, playlist_type, vocal_gender, vocal_style, use_exact_lyrics)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	res, err := r.db.ExecContext(ctx, query,
		song.UserID,
		song.MantraID,
		song.Title,
		song.Genre,
		song.Rhythm,
		song.Lyrics,
		song.AudioURL,
		string(song.Status),
		song.PlaylistType,
		song.VocalGender,
		song.VocalStyle,
		song.UseExactLyrics,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert song: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for song: %w", err)
	}
	return id, nil
}

// GetSongByID retrieves a song scoped to its owner.
func (r *mysqlSongRepository) GetSongByID(ctx context.Context, id, userID int64) (*model.Song, error) {
	query := fmt.Sprintf("SELECT %s FROM songs WHERE id = ? AND user_id = ?", songColumns)
	row := r.db.QueryRowContext(ctx, query, id, userID)

	song, err := scanSong(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan song row for ID %d: %w", id, err)
	}
	return song, nil
}

// GetSongsByUserID retrieves all of a user's songs, oldest first.
func (r *mysqlSongRepository) GetSongsByUserID(ctx context.Context, userID int64) ([]*model.Song, error) {
	query := fmt.Sprintf("SELECT %s FROM songs WHERE user_id = ? ORDER BY created_at", songColumns)
	return r.querySongs(ctx, query, userID)
}

// GetSongsByPlaylistType retrieves a user's songs tagged with the given
// playlist type. Membership is derived from the tag; there is no join table.
func (r *mysqlSongRepository) GetSongsByPlaylistType(ctx context.Context, userID int64, playlistType string) ([]*model.Song, error) {
	query := fmt.Sprintf("SELECT %s FROM songs WHERE user_id = ? AND playlist_type = ? ORDER BY created_at", songColumns)
	return r.querySongs(ctx, query, userID, playlistType)
}

// UpdateSongOutcome resolves a generating song to completed or error.
// The update is conditional on the row still being in the generating state,
// so terminal states are final and cross-user writes are impossible.
func (r *mysqlSongRepository) UpdateSongOutcome(ctx context.Context, id, userID int64, status model.SongStatus, audioURL string) error {
	if !model.StatusGenerating.CanTransition(status) {
		return fmt.Errorf("invalid status transition to %q", status)
	}
	if status == model.StatusCompleted && audioURL == "" {
		return fmt.Errorf("completed song requires an audio URL")
	}
	if status == model.StatusError && audioURL != "" {
		return fmt.Errorf("errored song must not carry an audio URL")
	}

	var audio sql.NullString
	if audioURL != "" {
		audio = sql.NullString{String: audioURL, Valid: true}
	}

	query := "UPDATE songs SET status = ?, audio_url = ?, updated_at = NOW() WHERE id = ? AND user_id = ? AND status = ?"
	res, err := r.db.ExecContext(ctx, query, string(status), audio, id, userID, string(model.StatusGenerating))
	if err != nil {
		return fmt.Errorf("failed to update song outcome: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("song %d not found for user %d or no longer generating", id, userID)
	}
	return nil
}

// UpdateSongTitle renames a song. Title is the only editable field.
func (r *mysqlSongRepository) UpdateSongTitle(ctx context.Context, id, userID int64, title string) error {
	query := "UPDATE songs SET title = ?, updated_at = NOW() WHERE id = ? AND user_id = ?"
	res, err := r.db.ExecContext(ctx, query, title, id, userID)
	if err != nil {
		return fmt.Errorf("failed to update song title: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("song %d not found for user %d", id, userID)
	}
	return nil
}

// DeleteSong removes a song scoped to its owner.
func (r *mysqlSongRepository) DeleteSong(ctx context.Context, id, userID int64) error {
	query := "DELETE FROM songs WHERE id = ? AND user_id = ?"
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete song: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("song %d not found for user %d", id, userID)
	}
	return nil
}

func (r *mysqlSongRepository) querySongs(ctx context.Context, query string, args ...interface{}) ([]*model.Song, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	var songs []*model.Song
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan song row: %w", err)
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating song rows: %w", err)
	}
	return songs, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSong(s scanner) (*model.Song, error) {
	song := &model.Song{}
	var status string
	err := s.Scan(
		&song.ID,
		&song.UserID,
		&song.MantraID,
		&song.Title,
		&song.Genre,
		&song.Rhythm,
		&song.Lyrics,
		&song.AudioURL,
		&status,
		&song.PlaylistType,
		&song.VocalGender,
		&song.VocalStyle,
		&song.UseExactLyrics,
		&song.CreatedAt,
		&song.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	song.Status = model.SongStatus(status)
	return song, nil
}
