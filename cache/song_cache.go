// Package cache keeps per-user song list snapshots in Redis so the
// playlist tabs don't hit MySQL on every refresh.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mantrafm/db"
	"mantrafm/model"

	"github.com/go-redis/redis/v8"
)

// songListTTL bounds staleness if an invalidation is ever missed.
const songListTTL = 10 * time.Minute

// SongListKey builds the Redis key for one user's list, keyed by
// playlist type ("all" for the unfiltered library).
func SongListKey(userID int64, playlistType string) string {
	if playlistType == "" {
		playlistType = "all"
	}
	return fmt.Sprintf("songs:%d:%s", userID, playlistType)
}

// GetSongList returns the cached list, or nil on a miss.
func GetSongList(ctx context.Context, userID int64, playlistType string) ([]*model.Song, error) {
	if db.RedisClient == nil {
		return nil, nil
	}

	raw, err := db.RedisClient.Get(ctx, SongListKey(userID, playlistType)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read song list cache: %w", err)
	}

	var songs []*model.Song
	if err := json.Unmarshal([]byte(raw), &songs); err != nil {
		return nil, fmt.Errorf("failed to decode cached song list: %w", err)
	}
	return songs, nil
}

// SetSongList stores the list with the standard TTL.
func SetSongList(ctx context.Context, userID int64, playlistType string, songs []*model.Song) error {
	if db.RedisClient == nil {
		return nil
	}

	raw, err := json.Marshal(songs)
	if err != nil {
		return fmt.Errorf("failed to encode song list: %w", err)
	}
	if err := db.RedisClient.Set(ctx, SongListKey(userID, playlistType), raw, songListTTL).Err(); err != nil {
		return fmt.Errorf("failed to write song list cache: %w", err)
	}
	return nil
}

// InvalidateSongLists drops every cached list for the user. Called
// after any song write so readers never see a stale status.
func InvalidateSongLists(ctx context.Context, userID int64) error {
	if db.RedisClient == nil {
		return nil
	}

	keys := []string{SongListKey(userID, ""), SongListKey(userID, "custom")}
	for _, t := range model.PlaylistTypes {
		keys = append(keys, SongListKey(userID, t))
	}
	if err := db.RedisClient.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate song list cache: %w", err)
	}
	return nil
}
