package model

import "time"

// Playlist is a named bucket of songs. The three curated playlists
// (morning, daytime, bedtime) are process-wide and seeded at startup;
// users may add custom ones. Membership is derived by matching
// Song.PlaylistType against Playlist.Type, there is no join table.
type Playlist struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string    `json:"name" gorm:"size:255;not null"`
	Type        string    `json:"type" gorm:"size:32;not null;index"`
	Description string    `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName sets the gorm table name.
func (Playlist) TableName() string {
	return "playlists"
}
