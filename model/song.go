package model

import "time"

// SongStatus is the lifecycle state of a generated song.
type SongStatus string

const (
	// StatusGenerating is the initial state: lyrics exist, audio is pending.
	StatusGenerating SongStatus = "generating"
	// StatusCompleted is terminal; AudioURL must be non-empty.
	StatusCompleted SongStatus = "completed"
	// StatusError is terminal; AudioURL must be empty.
	StatusError SongStatus = "error"
)

// Valid reports whether s is a known status.
func (s SongStatus) Valid() bool {
	switch s {
	case StatusGenerating, StatusCompleted, StatusError:
		return true
	}
	return false
}

// Terminal reports whether s admits no further transitions.
func (s SongStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// CanTransition reports whether a song may move from s to next.
// Only generating -> completed and generating -> error are allowed.
func (s SongStatus) CanTransition(next SongStatus) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	return s == StatusGenerating && next.Terminal()
}

// Genres selectable for generation.
var Genres = []string{"soul", "blues", "hip-hop", "reggae", "pop", "acoustic"}

// PlaylistTypes assignable to a song. "custom" exists only as a playlist
// type, not a song tag.
var PlaylistTypes = []string{"morning", "daytime", "bedtime"}

// VocalGenders accepted by the synthesis service.
var VocalGenders = []string{"male", "female"}

// VocalStyles accepted by the synthesis service.
var VocalStyles = []string{"warm", "powerful", "soft", "energetic", "soulful", "gritty"}

// ValidGenre reports whether g is a selectable genre.
func ValidGenre(g string) bool { return contains(Genres, g) }

// ValidPlaylistType reports whether t is a song playlist tag.
func ValidPlaylistType(t string) bool { return contains(PlaylistTypes, t) }

// ValidVocalGender reports whether g is a known vocal gender.
func ValidVocalGender(g string) bool { return contains(VocalGenders, g) }

// ValidVocalStyle reports whether s is a known vocal style.
func ValidVocalStyle(s string) bool { return contains(VocalStyles, s) }

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// Song represents one generation attempt and its resulting lyrics/audio.
type Song struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"userId"`
	MantraID       NullInt64  `json:"mantraId"`
	Title          string     `json:"title"`
	Genre          string     `json:"genre"`
	Rhythm         NullString `json:"rhythm"`
	Lyrics         string     `json:"lyrics"`
	AudioURL       NullString `json:"audioUrl"`
	Status         SongStatus `json:"status"`
	PlaylistType   NullString `json:"playlistType"`
	VocalGender    NullString `json:"vocalGender"`
	VocalStyle     NullString `json:"vocalStyle"`
	UseExactLyrics bool       `json:"useExactLyrics"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}
