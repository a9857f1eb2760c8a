package model

import "time"

// Mantra is a user's written affirmation, the raw input for song generation.
// Mantras are immutable once created; resubmitting the same text creates a
// new row.
type Mantra struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}
