package model

import (
	"database/sql"
	"encoding/json"
)

// NullString scans and stores like sql.NullString but marshals as a
// plain string or null, so API clients never see the Valid wrapper.
type NullString struct {
	sql.NullString
}

// NewNullString returns a NullString that is valid only for non-empty s.
func NewNullString(s string) NullString {
	if s == "" {
		return NullString{}
	}
	return NullString{sql.NullString{String: s, Valid: true}}
}

func (n NullString) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.String)
}

func (n *NullString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = NullString{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*n = NullString{sql.NullString{String: s, Valid: true}}
	return nil
}

// NullInt64 is the int64 counterpart of NullString.
type NullInt64 struct {
	sql.NullInt64
}

// NewNullInt64 returns a valid NullInt64 holding i.
func NewNullInt64(i int64) NullInt64 {
	return NullInt64{sql.NullInt64{Int64: i, Valid: true}}
}

func (n NullInt64) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Int64)
}

func (n *NullInt64) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = NullInt64{}
		return nil
	}
	var i int64
	if err := json.Unmarshal(data, &i); err != nil {
		return err
	}
	*n = NullInt64{sql.NullInt64{Int64: i, Valid: true}}
	return nil
}
