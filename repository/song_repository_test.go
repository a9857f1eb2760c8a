package repository

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"mantrafm/model"

	"github.com/DATA-DOG/go-sqlmock"
)

func songRows() *sqlmock.Rows {
	return sqlmock.NewRows(strings.Split(songColumns, ", "))
}

func TestGetSongByIDScopedToOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	repo := NewMySQLSongRepository(db)
	now := time.Now()

	// Owner sees the song.
	mock.ExpectQuery("SELECT .+ FROM songs WHERE id = \\? AND user_id = \\?").
		WithArgs(int64(7), int64(1)).
		WillReturnRows(songRows().AddRow(
			int64(7), int64(1), nil, "Rise Up", "soul", nil, "I rise", "https://cdn.example/7.mp3",
			"completed", nil, nil, nil, false, now, now,
		))

	song, err := repo.GetSongByID(context.Background(), 7, 1)
	if err != nil {
		t.Fatalf("GetSongByID: %v", err)
	}
	if song == nil || song.ID != 7 {
		t.Fatalf("expected song 7, got %+v", song)
	}
	if song.Status != model.StatusCompleted {
		t.Errorf("status = %q, want completed", song.Status)
	}

	// Another user gets nothing for the same ID.
	mock.ExpectQuery("SELECT .+ FROM songs WHERE id = \\? AND user_id = \\?").
		WithArgs(int64(7), int64(2)).
		WillReturnRows(songRows())

	song, err = repo.GetSongByID(context.Background(), 7, 2)
	if err != nil {
		t.Fatalf("GetSongByID (other user): %v", err)
	}
	if song != nil {
		t.Errorf("user 2 should not see user 1's song, got %+v", song)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpdateSongOutcomeGuardsTransitions(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	repo := NewMySQLSongRepository(db)
	ctx := context.Background()

	// Completed without audio URL is rejected before any SQL runs.
	if err := repo.UpdateSongOutcome(ctx, 1, 1, model.StatusCompleted, ""); err == nil {
		t.Error("expected error for completed without audio URL")
	}

	// Error with audio URL is rejected.
	if err := repo.UpdateSongOutcome(ctx, 1, 1, model.StatusError, "https://cdn.example/x.mp3"); err == nil {
		t.Error("expected error for errored song with audio URL")
	}

	// Transition back to generating is rejected.
	if err := repo.UpdateSongOutcome(ctx, 1, 1, model.StatusGenerating, ""); err == nil {
		t.Error("expected error for transition to generating")
	}

	// Valid completion updates only rows still generating and owned by the user.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE songs SET status = ?, audio_url = ?, updated_at = NOW() WHERE id = ? AND user_id = ? AND status = ?")).
		WithArgs("completed", sqlmock.AnyArg(), int64(3), int64(1), "generating").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateSongOutcome(ctx, 3, 1, model.StatusCompleted, "https://cdn.example/3.mp3"); err != nil {
		t.Errorf("UpdateSongOutcome success case: %v", err)
	}

	// Zero rows affected (wrong owner or terminal state) surfaces an error.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE songs SET status = ?, audio_url = ?, updated_at = NOW() WHERE id = ? AND user_id = ? AND status = ?")).
		WithArgs("error", sqlmock.AnyArg(), int64(3), int64(2), "generating").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.UpdateSongOutcome(ctx, 3, 2, model.StatusError, ""); err == nil {
		t.Error("expected error when no rows match")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestDeleteSongScopedToOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	repo := NewMySQLSongRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM songs WHERE id = ? AND user_id = ?")).
		WithArgs(int64(9), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.DeleteSong(context.Background(), 9, 2); err == nil {
		t.Error("expected error deleting a song the user does not own")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGetSongsByPlaylistTypeFiltersByUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	repo := NewMySQLSongRepository(db)
	now := time.Now()

	mock.ExpectQuery("SELECT .+ FROM songs WHERE user_id = \\? AND playlist_type = \\? ORDER BY created_at").
		WithArgs(int64(1), "morning").
		WillReturnRows(songRows().AddRow(
			int64(4), int64(1), nil, "Dawn", "acoustic", nil, "Here comes the sun", nil,
			"generating", "morning", nil, nil, false, now, now,
		))

	songs, err := repo.GetSongsByPlaylistType(context.Background(), 1, "morning")
	if err != nil {
		t.Fatalf("GetSongsByPlaylistType: %v", err)
	}
	if len(songs) != 1 || songs[0].PlaylistType.String != "morning" {
		t.Errorf("unexpected songs: %+v", songs)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
