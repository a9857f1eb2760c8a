package songgen

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"mantrafm/core/synth"
	"mantrafm/model"
)

type fakeMantraRepo struct {
	mantras []*model.Mantra
	nextID  int64
}

func (f *fakeMantraRepo) CreateMantra(ctx context.Context, m *model.Mantra) (int64, error) {
	f.nextID++
	m.ID = f.nextID
	f.mantras = append(f.mantras, m)
	return m.ID, nil
}

func (f *fakeMantraRepo) GetMantraByID(ctx context.Context, id, userID int64) (*model.Mantra, error) {
	for _, m := range f.mantras {
		if m.ID == id && m.UserID == userID {
			return m, nil
		}
	}
	return nil, nil
}

func (f *fakeMantraRepo) GetMantrasByUserID(ctx context.Context, userID int64) ([]*model.Mantra, error) {
	var out []*model.Mantra
	for _, m := range f.mantras {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeSongRepo struct {
	songs  map[int64]*model.Song
	nextID int64
}

func newFakeSongRepo() *fakeSongRepo {
	return &fakeSongRepo{songs: map[int64]*model.Song{}}
}

func (f *fakeSongRepo) CreateSong(ctx context.Context, s *model.Song) (int64, error) {
	if !s.Status.Valid() {
		return 0, fmt.Errorf("invalid status %q", s.Status)
	}
	f.nextID++
	copied := *s
	copied.ID = f.nextID
	f.songs[copied.ID] = &copied
	return copied.ID, nil
}

func (f *fakeSongRepo) GetSongByID(ctx context.Context, id, userID int64) (*model.Song, error) {
	s, ok := f.songs[id]
	if !ok || s.UserID != userID {
		return nil, nil
	}
	return s, nil
}

func (f *fakeSongRepo) GetSongsByUserID(ctx context.Context, userID int64) ([]*model.Song, error) {
	var out []*model.Song
	for _, s := range f.songs {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSongRepo) GetSongsByPlaylistType(ctx context.Context, userID int64, playlistType string) ([]*model.Song, error) {
	var out []*model.Song
	for _, s := range f.songs {
		if s.UserID == userID && s.PlaylistType.String == playlistType {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSongRepo) UpdateSongOutcome(ctx context.Context, id, userID int64, status model.SongStatus, audioURL string) error {
	// Like database/sql, refuse to execute on a dead context.
	if err := ctx.Err(); err != nil {
		return err
	}
	s, ok := f.songs[id]
	if !ok || s.UserID != userID {
		return fmt.Errorf("song %d not found for user %d", id, userID)
	}
	if !s.Status.CanTransition(status) {
		return fmt.Errorf("invalid transition %q -> %q", s.Status, status)
	}
	s.Status = status
	if audioURL != "" {
		s.AudioURL.String = audioURL
		s.AudioURL.Valid = true
	} else {
		s.AudioURL.String = ""
		s.AudioURL.Valid = false
	}
	return nil
}

func (f *fakeSongRepo) UpdateSongTitle(ctx context.Context, id, userID int64, title string) error {
	s, ok := f.songs[id]
	if !ok || s.UserID != userID {
		return fmt.Errorf("song %d not found for user %d", id, userID)
	}
	s.Title = title
	return nil
}

func (f *fakeSongRepo) DeleteSong(ctx context.Context, id, userID int64) error {
	s, ok := f.songs[id]
	if !ok || s.UserID != userID {
		return fmt.Errorf("song %d not found for user %d", id, userID)
	}
	delete(f.songs, id)
	return nil
}

type fakeLyrics struct {
	lyricsErr error
	titleUsed string
}

func (f *fakeLyrics) GenerateLyrics(ctx context.Context, mantra, genre string, exact bool) (string, error) {
	if f.lyricsErr != nil {
		return "", f.lyricsErr
	}
	if exact {
		return "[Verse]\n" + mantra, nil
	}
	return "generated lyrics for " + genre, nil
}

func (f *fakeLyrics) GenerateTitle(ctx context.Context, mantra string) string {
	if f.titleUsed != "" {
		return f.titleUsed
	}
	return "Test Title"
}

type fakeSynth struct {
	result *synth.Result
	err    error
	calls  int
	last   *synth.Request
	cancel context.CancelFunc // when set, fired mid-call to mimic a client disconnect
}

func (f *fakeSynth) Generate(ctx context.Context, req *synth.Request) (*synth.Result, error) {
	f.calls++
	f.last = req
	if f.cancel != nil {
		f.cancel()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newOrchestrator(songs *fakeSongRepo, ly *fakeLyrics, sy *fakeSynth) (*Orchestrator, *fakeMantraRepo) {
	mantras := &fakeMantraRepo{}
	return New(mantras, songs, ly, sy, nil), mantras
}

func TestGenerateSongSuccess(t *testing.T) {
	songs := newFakeSongRepo()
	sy := &fakeSynth{result: &synth.Result{AudioURL: "https://cdn.example/song.mp3"}}
	o, mantras := newOrchestrator(songs, &fakeLyrics{}, sy)

	song, err := o.GenerateSong(context.Background(), 1, &GenerateRequest{
		Text:        "I am capable",
		Genre:       "soul",
		VocalGender: "female",
		VocalStyle:  "warm",
	})
	if err != nil {
		t.Fatalf("GenerateSong: %v", err)
	}

	if song.Status != model.StatusCompleted {
		t.Errorf("status = %q, want completed", song.Status)
	}
	if !song.AudioURL.Valid || song.AudioURL.String == "" {
		t.Error("completed song must have a non-empty audio URL")
	}
	if len(mantras.mantras) != 1 || mantras.mantras[0].Text != "I am capable" {
		t.Errorf("mantra not persisted: %+v", mantras.mantras)
	}

	stored := songs.songs[song.ID]
	if stored == nil || stored.Status != model.StatusCompleted {
		t.Errorf("stored song not completed: %+v", stored)
	}
	if sy.last.StyleTags != "soul, warm female voice" {
		t.Errorf("style tags = %q", sy.last.StyleTags)
	}
	if sy.last.GenderCode != "f" {
		t.Errorf("gender code = %q", sy.last.GenderCode)
	}
}

func TestGenerateSongExplicitFailure(t *testing.T) {
	songs := newFakeSongRepo()
	sy := &fakeSynth{err: fmt.Errorf("job x: %w", synth.ErrJobFailed)}
	o, _ := newOrchestrator(songs, &fakeLyrics{}, sy)

	_, err := o.GenerateSong(context.Background(), 1, &GenerateRequest{
		Text:  "I am capable",
		Genre: "soul",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, synth.ErrTimeout) {
		t.Error("explicit failure must not read as a timeout")
	}

	// Record left terminal at error, no audio.
	if len(songs.songs) != 1 {
		t.Fatalf("expected one song record, got %d", len(songs.songs))
	}
	for _, s := range songs.songs {
		if s.Status != model.StatusError {
			t.Errorf("status = %q, want error", s.Status)
		}
		if s.AudioURL.Valid {
			t.Error("errored song must not carry an audio URL")
		}
	}
}

func TestGenerateSongTimeout(t *testing.T) {
	songs := newFakeSongRepo()
	sy := &fakeSynth{err: fmt.Errorf("no resolution: %w", synth.ErrTimeout)}
	o, _ := newOrchestrator(songs, &fakeLyrics{}, sy)

	_, err := o.GenerateSong(context.Background(), 1, &GenerateRequest{
		Text:  "I am capable",
		Genre: "blues",
	})
	if !errors.Is(err, synth.ErrTimeout) {
		t.Fatalf("want timeout-flavored error, got %v", err)
	}

	for _, s := range songs.songs {
		if s.Status != model.StatusError {
			t.Errorf("status after timeout = %q, want error", s.Status)
		}
	}
}

func TestGenerateSongResolvesRecordAfterDisconnect(t *testing.T) {
	songs := newFakeSongRepo()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The synthesis call observes the client going away: the request
	// context dies and the call fails. The song row must still resolve
	// to error instead of sitting at generating forever.
	sy := &fakeSynth{
		err:    fmt.Errorf("fetch aborted: %w", context.Canceled),
		cancel: cancel,
	}
	o, _ := newOrchestrator(songs, &fakeLyrics{}, sy)

	_, err := o.GenerateSong(ctx, 1, &GenerateRequest{
		Text:  "I am capable",
		Genre: "soul",
	})
	if err == nil {
		t.Fatal("expected error after disconnect")
	}

	if len(songs.songs) != 1 {
		t.Fatalf("expected one song record, got %d", len(songs.songs))
	}
	for _, s := range songs.songs {
		if s.Status != model.StatusError {
			t.Errorf("status after disconnect = %q, want error", s.Status)
		}
		if s.AudioURL.Valid {
			t.Error("disconnected generation must not carry an audio URL")
		}
	}
}

func TestGenerateSongValidation(t *testing.T) {
	songs := newFakeSongRepo()
	sy := &fakeSynth{result: &synth.Result{AudioURL: "https://x"}}
	o, mantras := newOrchestrator(songs, &fakeLyrics{}, sy)

	tests := []GenerateRequest{
		{Text: "", Genre: "soul"},
		{Text: "hi", Genre: "jazz"},
		{Text: "hi", Genre: "soul", PlaylistType: "midnight"},
		{Text: "hi", Genre: "soul", VocalGender: "robot"},
		{Text: "hi", Genre: "soul", VocalStyle: "shouty"},
	}

	for _, req := range tests {
		_, err := o.GenerateSong(context.Background(), 1, &req)
		if !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("request %+v: want ErrInvalidRequest, got %v", req, err)
		}
	}

	// Rejected before any external call or write.
	if len(mantras.mantras) != 0 || len(songs.songs) != 0 || sy.calls != 0 {
		t.Error("validation failures must not touch collaborators")
	}
}

func TestGenerateSongLyricFailureIsFatal(t *testing.T) {
	songs := newFakeSongRepo()
	sy := &fakeSynth{result: &synth.Result{AudioURL: "https://x"}}
	o, _ := newOrchestrator(songs, &fakeLyrics{lyricsErr: errors.New("model unavailable")}, sy)

	_, err := o.GenerateSong(context.Background(), 1, &GenerateRequest{
		Text:  "I am capable",
		Genre: "pop",
	})
	if err == nil {
		t.Fatal("expected error when lyric generation fails")
	}
	if len(songs.songs) != 0 {
		t.Error("no song record should exist when lyrics fail")
	}
	if sy.calls != 0 {
		t.Error("synthesis must not be called without lyrics")
	}
}

func TestGenerateSongExactLyricsPassThrough(t *testing.T) {
	songs := newFakeSongRepo()
	sy := &fakeSynth{result: &synth.Result{AudioURL: "https://cdn.example/e.mp3"}}
	o, _ := newOrchestrator(songs, &fakeLyrics{}, sy)

	song, err := o.GenerateSong(context.Background(), 1, &GenerateRequest{
		Text:           "I am strong. I will grow.",
		Genre:          "acoustic",
		UseExactLyrics: true,
	})
	if err != nil {
		t.Fatalf("GenerateSong: %v", err)
	}
	if !song.UseExactLyrics {
		t.Error("exact lyrics flag should persist")
	}
	if song.Lyrics != "[Verse]\nI am strong. I will grow." {
		t.Errorf("lyrics = %q", song.Lyrics)
	}
}
