// Package songgen drives the mantra-to-song workflow: persist the mantra,
// generate a title and lyrics, create the song record, call the synthesis
// service, and resolve the record to completed or error. The song's status
// column is the single source of truth for every observer.
package songgen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mantrafm/core/synth"
	"mantrafm/logger"
	"mantrafm/model"
	"mantrafm/repository"
)

// ErrInvalidRequest marks validation failures, rejected before any
// external call is made.
var ErrInvalidRequest = errors.New("invalid generation request")

// LyricsGenerator produces titles and lyrics from a mantra.
type LyricsGenerator interface {
	GenerateLyrics(ctx context.Context, mantra, genre string, useExactLyrics bool) (string, error)
	GenerateTitle(ctx context.Context, mantra string) string
}

// Synthesizer turns lyrics into audio.
type Synthesizer interface {
	Generate(ctx context.Context, req *synth.Request) (*synth.Result, error)
}

// AudioMirror copies remote audio into local object storage and returns
// the locally served URL.
type AudioMirror interface {
	Mirror(ctx context.Context, audioURL string) (string, error)
}

// Orchestrator sequences one generation request end to end.
type Orchestrator struct {
	mantras repository.MantraRepository
	songs   repository.SongRepository
	lyrics  LyricsGenerator
	synth   Synthesizer
	mirror  AudioMirror // optional
}

// New creates an orchestrator. mirror may be nil to serve provider URLs
// directly.
func New(
	mantras repository.MantraRepository,
	songs repository.SongRepository,
	lyricsGen LyricsGenerator,
	synthesizer Synthesizer,
	mirror AudioMirror,
) *Orchestrator {
	return &Orchestrator{
		mantras: mantras,
		songs:   songs,
		lyrics:  lyricsGen,
		synth:   synthesizer,
		mirror:  mirror,
	}
}

// GenerateRequest carries the user's mantra and style choices.
type GenerateRequest struct {
	Text           string `json:"text"`
	Genre          string `json:"genre"`
	Rhythm         string `json:"rhythm,omitempty"`
	PlaylistType   string `json:"playlistType,omitempty"`
	VocalGender    string `json:"vocalGender,omitempty"`
	VocalStyle     string `json:"vocalStyle,omitempty"`
	UseExactLyrics bool   `json:"useExactLyrics,omitempty"`
}

// Validate checks the request against the selectable enumerations.
func (r *GenerateRequest) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return fmt.Errorf("%w: mantra text is required", ErrInvalidRequest)
	}
	if !model.ValidGenre(r.Genre) {
		return fmt.Errorf("%w: unknown genre %q", ErrInvalidRequest, r.Genre)
	}
	if r.PlaylistType != "" && !model.ValidPlaylistType(r.PlaylistType) {
		return fmt.Errorf("%w: unknown playlist type %q", ErrInvalidRequest, r.PlaylistType)
	}
	if r.VocalGender != "" && !model.ValidVocalGender(r.VocalGender) {
		return fmt.Errorf("%w: unknown vocal gender %q", ErrInvalidRequest, r.VocalGender)
	}
	if r.VocalStyle != "" && !model.ValidVocalStyle(r.VocalStyle) {
		return fmt.Errorf("%w: unknown vocal style %q", ErrInvalidRequest, r.VocalStyle)
	}
	return nil
}

// GenerateSong runs the full workflow for one request. The call blocks
// through the synthesis poll loop and can take minutes. A returned error
// wrapping synth.ErrTimeout means the job may still finish on the
// provider's side; any other synthesis error is an explicit failure.
// Either way the song record ends at status error.
func (o *Orchestrator) GenerateSong(ctx context.Context, userID int64, req *GenerateRequest) (*model.Song, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// 1. Persist the mantra. Resubmission creates a new row by design.
	mantra := &model.Mantra{UserID: userID, Text: req.Text}
	mantraID, err := o.mantras.CreateMantra(ctx, mantra)
	if err != nil {
		return nil, fmt.Errorf("failed to save mantra: %w", err)
	}

	// 2. Title. Never fatal: the client falls back to local text.
	title := o.lyrics.GenerateTitle(ctx, req.Text)

	// 3. Lyrics. Fatal on failure: there is no safe fallback lyric text.
	lyricsText, err := o.lyrics.GenerateLyrics(ctx, req.Text, req.Genre, req.UseExactLyrics)
	if err != nil {
		return nil, err
	}

	// 4. Create the song record in the generating state before the
	// long-running synthesis call, so observers can see it immediately.
	song := &model.Song{
		UserID:         userID,
		MantraID:       model.NewNullInt64(mantraID),
		Title:          title,
		Genre:          req.Genre,
		Rhythm:         model.NewNullString(req.Rhythm),
		Lyrics:         lyricsText,
		Status:         model.StatusGenerating,
		PlaylistType:   model.NewNullString(req.PlaylistType),
		VocalGender:    model.NewNullString(req.VocalGender),
		VocalStyle:     model.NewNullString(req.VocalStyle),
		UseExactLyrics: req.UseExactLyrics,
	}
	songID, err := o.songs.CreateSong(ctx, song)
	if err != nil {
		return nil, fmt.Errorf("failed to create song record: %w", err)
	}
	song.ID = songID

	logger.Info("[SongGen] Song record created",
		logger.Int64("songId", songID),
		logger.Int64("userId", userID),
		logger.String("genre", req.Genre),
		logger.Bool("exactLyrics", req.UseExactLyrics))

	// 5. Synthesis: start the job and block through the poll loop.
	result, err := o.synth.Generate(ctx, &synth.Request{
		Lyrics:     lyricsText,
		StyleTags:  synth.BuildStyleTags(req.Genre, req.Rhythm, req.VocalGender, req.VocalStyle),
		GenderCode: synth.GenderCode(req.VocalGender),
		Title:      title,
	})
	if err != nil {
		o.markErrored(ctx, songID, userID)
		if errors.Is(err, synth.ErrTimeout) {
			return nil, fmt.Errorf("music generation timed out; the track may still finish on the provider's side, please generate again: %w", err)
		}
		return nil, fmt.Errorf("music generation failed: %w", err)
	}

	// 6. Optionally mirror the audio into object storage. Mirror
	// failures keep the provider URL; they do not fail the song.
	audioURL := result.AudioURL
	if o.mirror != nil {
		if mirrored, err := o.mirror.Mirror(ctx, audioURL); err != nil {
			logger.Warn("[SongGen] Audio mirror failed, keeping provider URL",
				logger.Int64("songId", songID),
				logger.ErrorField(err))
		} else {
			audioURL = mirrored
		}
	}

	// 7. Resolve the record.
	if err := o.songs.UpdateSongOutcome(ctx, songID, userID, model.StatusCompleted, audioURL); err != nil {
		return nil, fmt.Errorf("failed to mark song completed: %w", err)
	}

	song.Status = model.StatusCompleted
	song.AudioURL = model.NewNullString(audioURL)

	logger.Info("[SongGen] Song completed",
		logger.Int64("songId", songID),
		logger.String("audioUrl", audioURL))
	return song, nil
}

// markErrored resolves the record to error; the audio URL stays empty.
// The caller's context is often already cancelled here (a client that
// disconnected during the blocking poll), so the write runs on a detached
// context: the record must never be stranded at generating.
func (o *Orchestrator) markErrored(ctx context.Context, songID, userID int64) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := o.songs.UpdateSongOutcome(ctx, songID, userID, model.StatusError, ""); err != nil {
		logger.Error("[SongGen] Failed to mark song as errored",
			logger.Int64("songId", songID),
			logger.ErrorField(err))
	}
}
