package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"mantrafm/cache"
	"mantrafm/core/songgen"
	"mantrafm/core/synth"
	"mantrafm/core/timeline"
	"mantrafm/logger"
	"mantrafm/model"

	"github.com/gorilla/mux"
)

// GenerateSongHandler runs the full mantra-to-song workflow. The request
// blocks until synthesis resolves, which can take minutes.
func (h *APIHandler) GenerateSongHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req songgen.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	song, err := h.orchestrator.GenerateSong(r.Context(), userID, &req)

	// Any outcome may have written a song row; drop cached lists either way.
	if cerr := cache.InvalidateSongLists(r.Context(), userID); cerr != nil {
		logger.Warn("Failed to invalidate song cache", logger.ErrorField(cerr))
	}

	if err != nil {
		switch {
		case errors.Is(err, songgen.ErrInvalidRequest):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, synth.ErrTimeout):
			http.Error(w, err.Error(), http.StatusGatewayTimeout)
		default:
			logger.Error("Song generation failed", logger.ErrorField(err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, song)
}

// GetSongsHandler lists the user's songs, optionally filtered by
// playlist type, read through the Redis cache.
func (h *APIHandler) GetSongsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	playlistType := r.URL.Query().Get("playlistType")
	if playlistType != "" && !model.ValidPlaylistType(playlistType) {
		http.Error(w, "Unknown playlist type", http.StatusBadRequest)
		return
	}

	if cached, err := cache.GetSongList(r.Context(), userID, playlistType); err != nil {
		logger.Warn("Song cache read failed", logger.ErrorField(err))
	} else if cached != nil {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	var songs []*model.Song
	if playlistType == "" {
		songs, err = h.songRepo.GetSongsByUserID(r.Context(), userID)
	} else {
		songs, err = h.songRepo.GetSongsByPlaylistType(r.Context(), userID, playlistType)
	}
	if err != nil {
		logger.Error("Failed to list songs", logger.ErrorField(err))
		http.Error(w, "Failed to list songs", http.StatusInternalServerError)
		return
	}
	if songs == nil {
		songs = []*model.Song{}
	}

	if err := cache.SetSongList(r.Context(), userID, playlistType, songs); err != nil {
		logger.Warn("Song cache write failed", logger.ErrorField(err))
	}

	writeJSON(w, http.StatusOK, songs)
}

// GetSongHandler returns one song owned by the user.
func (h *APIHandler) GetSongHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid song ID", http.StatusBadRequest)
		return
	}

	song, err := h.songRepo.GetSongByID(r.Context(), id, userID)
	if err != nil {
		logger.Error("Failed to get song", logger.ErrorField(err))
		http.Error(w, "Failed to get song", http.StatusInternalServerError)
		return
	}
	if song == nil {
		http.Error(w, "Song not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, song)
}

// UpdateSongHandler renames a song. Title is the only mutable field;
// status and audio are owned by the generation workflow.
func (h *APIHandler) UpdateSongHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid song ID", http.StatusBadRequest)
		return
	}

	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		http.Error(w, "Title is required", http.StatusBadRequest)
		return
	}

	if err := h.songRepo.UpdateSongTitle(r.Context(), id, userID, req.Title); err != nil {
		logger.Error("Failed to rename song", logger.ErrorField(err))
		http.Error(w, "Failed to rename song", http.StatusInternalServerError)
		return
	}

	if err := cache.InvalidateSongLists(r.Context(), userID); err != nil {
		logger.Warn("Failed to invalidate song cache", logger.ErrorField(err))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// DeleteSongHandler deletes a song owned by the user.
func (h *APIHandler) DeleteSongHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid song ID", http.StatusBadRequest)
		return
	}

	if err := h.songRepo.DeleteSong(r.Context(), id, userID); err != nil {
		logger.Error("Failed to delete song", logger.ErrorField(err))
		http.Error(w, "Failed to delete song", http.StatusInternalServerError)
		return
	}

	if err := cache.InvalidateSongLists(r.Context(), userID); err != nil {
		logger.Warn("Failed to invalidate song cache", logger.ErrorField(err))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// SongTimelineHandler returns the song's lyric lines and, when the
// caller supplies duration and position query parameters, the index of
// the line that should be highlighted right now.
func (h *APIHandler) SongTimelineHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid song ID", http.StatusBadRequest)
		return
	}

	song, err := h.songRepo.GetSongByID(r.Context(), id, userID)
	if err != nil {
		logger.Error("Failed to get song for timeline", logger.ErrorField(err))
		http.Error(w, "Failed to get song", http.StatusInternalServerError)
		return
	}
	if song == nil {
		http.Error(w, "Song not found", http.StatusNotFound)
		return
	}

	lines := timeline.SplitLines(song.Lyrics)

	resp := map[string]interface{}{
		"songId": song.ID,
		"lines":  lines,
		"lead":   h.cfg.LyricLeadSeconds,
	}

	q := r.URL.Query()
	if q.Has("duration") && q.Has("position") {
		duration, derr := strconv.ParseFloat(q.Get("duration"), 64)
		position, perr := strconv.ParseFloat(q.Get("position"), 64)
		if derr != nil || perr != nil {
			http.Error(w, "Invalid duration or position", http.StatusBadRequest)
			return
		}
		if index, ok := timeline.LineAt(lines, duration, position, h.cfg.LyricLeadSeconds); ok {
			resp["index"] = index
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// SynthCallbackHandler acknowledges provider callbacks. Outcomes are
// decided by the poll loop; a callback that lands after the poll gave
// up is logged but never resurrects an errored song.
func (h *APIHandler) SynthCallbackHandler(w http.ResponseWriter, r *http.Request) {
	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	logger.Info("Synthesis callback received", logger.Any("payload", payload))
	writeJSON(w, http.StatusOK, map[string]interface{}{"acknowledged": true})
}
