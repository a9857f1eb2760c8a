package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"mantrafm/cache"
	"mantrafm/logger"
	"mantrafm/model"

	"github.com/gorilla/mux"
)

// GetPlaylistsHandler lists every playlist, curated and custom alike.
func (h *APIHandler) GetPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	playlists, err := h.playlistRepo.GetAllPlaylists(r.Context())
	if err != nil {
		logger.Error("Failed to list playlists", logger.ErrorField(err))
		http.Error(w, "Failed to list playlists", http.StatusInternalServerError)
		return
	}
	if playlists == nil {
		playlists = []*model.Playlist{}
	}

	writeJSON(w, http.StatusOK, playlists)
}

// CreatePlaylistHandler adds a custom playlist. The curated three are
// seeded at startup and cannot be recreated here.
func (h *APIHandler) CreatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		http.Error(w, "Playlist name is required", http.StatusBadRequest)
		return
	}

	playlist := &model.Playlist{
		Name:        req.Name,
		Type:        "custom",
		Description: req.Description,
	}
	if err := h.playlistRepo.CreatePlaylist(r.Context(), playlist); err != nil {
		logger.Error("Failed to create playlist", logger.ErrorField(err))
		http.Error(w, "Failed to create playlist", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, playlist)
}

// GetPlaylistSongsHandler returns the caller's songs belonging to the
// playlist. Membership is derived from the song's playlist type.
func (h *APIHandler) GetPlaylistSongsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid playlist ID", http.StatusBadRequest)
		return
	}

	playlist, err := h.playlistRepo.GetPlaylistByID(r.Context(), id)
	if err != nil {
		logger.Error("Failed to get playlist", logger.ErrorField(err))
		http.Error(w, "Failed to get playlist", http.StatusInternalServerError)
		return
	}
	if playlist == nil {
		http.Error(w, "Playlist not found", http.StatusNotFound)
		return
	}

	if cached, err := cache.GetSongList(r.Context(), userID, playlist.Type); err != nil {
		logger.Warn("Song cache read failed", logger.ErrorField(err))
	} else if cached != nil {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	songs, err := h.songRepo.GetSongsByPlaylistType(r.Context(), userID, playlist.Type)
	if err != nil {
		logger.Error("Failed to list playlist songs", logger.ErrorField(err))
		http.Error(w, "Failed to list playlist songs", http.StatusInternalServerError)
		return
	}
	if songs == nil {
		songs = []*model.Song{}
	}

	if err := cache.SetSongList(r.Context(), userID, playlist.Type, songs); err != nil {
		logger.Warn("Song cache write failed", logger.ErrorField(err))
	}

	writeJSON(w, http.StatusOK, songs)
}
