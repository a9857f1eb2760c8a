package server

import (
	"net/http"
	"strconv"

	"mantrafm/core/auth"
	"mantrafm/core/timeline"
	"mantrafm/logger"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// karaokeFrame is one playback report from the client.
type karaokeFrame struct {
	Position float64 `json:"position"`
	Duration float64 `json:"duration"`
	Playing  bool    `json:"playing"`
}

// karaokeUpdate is sent only when the highlighted line changes.
type karaokeUpdate struct {
	Index int `json:"index"`
}

// KaraokeHandler streams lyric line indices for a song over a
// websocket. Browsers cannot set an Authorization header on the
// upgrade request, so the JWT arrives as a token query parameter.
func (h *APIHandler) KaraokeHandler(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.ParseToken(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid song ID", http.StatusBadRequest)
		return
	}

	song, err := h.songRepo.GetSongByID(r.Context(), id, claims.UserID)
	if err != nil || song == nil {
		http.Error(w, "Song not found", http.StatusNotFound)
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Websocket upgrade failed", logger.ErrorField(err))
		return
	}
	defer conn.Close()

	session := timeline.NewSession(song.Lyrics, h.cfg.LyricLeadSeconds)

	// First frame carries the full line list so the client can render
	// the lyric sheet before playback starts.
	if err := conn.WriteJSON(map[string]interface{}{
		"songId": song.ID,
		"lines":  session.Lines(),
	}); err != nil {
		logger.Error("Failed to send lyric sheet", logger.ErrorField(err))
		return
	}

	for {
		var frame karaokeFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("Karaoke connection dropped", logger.ErrorField(err))
			}
			return
		}

		index, changed, ok := session.Advance(frame.Duration, frame.Position, frame.Playing)
		if !ok || !changed {
			continue
		}
		if err := conn.WriteJSON(karaokeUpdate{Index: index}); err != nil {
			logger.Error("Failed to send line update", logger.ErrorField(err))
			return
		}
	}
}
