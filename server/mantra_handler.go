package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"mantrafm/logger"
	"mantrafm/model"

	"github.com/gorilla/mux"
)

// CreateMantraHandler saves a mantra without starting generation, so
// users can keep drafts before picking a style.
func (h *APIHandler) CreateMantraHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		http.Error(w, "Mantra text is required", http.StatusBadRequest)
		return
	}

	mantra := &model.Mantra{UserID: userID, Text: req.Text}
	id, err := h.mantraRepo.CreateMantra(r.Context(), mantra)
	if err != nil {
		logger.Error("Failed to create mantra", logger.ErrorField(err))
		http.Error(w, "Failed to save mantra", http.StatusInternalServerError)
		return
	}
	mantra.ID = id

	writeJSON(w, http.StatusCreated, mantra)
}

// GetMantrasHandler lists the user's mantras, newest first.
func (h *APIHandler) GetMantrasHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	mantras, err := h.mantraRepo.GetMantrasByUserID(r.Context(), userID)
	if err != nil {
		logger.Error("Failed to list mantras", logger.ErrorField(err))
		http.Error(w, "Failed to list mantras", http.StatusInternalServerError)
		return
	}
	if mantras == nil {
		mantras = []*model.Mantra{}
	}

	writeJSON(w, http.StatusOK, mantras)
}

// GetMantraHandler returns one mantra owned by the user.
func (h *APIHandler) GetMantraHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid mantra ID", http.StatusBadRequest)
		return
	}

	mantra, err := h.mantraRepo.GetMantraByID(r.Context(), id, userID)
	if err != nil {
		logger.Error("Failed to get mantra", logger.ErrorField(err))
		http.Error(w, "Failed to get mantra", http.StatusInternalServerError)
		return
	}
	if mantra == nil {
		http.Error(w, "Mantra not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, mantra)
}
