package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/avvvet/chatrag/internal/models"
)

// HandleHistory serves GET /api/chat/history. The optional limit query
// parameter caps how many trailing turns are returned.
func (h *ChatHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	userID := userID(r)

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit parameter", "")
			return
		}
		limit = n
	}

	turns, err := h.store.History(r.Context(), userID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load history", err.Error())
		return
	}

	msgs := make([]models.ChatMessage, 0, len(turns))
	for _, t := range turns {
		msgs = append(msgs, models.ChatMessage{Role: t.Role, Content: t.Content})
	}
	writeJSON(w, http.StatusOK, models.HistoryResponse{UserID: userID, Messages: msgs})
}

// HandleClear serves POST /api/chat/clear.
func (h *ChatHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	userID := userID(r)

	if err := h.store.Clear(r.Context(), userID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to clear session", err.Error())
		return
	}
	log.Printf("🗑️ Cleared session for user %s", userID)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleSessions serves GET /api/sessions.
func (h *ChatHandler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	count, err := h.store.ActiveSessions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count sessions", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, models.SessionsResponse{ActiveSessions: count})
}
