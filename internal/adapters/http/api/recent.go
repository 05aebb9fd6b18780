// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"net/http"
	"strings"

	service "github.com/okian/intake/internal/app"
)

// RecentHandler handles recency lookups.
type RecentHandler struct {
	deps Dependencies
}

// NewRecentHandler creates a new recent-sessions handler.
func NewRecentHandler(deps Dependencies) *RecentHandler {
	return &RecentHandler{deps: deps}
}

// HandleGetRecent handles GET /users/{userId}/sessions/recent requests.
func (h *RecentHandler) HandleGetRecent(w http.ResponseWriter, r *http.Request) {
	const op = "api.recent_sessions"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/users/")
	userID, tail, found := strings.Cut(rest, "/")
	if !found || userID == "" || tail != "sessions/recent" {
		http.NotFound(w, r)
		return
	}

	summaries, err := h.deps.RecentSessions(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidUserID) {
			writeError(w, http.StatusBadRequest, "invalid_user_id", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}
