// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/okian/intake/internal/adapters/repository"
	service "github.com/okian/intake/internal/app"
)

// SessionsHandler handles session creation and lookup requests.
type SessionsHandler struct {
	deps Dependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps Dependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

// sessionRequest mirrors the inbound contract for POST /sessions.
type sessionRequest struct {
	UserID   string         `json:"userId"`
	RawInput map[string]any `json:"rawInput"`
}

func (s sessionRequest) validate() error {
	if strings.TrimSpace(s.UserID) == "" {
		return errors.New("missing userId")
	}
	if err := uuid.Validate(s.UserID); err != nil {
		return errors.New("userId must be a UUID")
	}
	if s.RawInput == nil {
		return errors.New("missing rawInput")
	}
	return nil
}

// HandleCreateSession handles POST /sessions requests.
func (h *SessionsHandler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_session"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", WrapKind(op, ErrBadRequest, err))
		return
	}

	session, err := h.deps.CreateSession(r.Context(), service.CreateRequest{
		UserID:    req.UserID,
		RawInput:  req.RawInput,
		SourceIP:  clientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateID) {
			writeError(w, http.StatusConflict, "duplicate_resource", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// HandleGetSession handles GET /sessions/{id} requests.
func (h *SessionsHandler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_session"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/sessions/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "validation_error", NewKind(op, ErrBadRequest))
		return
	}
	session, err := h.deps.GetSession(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session_not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// clientIP extracts the remote host, without the port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
