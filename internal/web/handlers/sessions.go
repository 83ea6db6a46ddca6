package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/emotion-recognizer/internal/config"
	"github.com/kozaktomas/emotion-recognizer/internal/smoother"
	"github.com/kozaktomas/emotion-recognizer/internal/web/middleware"
)

// SessionsHandler manages server-side smoothing sessions.
type SessionsHandler struct {
	config         *config.Config
	sessionManager *middleware.SessionManager
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(cfg *config.Config, sm *middleware.SessionManager) *SessionsHandler {
	return &SessionsHandler{
		config:         cfg,
		sessionManager: sm,
	}
}

// CreateSessionRequest is the optional body of a create call.
type CreateSessionRequest struct {
	Window *int `json:"window"`
}

// Create starts a session. The window defaults to the configured size.
func (h *SessionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	window := h.config.Smoothing.Window
	if req.Window != nil {
		window = *req.Window
	}

	session, err := h.sessionManager.CreateSession(window)
	if err != nil {
		if errors.Is(err, smoother.ErrInvalidConfiguration) || errors.Is(err, middleware.ErrWindowTooLarge) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	respondJSON(w, http.StatusCreated, session.ToJSON())
}

// Get returns the window and the stabilized label of a session. It responds
// with 409 while no label has been observed.
func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())
	if session == nil {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	data := session.ToJSON()
	if data.Stabilized == "" {
		respondError(w, http.StatusConflict, smoother.ErrNotAvailable.Error())
		return
	}
	respondJSON(w, http.StatusOK, data)
}

// Reset empties the window of a session.
func (h *SessionsHandler) Reset(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())
	if session == nil {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	session.Reset()
	w.WriteHeader(http.StatusNoContent)
}

// Delete ends a session.
func (h *SessionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.sessionManager.DeleteSession(chi.URLParam(r, "id")) {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
