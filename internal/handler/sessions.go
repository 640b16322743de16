package handler

import (
	"log/slog"
	"net/http"

	"dataexplorer/internal/httputil"
	"dataexplorer/internal/repository"
)

// SessionHandler serves session listing and chat history.
type SessionHandler struct {
	sessions repository.SessionRepository
	turns    repository.TurnRepository
	logger   *slog.Logger
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(sessions repository.SessionRepository, turns repository.TurnRepository, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, turns: turns, logger: logger}
}

// HandleList returns the user's sessions for one application, most recently
// active first.
// GET /api/sessions/v1?userId=&applicationName=
func (h *SessionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	applicationName := r.URL.Query().Get("applicationName")
	if userID == "" || applicationName == "" {
		httputil.RespondError(w, http.StatusBadRequest, "userId and applicationName are required")
		return
	}

	sessions, err := h.sessions.ListByUser(r.Context(), userID, applicationName)
	if err != nil {
		h.logger.Error("list sessions failed", slog.String("error", err.Error()))
		httputil.RespondDomainError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]any{
		"userId":   userID,
		"sessions": sessions,
	})
}

// HandleHistory returns every turn of one session in order.
// GET /api/chathistory/v1?userId=&sessionId=
func (h *SessionHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	sessionID := r.URL.Query().Get("sessionId")
	if userID == "" || sessionID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "userId and sessionId are required")
		return
	}

	// Session lookup enforces that the caller owns the history they request.
	if _, err := h.sessions.Get(r.Context(), userID, sessionID); err != nil {
		httputil.RespondDomainError(w, err)
		return
	}

	turns, err := h.turns.History(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("chat history failed", slog.String("error", err.Error()))
		httputil.RespondDomainError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, turns)
}
