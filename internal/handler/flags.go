package handler

import (
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"dataexplorer/internal/httputil"
	"dataexplorer/internal/repository"
)

// FlagsHandler serves the flag toggles on stored turns and sessions.
type FlagsHandler struct {
	turns    repository.TurnRepository
	sessions repository.SessionRepository
	logger   *slog.Logger
}

// NewFlagsHandler creates a FlagsHandler.
func NewFlagsHandler(turns repository.TurnRepository, sessions repository.SessionRepository, logger *slog.Logger) *FlagsHandler {
	return &FlagsHandler{turns: turns, sessions: sessions, logger: logger}
}

type updateFlagsRequest struct {
	SessionID         string `json:"sessionId"`
	ChatID            int    `json:"chatId"`
	ShowSQL           *bool  `json:"showSql"`
	ShowVisualization *bool  `json:"showVisualization"`
}

func (r updateFlagsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.SessionID, validation.Required),
		validation.Field(&r.ChatID, validation.Required, validation.Min(1)),
	)
}

// HandleUpdateFlags flips the showSql/showVisualization toggles on one turn.
// Omitted flags keep their stored values.
// POST /api/updateflags/v1
func (h *FlagsHandler) HandleUpdateFlags(w http.ResponseWriter, r *http.Request) {
	var req updateFlagsRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.turns.UpdateDisplayFlags(r.Context(), req.SessionID, req.ChatID, req.ShowSQL, req.ShowVisualization); err != nil {
		h.logger.Error("update display flags failed",
			slog.String("session_id", req.SessionID),
			slog.Int("chat_id", req.ChatID),
			slog.String("error", err.Error()))
		httputil.RespondDomainError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

type sessionFlagsRequest struct {
	UserID     string `json:"userId"`
	SessionID  string `json:"sessionId"`
	IsFavorite *bool  `json:"isFavorite"`
	IsDeleted  *bool  `json:"isDeleted"`
}

func (r sessionFlagsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required),
		validation.Field(&r.SessionID, validation.Required),
	)
}

// HandleSessionFlags sets the favorite and soft-delete flags on one session.
// Omitted flags keep their stored values.
// POST /api/sessionflags/v1
func (h *FlagsHandler) HandleSessionFlags(w http.ResponseWriter, r *http.Request) {
	var req sessionFlagsRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.sessions.SetFlags(r.Context(), req.UserID, req.SessionID, req.IsFavorite, req.IsDeleted); err != nil {
		h.logger.Error("set session flags failed",
			slog.String("session_id", req.SessionID),
			slog.String("error", err.Error()))
		httputil.RespondDomainError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}
