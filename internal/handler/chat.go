// Package handler exposes the HTTP surface: the streaming agent endpoint and
// the session, history, metadata, and display-flag endpoints.
package handler

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"net/url"

	"dataexplorer/internal/agent/pipeline"
	"dataexplorer/internal/handler/sse"
	"dataexplorer/internal/httputil"
)

// ChatHandler serves the streaming agent endpoint.
type ChatHandler struct {
	pipeline *pipeline.Service
	logger   *slog.Logger
}

// NewChatHandler creates a ChatHandler.
func NewChatHandler(p *pipeline.Service, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{pipeline: p, logger: logger}
}

// agentRequest is the wire form of a turn request. The prompt arrives
// base64-encoded and URL-quoted so arbitrary user text survives intermediate
// proxies.
type agentRequest struct {
	UserID      string `json:"userId"`
	SessionID   string `json:"sessionId"`
	SessionName string `json:"sessionName"`
	DataSource  string `json:"dataSource"`
	Prompt      string `json:"prompt"`
}

// decodePrompt reverses the client's base64+quote encoding. Text that does
// not decode is used as-is, so plain-text clients still work.
func decodePrompt(raw string) string {
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return raw
	}
	unquoted, err := url.QueryUnescape(string(decoded))
	if err != nil {
		return string(decoded)
	}
	return unquoted
}

// HandleAgent runs one turn and streams its chunks as SSE events.
// POST /api/agent/v1
func (h *ChatHandler) HandleAgent(w http.ResponseWriter, r *http.Request) {
	var req agentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	chunks, err := h.pipeline.Run(r.Context(), pipeline.Request{
		UserID:      req.UserID,
		SessionID:   req.SessionID,
		SessionName: req.SessionName,
		DataSource:  req.DataSource,
		Prompt:      decodePrompt(req.Prompt),
	})
	if err != nil {
		httputil.RespondDomainError(w, err)
		return
	}

	writer, err := sse.NewWriter(w)
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	for chunk := range chunks {
		if err := writer.WriteEvent(chunk); err != nil {
			// Caller went away; drain so the turn still persists.
			h.logger.Warn("stream write failed, draining turn",
				slog.String("session_id", req.SessionID),
				slog.String("error", err.Error()))
			for range chunks {
			}
			return
		}
	}
}
