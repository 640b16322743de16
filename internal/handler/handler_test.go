package handler

import (
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"dataexplorer/internal/domain"
	"dataexplorer/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDecodePrompt(t *testing.T) {
	t.Run("decodes base64 quoted text", func(t *testing.T) {
		original := "how many clinics? 100% of them"
		encoded := base64.StdEncoding.EncodeToString([]byte(url.QueryEscape(original)))
		if got := decodePrompt(encoded); got != original {
			t.Errorf("expected %q, got %q", original, got)
		}
	})

	t.Run("plain text passes through", func(t *testing.T) {
		if got := decodePrompt("hello there!"); got != "hello there!" {
			t.Errorf("expected passthrough, got %q", got)
		}
	})
}

type stubTurns struct {
	lastSessionID string
	lastChatID    int
	lastShowSQL   *bool
	err           error
}

func (s *stubTurns) Insert(context.Context, *models.TurnRecord) error { return nil }
func (s *stubTurns) Update(context.Context, *models.TurnRecord) error { return nil }
func (s *stubTurns) MaxChatID(context.Context, string) (int, error)   { return 0, nil }

func (s *stubTurns) ListRecent(context.Context, string, int) ([]models.PriorTurn, error) {
	return nil, nil
}

func (s *stubTurns) History(context.Context, string) ([]*models.TurnRecord, error) {
	return []*models.TurnRecord{}, nil
}

func (s *stubTurns) UpdateDisplayFlags(_ context.Context, sessionID string, chatID int, showSQL, _ *bool) error {
	s.lastSessionID = sessionID
	s.lastChatID = chatID
	s.lastShowSQL = showSQL
	return s.err
}

type stubSessions struct {
	lastUserID    string
	lastSessionID string
	lastFavorite  *bool
	lastDeleted   *bool
	err           error
}

func (s *stubSessions) Create(context.Context, *models.Session) error { return nil }

func (s *stubSessions) Get(context.Context, string, string) (*models.Session, error) {
	return &models.Session{}, nil
}

func (s *stubSessions) ListByUser(context.Context, string, string) ([]*models.Session, error) {
	return []*models.Session{}, nil
}

func (s *stubSessions) Touch(context.Context, string, string) error { return nil }

func (s *stubSessions) SetFlags(_ context.Context, userID, sessionID string, favorite, deleted *bool) error {
	s.lastUserID = userID
	s.lastSessionID = sessionID
	s.lastFavorite = favorite
	s.lastDeleted = deleted
	return s.err
}

func TestHandleUpdateFlags(t *testing.T) {
	t.Run("updates flags", func(t *testing.T) {
		turns := &stubTurns{}
		h := NewFlagsHandler(turns, &stubSessions{}, testLogger())

		req := httptest.NewRequest(http.MethodPost, "/api/updateflags/v1",
			strings.NewReader(`{"sessionId": "s1", "chatId": 2, "showSql": true}`))
		rec := httptest.NewRecorder()
		h.HandleUpdateFlags(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if turns.lastSessionID != "s1" || turns.lastChatID != 2 {
			t.Errorf("expected s1/2, got %s/%d", turns.lastSessionID, turns.lastChatID)
		}
		if turns.lastShowSQL == nil || !*turns.lastShowSQL {
			t.Errorf("expected showSql true, got %v", turns.lastShowSQL)
		}
	})

	t.Run("rejects missing chat id", func(t *testing.T) {
		h := NewFlagsHandler(&stubTurns{}, &stubSessions{}, testLogger())

		req := httptest.NewRequest(http.MethodPost, "/api/updateflags/v1",
			strings.NewReader(`{"sessionId": "s1"}`))
		rec := httptest.NewRecorder()
		h.HandleUpdateFlags(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("maps missing turn to 404", func(t *testing.T) {
		h := NewFlagsHandler(&stubTurns{err: domain.ErrNotFound}, &stubSessions{}, testLogger())

		req := httptest.NewRequest(http.MethodPost, "/api/updateflags/v1",
			strings.NewReader(`{"sessionId": "s1", "chatId": 9}`))
		rec := httptest.NewRecorder()
		h.HandleUpdateFlags(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func TestHandleSessionFlags(t *testing.T) {
	t.Run("sets favorite and leaves delete alone", func(t *testing.T) {
		sessions := &stubSessions{}
		h := NewFlagsHandler(&stubTurns{}, sessions, testLogger())

		req := httptest.NewRequest(http.MethodPost, "/api/sessionflags/v1",
			strings.NewReader(`{"userId": "u1", "sessionId": "s1", "isFavorite": true}`))
		rec := httptest.NewRecorder()
		h.HandleSessionFlags(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if sessions.lastUserID != "u1" || sessions.lastSessionID != "s1" {
			t.Errorf("expected u1/s1, got %s/%s", sessions.lastUserID, sessions.lastSessionID)
		}
		if sessions.lastFavorite == nil || !*sessions.lastFavorite {
			t.Errorf("expected favorite true, got %v", sessions.lastFavorite)
		}
		if sessions.lastDeleted != nil {
			t.Errorf("expected deleted flag untouched, got %v", *sessions.lastDeleted)
		}
	})

	t.Run("rejects missing user id", func(t *testing.T) {
		h := NewFlagsHandler(&stubTurns{}, &stubSessions{}, testLogger())

		req := httptest.NewRequest(http.MethodPost, "/api/sessionflags/v1",
			strings.NewReader(`{"sessionId": "s1", "isDeleted": true}`))
		rec := httptest.NewRecorder()
		h.HandleSessionFlags(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestHandleHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("expected ok body, got %q", rec.Body.String())
	}
}
