// Package repository defines the persistence interfaces the pipeline and
// handlers depend on. Implementations live in subpackages.
package repository

import (
	"context"

	"dataexplorer/internal/models"
)

// SessionRepository stores chat sessions.
type SessionRepository interface {
	// Create inserts a session. Returns a conflict error wrapping
	// domain.ErrConflict when the session already exists.
	Create(ctx context.Context, session *models.Session) error

	// Get fetches a session by user and session id. Returns domain.ErrNotFound
	// when absent.
	Get(ctx context.Context, userID, sessionID string) (*models.Session, error)

	// ListByUser returns the user's sessions for one application, capped at
	// the 10 most recently updated per data source. Soft-deleted sessions are
	// excluded.
	ListByUser(ctx context.Context, userID, applicationName string) ([]*models.Session, error)

	// Touch bumps the session's last-updated timestamp.
	Touch(ctx context.Context, userID, sessionID string) error

	// SetFlags sets the favorite and soft-delete flags. A nil flag leaves the
	// stored value unchanged.
	SetFlags(ctx context.Context, userID, sessionID string, favorite, deleted *bool) error
}

// TurnRepository stores turn records.
type TurnRepository interface {
	// Insert writes a new turn record. Returns a conflict error wrapping
	// domain.ErrConflict when the turn id already exists.
	Insert(ctx context.Context, turn *models.TurnRecord) error

	// Update overwrites an existing turn record by id.
	Update(ctx context.Context, turn *models.TurnRecord) error

	// MaxChatID returns the highest chat id in the session, 0 when the
	// session has no turns.
	MaxChatID(ctx context.Context, sessionID string) (int, error)

	// ListRecent returns the last n turns of the session as prompt context,
	// in ascending chat id order.
	ListRecent(ctx context.Context, sessionID string, n int) ([]models.PriorTurn, error)

	// History returns every turn of the session in ascending chat id order.
	History(ctx context.Context, sessionID string) ([]*models.TurnRecord, error)

	// UpdateDisplayFlags sets the client display toggles on one turn. A nil
	// flag leaves the stored value unchanged.
	UpdateDisplayFlags(ctx context.Context, sessionID string, chatID int, showSQL, showVisualization *bool) error
}
