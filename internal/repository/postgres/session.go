package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"dataexplorer/internal/domain"
	"dataexplorer/internal/models"
	"dataexplorer/internal/repository"
)

// PostgresSessionRepository implements repository.SessionRepository.
type PostgresSessionRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewSessionRepository creates a PostgresSessionRepository.
func NewSessionRepository(config *RepositoryConfig) repository.SessionRepository {
	return &PostgresSessionRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a session. A duplicate identity comes back as a ConflictError
// so callers can treat "session already exists" as continue-the-conversation.
func (r *PostgresSessionRepository) Create(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		session.ID = models.SessionKey(session.UserID, session.SessionID)
	}
	now := time.Now().UTC()
	if session.InsertedAt.IsZero() {
		session.InsertedAt = now
	}
	if session.LastUpdatedAt.IsZero() {
		session.LastUpdatedAt = now
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (
			id, user_id, session_id, session_name, data_source,
			application_name, inserted_at, last_updated_at, is_favorite, is_deleted
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, r.tables.Sessions)

	_, err := r.pool.Exec(ctx, query,
		session.ID,
		session.UserID,
		session.SessionID,
		session.SessionName,
		session.DataSource,
		session.ApplicationName,
		session.InsertedAt,
		session.LastUpdatedAt,
		session.IsFavorite,
		session.IsDeleted,
	)
	if err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("session %s already exists", session.ID),
				ResourceType: "session",
				ResourceID:   session.ID,
			}
		}
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// Get fetches a session by user and session id.
func (r *PostgresSessionRepository) Get(ctx context.Context, userID, sessionID string) (*models.Session, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, session_id, session_name, data_source,
		       application_name, inserted_at, last_updated_at, is_favorite, is_deleted
		FROM %s
		WHERE id = $1
	`, r.tables.Sessions)

	var s models.Session
	err := r.pool.QueryRow(ctx, query, models.SessionKey(userID, sessionID)).Scan(
		&s.ID, &s.UserID, &s.SessionID, &s.SessionName, &s.DataSource,
		&s.ApplicationName, &s.InsertedAt, &s.LastUpdatedAt, &s.IsFavorite, &s.IsDeleted,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("session %s-%s: %w", userID, sessionID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &s, nil
}

// ListByUser returns the user's live sessions for one application, at most
// the 10 most recently updated per data source.
func (r *PostgresSessionRepository) ListByUser(ctx context.Context, userID, applicationName string) ([]*models.Session, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, session_id, session_name, data_source,
		       application_name, inserted_at, last_updated_at, is_favorite, is_deleted
		FROM (
			SELECT *, ROW_NUMBER() OVER (
				PARTITION BY data_source ORDER BY last_updated_at DESC
			) AS rn
			FROM %s
			WHERE user_id = $1 AND application_name = $2 AND NOT is_deleted
		) ranked
		WHERE rn <= 10
		ORDER BY data_source, last_updated_at DESC
	`, r.tables.Sessions)

	rows, err := r.pool.Query(ctx, query, userID, applicationName)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []*models.Session{}
	for rows.Next() {
		var s models.Session
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.SessionID, &s.SessionName, &s.DataSource,
			&s.ApplicationName, &s.InsertedAt, &s.LastUpdatedAt, &s.IsFavorite, &s.IsDeleted,
		); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// Touch bumps the session's last-updated timestamp.
func (r *PostgresSessionRepository) Touch(ctx context.Context, userID, sessionID string) error {
	query := fmt.Sprintf(`UPDATE %s SET last_updated_at = $2 WHERE id = $1`, r.tables.Sessions)

	tag, err := r.pool.Exec(ctx, query, models.SessionKey(userID, sessionID), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %s-%s: %w", userID, sessionID, domain.ErrNotFound)
	}
	return nil
}

// SetFlags sets the favorite and soft-delete flags. Nil flags keep the stored
// values.
func (r *PostgresSessionRepository) SetFlags(ctx context.Context, userID, sessionID string, favorite, deleted *bool) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET is_favorite = COALESCE($2, is_favorite),
		    is_deleted = COALESCE($3, is_deleted),
		    last_updated_at = $4
		WHERE id = $1
	`, r.tables.Sessions)

	tag, err := r.pool.Exec(ctx, query, models.SessionKey(userID, sessionID), favorite, deleted, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set session flags: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %s-%s: %w", userID, sessionID, domain.ErrNotFound)
	}
	return nil
}
