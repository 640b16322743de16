package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"dataexplorer/internal/domain"
	"dataexplorer/internal/models"
	"dataexplorer/internal/repository"
)

// PostgresTurnRepository implements repository.TurnRepository. The chart and
// followups columns are JSONB, encoded explicitly so the stored shape matches
// the wire shape.
type PostgresTurnRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewTurnRepository creates a PostgresTurnRepository.
func NewTurnRepository(config *RepositoryConfig) repository.TurnRepository {
	return &PostgresTurnRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

func encodeTurnJSON(turn *models.TurnRecord) (viz, followups []byte, err error) {
	if turn.Visualization != nil {
		viz, err = json.Marshal(turn.Visualization)
		if err != nil {
			return nil, nil, fmt.Errorf("encode visualization: %w", err)
		}
	}
	f := turn.Followups
	if f == nil {
		f = []models.Followup{}
	}
	followups, err = json.Marshal(f)
	if err != nil {
		return nil, nil, fmt.Errorf("encode followups: %w", err)
	}
	return viz, followups, nil
}

// Insert writes a new turn record.
func (r *PostgresTurnRepository) Insert(ctx context.Context, turn *models.TurnRecord) error {
	if turn.ID == "" {
		turn.ID = models.TurnKey(turn.SessionID, turn.ChatID)
	}
	viz, followups, err := encodeTurnJSON(turn)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (
			id, chat_id, user_id, session_id, prompt, rephrased_prompt,
			response, sql_code, visualization, followups, view_visualization,
			show_sql, show_visualization, input_tokens, output_tokens,
			input_cost, output_cost, total_cost, model_name, data_source,
			application_name, inserted_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
		        $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	`, r.tables.Turns)

	_, err = r.pool.Exec(ctx, query,
		turn.ID, turn.ChatID, turn.UserID, turn.SessionID, turn.Prompt,
		turn.RephrasedPrompt, turn.Response, turn.SQLCode, viz, followups,
		turn.ViewVisualization, turn.ShowSQL, turn.ShowVisualization,
		turn.InputTokens, turn.OutputTokens, turn.InputCost, turn.OutputCost,
		turn.TotalCost, turn.ModelName, turn.DataSource, turn.ApplicationName,
		turn.InsertedAt,
	)
	if err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("turn %s already exists", turn.ID),
				ResourceType: "message",
				ResourceID:   turn.ID,
			}
		}
		return fmt.Errorf("insert turn: %w", err)
	}
	return nil
}

// Update overwrites an existing turn record by id.
func (r *PostgresTurnRepository) Update(ctx context.Context, turn *models.TurnRecord) error {
	if turn.ID == "" {
		turn.ID = models.TurnKey(turn.SessionID, turn.ChatID)
	}
	viz, followups, err := encodeTurnJSON(turn)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s SET
			prompt = $2, rephrased_prompt = $3, response = $4, sql_code = $5,
			visualization = $6, followups = $7, view_visualization = $8,
			input_tokens = $9, output_tokens = $10, input_cost = $11,
			output_cost = $12, total_cost = $13, model_name = $14
		WHERE id = $1
	`, r.tables.Turns)

	tag, err := r.pool.Exec(ctx, query,
		turn.ID, turn.Prompt, turn.RephrasedPrompt, turn.Response, turn.SQLCode,
		viz, followups, turn.ViewVisualization, turn.InputTokens,
		turn.OutputTokens, turn.InputCost, turn.OutputCost, turn.TotalCost,
		turn.ModelName,
	)
	if err != nil {
		return fmt.Errorf("update turn: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("turn %s: %w", turn.ID, domain.ErrNotFound)
	}
	return nil
}

// MaxChatID returns the highest chat id in the session, 0 when empty.
func (r *PostgresTurnRepository) MaxChatID(ctx context.Context, sessionID string) (int, error) {
	query := fmt.Sprintf(`SELECT COALESCE(MAX(chat_id), 0) FROM %s WHERE session_id = $1`, r.tables.Turns)

	var maxID int
	if err := r.pool.QueryRow(ctx, query, sessionID).Scan(&maxID); err != nil {
		return 0, fmt.Errorf("max chat id: %w", err)
	}
	return maxID, nil
}

// ListRecent returns the last n turns of the session in ascending chat id
// order, as prompt context.
func (r *PostgresTurnRepository) ListRecent(ctx context.Context, sessionID string, n int) ([]models.PriorTurn, error) {
	query := fmt.Sprintf(`
		SELECT chat_id, prompt, rephrased_prompt, sql_code, response
		FROM (
			SELECT chat_id, prompt, rephrased_prompt, sql_code, response
			FROM %s
			WHERE session_id = $1
			ORDER BY chat_id DESC
			LIMIT $2
		) recent
		ORDER BY chat_id ASC
	`, r.tables.Turns)

	rows, err := r.pool.Query(ctx, query, sessionID, n)
	if err != nil {
		return nil, fmt.Errorf("list recent turns: %w", err)
	}
	defer rows.Close()

	turns := []models.PriorTurn{}
	for rows.Next() {
		var t models.PriorTurn
		if err := rows.Scan(&t.ChatID, &t.Prompt, &t.RephrasedPrompt, &t.SQLCode, &t.Response); err != nil {
			return nil, fmt.Errorf("scan prior turn: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list recent turns: %w", err)
	}
	return turns, nil
}

// History returns every turn of the session in ascending chat id order.
func (r *PostgresTurnRepository) History(ctx context.Context, sessionID string) ([]*models.TurnRecord, error) {
	query := fmt.Sprintf(`
		SELECT id, chat_id, user_id, session_id, prompt, rephrased_prompt,
		       response, sql_code, visualization, followups, view_visualization,
		       show_sql, show_visualization, input_tokens, output_tokens,
		       input_cost, output_cost, total_cost, model_name, data_source,
		       application_name, inserted_at
		FROM %s
		WHERE session_id = $1
		ORDER BY chat_id ASC
	`, r.tables.Turns)

	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("turn history: %w", err)
	}
	defer rows.Close()

	turns := []*models.TurnRecord{}
	for rows.Next() {
		var t models.TurnRecord
		var viz, followups []byte
		if err := rows.Scan(
			&t.ID, &t.ChatID, &t.UserID, &t.SessionID, &t.Prompt,
			&t.RephrasedPrompt, &t.Response, &t.SQLCode, &viz, &followups,
			&t.ViewVisualization, &t.ShowSQL, &t.ShowVisualization,
			&t.InputTokens, &t.OutputTokens, &t.InputCost, &t.OutputCost,
			&t.TotalCost, &t.ModelName, &t.DataSource, &t.ApplicationName,
			&t.InsertedAt,
		); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		if len(viz) > 0 {
			var chart models.Chart
			if err := json.Unmarshal(viz, &chart); err != nil {
				r.logger.Warn("dropping undecodable stored chart",
					slog.String("turn_id", t.ID),
					slog.String("error", err.Error()))
			} else {
				t.Visualization = &chart
			}
		}
		if len(followups) > 0 {
			if err := json.Unmarshal(followups, &t.Followups); err != nil {
				return nil, fmt.Errorf("decode followups for turn %s: %w", t.ID, err)
			}
		}
		if t.Followups == nil {
			t.Followups = []models.Followup{}
		}
		turns = append(turns, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("turn history: %w", err)
	}
	return turns, nil
}

// UpdateDisplayFlags sets the client display toggles on one turn. Nil flags
// keep the stored values.
func (r *PostgresTurnRepository) UpdateDisplayFlags(ctx context.Context, sessionID string, chatID int, showSQL, showVisualization *bool) error {
	query := fmt.Sprintf(`
		UPDATE %s SET
			show_sql = COALESCE($2, show_sql),
			show_visualization = COALESCE($3, show_visualization)
		WHERE id = $1
	`, r.tables.Turns)

	tag, err := r.pool.Exec(ctx, query, models.TurnKey(sessionID, chatID), showSQL, showVisualization)
	if err != nil {
		return fmt.Errorf("update display flags: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("turn %s: %w", models.TurnKey(sessionID, chatID), domain.ErrNotFound)
	}
	return nil
}
