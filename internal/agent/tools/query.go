package tools

import (
	"context"
	"strings"
	"sync"

	"dataexplorer/internal/warehouse"
)

// ExecuteQuery runs SQL against the warehouse and records the last statement
// that produced rows, so the pipeline can report the SQL behind an answer.
type ExecuteQuery struct {
	executor warehouse.Executor

	mu      sync.Mutex
	lastSQL string
}

// NewExecuteQuery creates the warehouse query tool.
func NewExecuteQuery(executor warehouse.Executor) *ExecuteQuery {
	return &ExecuteQuery{executor: executor}
}

func (t *ExecuteQuery) Name() string { return "execute_query" }

func (t *ExecuteQuery) Description() string {
	return "Run a SQL query against the warehouse. Input is the SQL statement. Returns the result rows as text."
}

// Execute runs the statement. Warehouse failures come back as errors and are
// folded into observations by the registry.
func (t *ExecuteQuery) Execute(ctx context.Context, input string) (string, error) {
	query := strings.TrimSpace(input)
	if query == "" {
		return "Error: execute_query requires a SQL statement as input.", nil
	}
	result, err := t.executor.Query(ctx, query)
	if err != nil {
		return "", err
	}
	if len(result.Rows) > 0 {
		t.mu.Lock()
		t.lastSQL = query
		t.mu.Unlock()
	}
	return result.Render(), nil
}

// LastSQL returns the most recent statement that returned rows.
func (t *ExecuteQuery) LastSQL() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastSQL
}
