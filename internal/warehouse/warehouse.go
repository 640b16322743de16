// Package warehouse executes analytical SQL against the data warehouse and
// renders result sets as observation text for the reasoning loops.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/databricks/databricks-sql-go"
)

const (
	queryTimeout = 120 * time.Second

	// maxRows bounds how much of a result set is rendered into a prompt.
	maxRows = 100
)

// Result is a fully materialized query result.
type Result struct {
	Columns   []string
	Rows      [][]string
	Truncated bool
}

// Executor runs SQL and returns the materialized result.
type Executor interface {
	Query(ctx context.Context, query string) (*Result, error)
}

// Databricks implements Executor on a Databricks SQL warehouse.
type Databricks struct {
	db *sql.DB
}

// NewDatabricks opens a connection pool against the given warehouse.
func NewDatabricks(host, httpPath, token, catalog string) (*Databricks, error) {
	dsn := fmt.Sprintf("token:%s@%s:443/%s", token, host, strings.TrimPrefix(httpPath, "/"))
	if catalog != "" {
		dsn += "?catalog=" + url.QueryEscape(catalog)
	}
	db, err := sql.Open("databricks", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open warehouse connection: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Databricks{db: db}, nil
}

// Close releases the underlying pool.
func (d *Databricks) Close() error {
	return d.db.Close()
}

// Query runs the statement and scans every cell to text. At most maxRows rows
// are kept; the result records whether it was cut short.
func (d *Databricks) Query(ctx context.Context, query string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("warehouse query failed: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	result := &Result{Columns: cols}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if len(result.Rows) >= maxRows {
			result.Truncated = true
			break
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		row := make([]string, len(cols))
		for i, v := range values {
			row[i] = cellText(v)
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("warehouse result iteration failed: %w", err)
	}
	return result, nil
}

func cellText(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(t)
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// Render formats the result as a pipe-delimited table for a model prompt.
func (r *Result) Render() string {
	if len(r.Rows) == 0 {
		return "Query returned no rows."
	}
	var b strings.Builder
	b.WriteString(strings.Join(r.Columns, " | "))
	b.WriteString("\n")
	for _, row := range r.Rows {
		b.WriteString(strings.Join(row, " | "))
		b.WriteString("\n")
	}
	if r.Truncated {
		fmt.Fprintf(&b, "(output truncated to %d rows)\n", maxRows)
	}
	return b.String()
}
