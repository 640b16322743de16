// Command seed creates the session and message tables for the configured
// environment's table prefix. Safe to run repeatedly.
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"dataexplorer/internal/config"
	"dataexplorer/internal/repository/postgres"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	statements := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id               TEXT PRIMARY KEY,
				user_id          TEXT NOT NULL,
				session_id       TEXT NOT NULL,
				session_name     TEXT NOT NULL DEFAULT '',
				data_source      TEXT NOT NULL,
				application_name TEXT NOT NULL,
				inserted_at      TIMESTAMPTZ NOT NULL,
				last_updated_at  TIMESTAMPTZ NOT NULL,
				is_favorite      BOOLEAN NOT NULL DEFAULT FALSE,
				is_deleted       BOOLEAN NOT NULL DEFAULT FALSE
			)`, tables.Sessions),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_user_app_idx ON %s (user_id, application_name)`,
			tables.Sessions, tables.Sessions),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id                 TEXT PRIMARY KEY,
				chat_id            INTEGER NOT NULL,
				user_id            TEXT NOT NULL,
				session_id         TEXT NOT NULL,
				prompt             TEXT NOT NULL DEFAULT '',
				rephrased_prompt   TEXT NOT NULL DEFAULT '',
				response           TEXT NOT NULL DEFAULT '',
				sql_code           TEXT NOT NULL DEFAULT '',
				visualization      JSONB,
				followups          JSONB NOT NULL DEFAULT '[]',
				view_visualization BOOLEAN NOT NULL DEFAULT FALSE,
				show_sql           BOOLEAN NOT NULL DEFAULT FALSE,
				show_visualization BOOLEAN NOT NULL DEFAULT FALSE,
				input_tokens       INTEGER NOT NULL DEFAULT 0,
				output_tokens      INTEGER NOT NULL DEFAULT 0,
				input_cost         DOUBLE PRECISION NOT NULL DEFAULT 0,
				output_cost        DOUBLE PRECISION NOT NULL DEFAULT 0,
				total_cost         DOUBLE PRECISION NOT NULL DEFAULT 0,
				model_name         TEXT NOT NULL DEFAULT '',
				data_source        TEXT NOT NULL,
				application_name   TEXT NOT NULL,
				inserted_at        TIMESTAMPTZ NOT NULL
			)`, tables.Turns),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_session_idx ON %s (session_id, chat_id)`,
			tables.Turns, tables.Turns),
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			log.Fatalf("Failed to run statement: %v", err)
		}
	}

	log.Printf("Tables %s and %s are ready", tables.Sessions, tables.Turns)
}
