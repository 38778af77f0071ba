package ledger

import (
	"database/sql"

	"github.com/HerbHall/llmexperts/internal/store"
)

// Component is the migration namespace of the ledger.
const Component = "ledger"

func migrations() []store.Migration {
	return []store.Migration{
		{
			Version:     1,
			Description: "create summary_runs table",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE TABLE IF NOT EXISTS summary_runs (
						id                INTEGER PRIMARY KEY AUTOINCREMENT,
						run_id            TEXT    NOT NULL UNIQUE,
						artifact          TEXT    NOT NULL,
						model             TEXT    NOT NULL,
						tier              TEXT    NOT NULL,
						issue             TEXT    NOT NULL,
						source            TEXT    NOT NULL,
						reused            INTEGER NOT NULL DEFAULT 0,
						responses         INTEGER NOT NULL DEFAULT 0,
						prompt_tokens     INTEGER NOT NULL DEFAULT 0,
						completion_tokens INTEGER NOT NULL DEFAULT 0,
						created_at        TEXT    NOT NULL
					)`,
					`CREATE INDEX IF NOT EXISTS idx_summary_runs_created_at ON summary_runs(created_at)`,
				}
				for _, stmt := range stmts {
					if _, err := tx.Exec(stmt); err != nil {
						return err
					}
				}
				return nil
			},
		},
		{
			Version:     2,
			Description: "index summary_runs by artifact and model",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE INDEX IF NOT EXISTS idx_summary_runs_artifact ON summary_runs(artifact)`,
					`CREATE INDEX IF NOT EXISTS idx_summary_runs_model ON summary_runs(model)`,
				}
				for _, stmt := range stmts {
					if _, err := tx.Exec(stmt); err != nil {
						return err
					}
				}
				return nil
			},
		},
	}
}
