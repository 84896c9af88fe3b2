package poll

import (
	"database/sql"

	"github.com/fleetmon/fleetmon/internal/store"
)

// Migrations returns the schema migrations for the sample history.
func Migrations() []store.Migration {
	return []store.Migration{
		{
			Version:     1,
			Description: "create samples table",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE TABLE IF NOT EXISTS samples (
						id INTEGER PRIMARY KEY AUTOINCREMENT,
						device_id TEXT NOT NULL,
						captured_at DATETIME NOT NULL,
						status TEXT NOT NULL,
						cpu_usage REAL,
						temperature REAL,
						latency REAL,
						bandwidth REAL,
						alert_triggered INTEGER NOT NULL DEFAULT 0,
						alert_message TEXT NOT NULL DEFAULT ''
					)`,
					`CREATE INDEX IF NOT EXISTS idx_samples_device_time ON samples(device_id, captured_at)`,
					`CREATE INDEX IF NOT EXISTS idx_samples_time ON samples(captured_at)`,
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
