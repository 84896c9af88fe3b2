package registry

import (
	"database/sql"

	"github.com/fleetmon/fleetmon/internal/store"
)

// Migrations returns the schema migrations for the device roster.
func Migrations() []store.Migration {
	return []store.Migration{
		{
			Version:     1,
			Description: "create devices table",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE TABLE IF NOT EXISTS devices (
						id TEXT PRIMARY KEY,
						serial_number TEXT NOT NULL UNIQUE,
						name TEXT NOT NULL,
						address TEXT NOT NULL UNIQUE,
						model TEXT NOT NULL DEFAULT '',
						branch TEXT NOT NULL DEFAULT '',
						status TEXT NOT NULL DEFAULT 'Unknown',
						maintenance INTEGER NOT NULL DEFAULT 0,
						community TEXT NOT NULL DEFAULT 'public',
						snmp_version TEXT NOT NULL DEFAULT '2c',
						cpu_usage REAL,
						temperature REAL,
						latency REAL,
						bandwidth REAL,
						last_updated DATETIME NOT NULL
					)`,
					`CREATE INDEX IF NOT EXISTS idx_devices_serial ON devices(serial_number)`,
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
