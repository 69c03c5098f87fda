package serverdb

// ServerSchemaVersion is the current server database schema version
const ServerSchemaVersion = 2

const serverSchema = `
-- Verified answers, one per dimension
CREATE TABLE IF NOT EXISTS verifications (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT UNIQUE NOT NULL,
    dimension_id INTEGER UNIQUE NOT NULL,
    atelier TEXT NOT NULL DEFAULT '[]',
    bbox TEXT NOT NULL DEFAULT '[]',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Schema info table
CREATE TABLE IF NOT EXISTS schema_info (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// Migration defines a server database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// Migrations is the list of all server database migrations in order
var Migrations = []Migration{
	// Version 1 is the initial schema - no migration needed
	{
		Version:     2,
		Description: "Add submission audit table",
		SQL: `CREATE TABLE IF NOT EXISTS submission_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			dimension_id INTEGER NOT NULL,
			outcome TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_submission_events_dimension ON submission_events(dimension_id);
		CREATE INDEX IF NOT EXISTS idx_verifications_created ON verifications(created_at);`,
	},
}
