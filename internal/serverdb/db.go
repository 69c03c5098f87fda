// Package serverdb stores verification records for the submission API.
package serverdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite"
)

// ServerDB wraps the submission API database connection.
type ServerDB struct {
	conn *sql.DB
}

// Open opens (creating if needed) the database at path and applies any
// pending migrations.
func Open(path string) (*ServerDB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Single writer; sqlite serializes anyway
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=500"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	db := &ServerDB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

// Close closes the connection.
func (db *ServerDB) Close() error {
	return db.conn.Close()
}

// Ping checks the connection.
func (db *ServerDB) Ping() error {
	return db.conn.Ping()
}

// SchemaVersion returns the recorded schema version.
func (db *ServerDB) SchemaVersion() (int, error) {
	var v string
	err := db.conn.QueryRow(`SELECT value FROM schema_info WHERE key = 'version'`).Scan(&v)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return strconv.Atoi(v)
}

func (db *ServerDB) migrate() error {
	if _, err := db.conn.Exec(serverSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	current, err := db.SchemaVersion()
	if err != nil {
		return err
	}
	if current == 0 {
		current = 1
	}

	for _, m := range Migrations {
		if m.Version <= current {
			continue
		}
		tx, err := db.conn.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}
		if err := setVersion(tx, m.Version); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		current = m.Version
	}

	if current < ServerSchemaVersion {
		current = ServerSchemaVersion
	}
	return setVersion(db.conn, current)
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func setVersion(e execer, v int) error {
	_, err := e.Exec(
		`INSERT INTO schema_info (key, value) VALUES ('version', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		strconv.Itoa(v),
	)
	if err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}
	return nil
}
