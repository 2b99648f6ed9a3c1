// Package database opens the SQLite store and bootstraps its schema.
package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Open connects to the SQLite database at dsn, enables foreign keys, and
// ensures the schema exists.
func Open(dsn string) (*sqlx.DB, error) {
	if dsn == "" {
		dsn = "spiritgear.db"
	}
	db, err := sqlx.Connect("sqlite3", dsn+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite serializes writes; a single writer connection avoids
	// SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)
	if err := EnsureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// OpenInMemory returns a fresh in-memory database with the schema applied.
// Used by tests.
func OpenInMemory() (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := EnsureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates any missing tables.
func EnsureSchema(db *sqlx.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
