// Package db stores cached upstream responses and a history of generated
// artifacts in a local SQLite database. The schema is managed through
// embedded golang-migrate migrations, applied automatically on Open.
package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
}

// Open opens (creating if needed) the SQLite database at path, applies the
// connection pragmas, and brings the schema up to the latest migration.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{sqlDB}
	if err := db.applyPragmas(); err != nil {
		sqlDB.Close()
		return nil, err
	}

	migrationsFS, err := getMigrationsFS()
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	if err := db.MigrateUp(migrationsFS); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return db, nil
}

// applyPragmas sets the connection pragmas used for every database,
// new or existing. WAL keeps readers from blocking the writer.
func (db *DB) applyPragmas() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	return nil
}
