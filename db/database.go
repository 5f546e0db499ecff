package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNoPath is returned by Open when no database path is configured.
var ErrNoPath = errors.New("db: empty database path")

const schema = `
	CREATE TABLE IF NOT EXISTS checks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		verdict TEXT NOT NULL,
		reason TEXT NOT NULL,
		username_digest TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT 'web',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_checks_reason ON checks(reason);
	CREATE INDEX IF NOT EXISTS idx_checks_created_at ON checks(created_at);
	`

// Open opens the sqlite database at path and creates the schema.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, ErrNoPath
	}

	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// sqlite serializes writers; one connection avoids SQLITE_BUSY under load.
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}

	if err := Migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}

	slog.Info("[DB] Opened check history", "path", path)
	return conn, nil
}

// Migrate creates the tables used by the check history if they are missing.
func Migrate(ctx context.Context, conn *sql.DB) error {
	if _, err := LogExec(ctx, conn, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
