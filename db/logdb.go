package db

import (
	"context"
	"database/sql"
	"log/slog"
	"sync/atomic"
)

var debug atomic.Bool

// EnableDebugLogs makes every statement run through the Log* helpers show up at debug level.
func EnableDebugLogs() {
	debug.Store(true)
}

func DisableDebugLogs() {
	debug.Store(false)
}

func LogExec(ctx context.Context, db *sql.DB, query string, args ...any) (sql.Result, error) {
	if debug.Load() {
		slog.Debug("[SQL] Exec", "query", query, "args", args)
	}
	return db.ExecContext(ctx, query, args...)
}

func LogQuery(ctx context.Context, db *sql.DB, query string, args ...any) (*sql.Rows, error) {
	if debug.Load() {
		slog.Debug("[SQL] Query", "query", query, "args", args)
	}
	return db.QueryContext(ctx, query, args...)
}

func LogQueryRow(ctx context.Context, db *sql.DB, query string, args ...any) *sql.Row {
	if debug.Load() {
		slog.Debug("[SQL] QueryRow", "query", query, "args", args)
	}
	return db.QueryRowContext(ctx, query, args...)
}
