package models

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/pandamasta/pwcheck/db"
	"github.com/pandamasta/pwcheck/password"
)

const defaultRecentLimit = 20

// CheckRecord is one stored validation outcome. It never carries the password
// or the raw username.
type CheckRecord struct {
	ID             int64
	Verdict        password.Verdict
	Reason         password.Reason
	UsernameDigest string
	Source         string
	CreatedAt      time.Time
}

// NewCheckRecord builds the record for result. The username is reduced to a
// digest of its lowercased form so repeated checks by one user can be counted.
func NewCheckRecord(result password.Result, username, source string, now time.Time) *CheckRecord {
	return &CheckRecord{
		Verdict:        result.Verdict,
		Reason:         result.Reason,
		UsernameDigest: UsernameDigest(username),
		Source:         source,
		CreatedAt:      now.UTC(),
	}
}

// UsernameDigest returns the hex BLAKE2b-256 of the lowercased username, or ""
// for an empty username.
func UsernameDigest(username string) string {
	if username == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(strings.ToLower(username)))
	return hex.EncodeToString(sum[:])
}

// InsertCheck stores rec and returns its new ID.
func InsertCheck(ctx context.Context, conn *sql.DB, rec *CheckRecord) (int64, error) {
	res, err := db.LogExec(ctx, conn, `
		INSERT INTO checks (verdict, reason, username_digest, source, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		rec.Verdict.String(), rec.Reason.String(), rec.UsernameDigest, rec.Source, rec.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert check: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert check id: %w", err)
	}
	rec.ID = id
	return id, nil
}

// CountByReason returns how many stored checks ended with each reason.
// Every known reason is present in the map, zero when never seen.
func CountByReason(ctx context.Context, conn *sql.DB) (map[password.Reason]int64, error) {
	rows, err := db.LogQuery(ctx, conn, `SELECT reason, COUNT(*) FROM checks GROUP BY reason`)
	if err != nil {
		return nil, fmt.Errorf("count checks: %w", err)
	}
	defer rows.Close()

	counts := make(map[password.Reason]int64, len(password.Reasons()))
	for _, r := range password.Reasons() {
		counts[r] = 0
	}
	for rows.Next() {
		var name string
		var n int64
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("scan check count: %w", err)
		}
		r, ok := password.ParseReason(name)
		if !ok {
			slog.Warn("[DB] Unknown reason in checks table", "reason", name)
			continue
		}
		counts[r] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count checks: %w", err)
	}
	return counts, nil
}

// CountDistinctUsers returns the number of distinct non-empty usernames checked.
func CountDistinctUsers(ctx context.Context, conn *sql.DB) (int64, error) {
	var n int64
	err := db.LogQueryRow(ctx, conn,
		`SELECT COUNT(DISTINCT username_digest) FROM checks WHERE username_digest != ''`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// RecentChecks returns the newest checks first. limit <= 0 means 20.
func RecentChecks(ctx context.Context, conn *sql.DB, limit int) ([]CheckRecord, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	rows, err := db.LogQuery(ctx, conn, `
		SELECT id, verdict, reason, username_digest, source, created_at
		FROM checks
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent checks: %w", err)
	}
	defer rows.Close()

	var out []CheckRecord
	for rows.Next() {
		var rec CheckRecord
		var verdict, reason string
		if err := rows.Scan(&rec.ID, &verdict, &reason, &rec.UsernameDigest, &rec.Source, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan check: %w", err)
		}
		rec.Verdict = password.Verdict(verdict == password.Valid.String())
		rec.Reason, _ = password.ParseReason(reason)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recent checks: %w", err)
	}
	return out, nil
}
