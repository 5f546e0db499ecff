package models

import (
	"context"
	"database/sql"
	"time"

	"github.com/pandamasta/pwcheck/password"
)

// Stats summarizes the check history.
type Stats struct {
	Total         int64                      `json:"total"`
	ByReason      map[password.Reason]int64 `json:"by_reason"`
	DistinctUsers int64                      `json:"distinct_users"`
}

// Store is the check history backed by a sqlite connection.
type Store struct {
	DB  *sql.DB
	Now func() time.Time
}

// NewStore wraps conn.
func NewStore(conn *sql.DB) *Store {
	return &Store{DB: conn, Now: time.Now}
}

// Record stores the outcome of one check.
func (s *Store) Record(ctx context.Context, result password.Result, username, source string) error {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	_, err := InsertCheck(ctx, s.DB, NewCheckRecord(result, username, source, now()))
	return err
}

// Stats aggregates the stored checks.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	byReason, err := CountByReason(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	users, err := CountDistinctUsers(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	st := &Stats{ByReason: byReason, DistinctUsers: users}
	for _, n := range byReason {
		st.Total += n
	}
	return st, nil
}

// Recent returns the latest stored checks.
func (s *Store) Recent(ctx context.Context, limit int) ([]CheckRecord, error) {
	return RecentChecks(ctx, s.DB, limit)
}
