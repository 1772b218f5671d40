// internal/record/sqlite.go
//
// SQLite-backed Store. The record lives in the session_record key/value
// table (created by sql/001_init.sql); one row per key. UPSERTs keep
// writes idempotent and the single-writer model needs no locking beyond
// the driver's.

package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"
)

type sqliteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an opened database as a record Store.
func NewSQLiteStore(db *sql.DB) Store {
	return &sqliteStore{db: db}
}

func (s *sqliteStore) Load(ctx context.Context) (Record, bool, error) {
	var rec Record

	started, ok, err := s.get(ctx, KeyStartedAt)
	if err != nil || !ok {
		return rec, false, err
	}
	budget, ok, err := s.get(ctx, KeyBudget)
	if err != nil || !ok {
		return rec, false, err
	}
	submitted, ok, err := s.get(ctx, KeySubmitted)
	if err != nil || !ok {
		return rec, false, err
	}

	millis, err := strconv.ParseInt(started, 10, 64)
	if err != nil {
		return rec, false, fmt.Errorf("sessionStartTimestamp: %w", err)
	}
	rec.StartedAt = time.UnixMilli(millis)
	if rec.BudgetMinutes, err = strconv.Atoi(budget); err != nil {
		return rec, false, fmt.Errorf("timeBudgetMinutes: %w", err)
	}
	if rec.Submitted, err = DecodeSubmitted(submitted); err != nil {
		return rec, false, err
	}
	return rec, true, nil
}

func (s *sqliteStore) Save(ctx context.Context, rec Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	pairs := [][2]string{
		{KeyStartedAt, strconv.FormatInt(rec.StartedAt.UnixMilli(), 10)},
		{KeyBudget, strconv.Itoa(rec.BudgetMinutes)},
		{KeySubmitted, EncodeSubmitted(rec.Submitted)},
	}
	for _, kv := range pairs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO session_record (k, v) VALUES (?, ?)
			 ON CONFLICT(k) DO UPDATE SET v = excluded.v`, kv[0], kv[1]); err != nil {
			return fmt.Errorf("save %s: %w", kv[0], err)
		}
	}
	return tx.Commit()
}

func (s *sqliteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM session_record`)
	return err
}

// get reads one key; ok is false on a missing row.
func (s *sqliteStore) get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT v FROM session_record WHERE k = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}
