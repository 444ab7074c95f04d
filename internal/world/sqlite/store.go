// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

// Package sqlite implements the world stores on a single SQLite database file.
package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/worldkeeper/worldkeeper/internal/world"
	"github.com/worldkeeper/worldkeeper/internal/xdg"
)

// connection pragmas, applied to every connection the pool opens.
const dsnParams = "?_pragma=journal_mode(WAL)" +
	"&_pragma=synchronous(NORMAL)" +
	"&_pragma=foreign_keys(1)" +
	"&_pragma=busy_timeout(5000)" +
	"&_pragma=temp_store(MEMORY)" +
	"&_txlock=immediate"

const (
	beginRetryBase = 25 * time.Millisecond
	beginRetries   = 5
)

// Store owns the database handle and opens units of work on it.
type Store struct {
	db   *sqlx.DB
	path string
}

var _ world.Beginner = (*Store)(nil)

// Open opens (creating if needed) the database at path. The schema must
// already be migrated; see MigrateUp.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := ensureParentDir(path); err != nil {
		return nil, err
	}
	db, err := sqlx.Open("sqlite", path+dsnParams)
	if err != nil {
		return nil, oops.Code("DB_OPEN_FAILED").With("path", path).Wrap(err)
	}
	// One writer at a time; every query runs inside the active transaction.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, oops.Code("DB_OPEN_FAILED").With("path", path).Wrap(err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DB exposes the underlying handle for maintenance tasks such as export.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return oops.With("operation", "ping").Wrap(err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return oops.With("operation", "close database").Wrap(err)
	}
	return nil
}

// Begin opens a unit of work. Transactions take the write lock immediately;
// a database held by another process is retried with exponential backoff.
func (s *Store) Begin(ctx context.Context) (world.UnitOfWork, error) {
	var tx *sqlx.Tx
	backoff := retry.WithMaxRetries(beginRetries, retry.NewExponential(beginRetryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		tx, err = s.db.BeginTxx(ctx, nil)
		if isBusy(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, oops.Code(world.CodeTransactionFailed).With("operation", "begin").Wrap(err)
	}
	return newUnitOfWork(tx), nil
}

// isBusy reports whether err is SQLite's lock contention signal.
func isBusy(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	code := se.Code() & 0xff
	return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := xdg.EnsureDir(dir); err != nil {
		return oops.Code("DB_OPEN_FAILED").With("path", path).Wrap(err)
	}
	return nil
}
