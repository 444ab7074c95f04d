// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/worldkeeper/worldkeeper/internal/core"
	"github.com/worldkeeper/worldkeeper/internal/world"
)

// querier abstracts the sqlx calls shared by *sqlx.Tx and *sqlx.DB.
type querier interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// jsonColumn stores a structured value as JSON TEXT.
type jsonColumn[T any] struct {
	V T
}

func jsonOf[T any](v T) jsonColumn[T] {
	return jsonColumn[T]{V: v}
}

// Value implements driver.Valuer.
func (j jsonColumn[T]) Value() (driver.Value, error) {
	b, err := json.Marshal(j.V)
	if err != nil {
		return nil, oops.With("operation", "encode json column").Wrap(err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (j *jsonColumn[T]) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		return nil
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return oops.Errorf("unsupported json column type %T", src)
	}
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, &j.V); err != nil {
		return oops.With("operation", "decode json column").Wrap(err)
	}
	return nil
}

// idPtr converts an optional ULID to a nullable TEXT argument.
func idPtr(id *ulid.ULID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

// parseID parses a stored ULID, naming the column on failure.
func parseID(s, field string) (ulid.ULID, error) {
	id, err := core.ParseULID(s)
	if err != nil {
		return ulid.ULID{}, oops.With("operation", "parse "+field).Wrap(err)
	}
	return id, nil
}

// parseOptionalID parses a nullable stored ULID.
func parseOptionalID(s *string, field string) (*ulid.ULID, error) {
	if s == nil {
		return nil, nil
	}
	id, err := parseID(*s, field)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime parses a stored RFC 3339 timestamp, naming the column on failure.
func parseTime(s, field string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, oops.With("operation", "parse "+field).With(field, s).Wrap(err)
	}
	return t, nil
}

// notFound maps sql.ErrNoRows to the entity's coded not-found error and
// wraps anything else as a storage fault.
func notFound(err error, code, kind, operation string, id ulid.ULID) error {
	if errors.Is(err, sql.ErrNoRows) {
		return world.NotFound(code, kind, id)
	}
	return oops.With("operation", operation).With("id", id.String()).Wrap(err)
}

// requireAffected fails with the coded not-found error when an update or
// delete touched no rows.
func requireAffected(res sql.Result, code, kind string, id ulid.ULID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return oops.With("operation", "rows affected").Wrap(err)
	}
	if n == 0 {
		return world.NotFound(code, kind, id)
	}
	return nil
}

// validate runs an entity's Validate and converts failures to INVALID_INPUT.
func validate(v interface{ Validate() error }) error {
	return world.FromValidation(v.Validate())
}
