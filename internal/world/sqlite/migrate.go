// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package sqlite

import (
	"embed"
	"errors"
	"io/fs"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite" // modernc-backed driver
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/samber/oops"
)

// CodeMigrationFailed marks any schema migration failure. The context key
// "operation" names the step that failed.
const CodeMigrationFailed = "MIGRATION_FAILED"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migration is one embedded schema version.
type Migration struct {
	Version uint
	Name    string // file stem, e.g. 000001_initial_schema
}

var (
	indexOnce sync.Once
	index     []Migration
	indexErr  error
)

// Migrations lists the embedded migrations in version order.
func Migrations() ([]Migration, error) {
	indexOnce.Do(func() { index, indexErr = readMigrations(migrationsFS) })
	if indexErr != nil {
		return nil, indexErr
	}
	return slices.Clone(index), nil
}

func readMigrations(fsys fs.ReadDirFS) ([]Migration, error) {
	entries, err := fsys.ReadDir("migrations")
	if err != nil {
		return nil, oops.Code(CodeMigrationFailed).With("operation", "list migrations").Wrap(err)
	}
	var out []Migration
	for _, e := range entries {
		stem, ok := strings.CutSuffix(e.Name(), ".up.sql")
		if !ok {
			continue
		}
		prefix, _, _ := strings.Cut(stem, "_")
		v, err := strconv.ParseUint(prefix, 10, 32)
		if err != nil {
			slog.Warn("ignoring migration with malformed name", "file", e.Name())
			continue
		}
		out = append(out, Migration{Version: uint(v), Name: stem})
	}
	slices.SortFunc(out, func(a, b Migration) int { return int(a.Version) - int(b.Version) })
	return out, nil
}

// MigrationName returns the file stem for version, or "" when no embedded
// migration has that version.
func MigrationName(version uint) (string, error) {
	all, err := Migrations()
	if err != nil {
		return "", err
	}
	i := slices.IndexFunc(all, func(m Migration) bool { return m.Version == version })
	if i < 0 {
		return "", nil
	}
	return all[i].Name, nil
}

// Migrator applies the embedded migrations to one database file. It holds
// its own connection, separate from any Store.
type Migrator struct {
	path string
	m    *migrate.Migrate
}

// NewMigrator prepares a migrator for the database at path, creating the
// parent directory when needed.
func NewMigrator(path string) (*Migrator, error) {
	if err := ensureParentDir(path); err != nil {
		return nil, err
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, oops.Code(CodeMigrationFailed).With("operation", "open source").Wrap(err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, "sqlite://"+path)
	if err != nil {
		_ = src.Close()
		return nil, oops.Code(CodeMigrationFailed).With("operation", "open database").With("path", path).Wrap(err)
	}
	return &Migrator{path: path, m: m}, nil
}

func (m *Migrator) fail(op string, err error) error {
	return oops.Code(CodeMigrationFailed).With("operation", op).With("path", m.path).Wrap(err)
}

// Up applies every pending migration.
func (m *Migrator) Up() error {
	if err := m.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return m.fail("up", err)
	}
	return nil
}

// Down reverts every migration, dropping all world data.
func (m *Migrator) Down() error {
	if err := m.m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return m.fail("down", err)
	}
	return nil
}

// Version reports the applied version and whether the last migration
// stopped partway. A fresh database is version 0.
func (m *Migrator) Version() (uint, bool, error) {
	v, dirty, err := m.m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return 0, false, nil
	case err != nil:
		return 0, false, m.fail("version", err)
	}
	return v, dirty, nil
}

// Force marks version as applied and clears the dirty flag without running
// any SQL.
func (m *Migrator) Force(version int) error {
	if version < 0 {
		return oops.Code("INVALID_VERSION").With("version", version).Errorf("version must be non-negative")
	}
	if err := m.m.Force(version); err != nil {
		return m.fail("force", err)
	}
	return nil
}

// PendingMigrations lists the versions Up would apply.
func (m *Migrator) PendingMigrations() ([]uint, error) {
	current, _, err := m.Version()
	if err != nil {
		return nil, err
	}
	all, err := Migrations()
	if err != nil {
		return nil, err
	}
	var pending []uint
	for _, mig := range all {
		if mig.Version > current {
			pending = append(pending, mig.Version)
		}
	}
	return pending, nil
}

// Close releases the migrator's handles.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	if err := errors.Join(srcErr, dbErr); err != nil {
		return m.fail("close", err)
	}
	return nil
}

// MigrateUp brings the database at path to the latest schema.
func MigrateUp(path string) error {
	m, err := NewMigrator(path)
	if err != nil {
		return err
	}
	return errors.Join(m.Up(), m.Close())
}
