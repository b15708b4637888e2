// Package store persists registered playlists and form commands in SQLite.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	_ "github.com/mattn/go-sqlite3"
	zlog "github.com/rs/zerolog/log"
)

// ErrNotFound is returned when no row matches.
var ErrNotFound = errors.New("not found")

var pragmas = []string{
	"PRAGMA journal_mode=WAL;",
	"PRAGMA busy_timeout=5000;",
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS playlists (
		guild_id TEXT NOT NULL,
		command_name TEXT NOT NULL,
		name TEXT NOT NULL,
		spreadsheet_id TEXT NOT NULL,
		has_backup BOOLEAN NOT NULL DEFAULT(FALSE),

		UNIQUE(guild_id, command_name)
	)`,
	`CREATE TABLE IF NOT EXISTS forms (
		guild_id TEXT NOT NULL,
		command_name TEXT NOT NULL,
		command_id TEXT NOT NULL,
		form TEXT NOT NULL,
		submission_type TEXT NOT NULL DEFAULT('song'),
		submissions_range TEXT,

		UNIQUE(guild_id, command_name)
	)`,
}

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database %s", path)
	}
	// A single connection keeps in-memory databases shared and serializes writes.
	db.SetMaxOpenConns(1)

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	s := &Store{db: db}
	if err := s.migrate(initCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	zlog.Info().Msgf("database opened: %s", path)
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	for _, p := range pragmas {
		if _, err := s.db.ExecContext(ctx, p); err != nil {
			return errors.Wrapf(err, "failed to apply %s", p)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin migration")
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range schema {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return errors.Wrap(err, "failed to create table")
		}
	}
	return errors.Wrap(tx.Commit(), "failed to commit migration")
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
