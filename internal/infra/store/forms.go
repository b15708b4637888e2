package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/cockroachdb/errors"

	"github.com/osa030/humbleledger/internal/domain/form"
)

// FormCommand is a guild command that submits to a Google Form.
type FormCommand struct {
	GuildID          string
	CommandName      string
	CommandID        string
	Form             form.Form
	SubmissionType   string // "song" or "album"
	SubmissionsRange string // Empty means the default range
}

// UpsertForm inserts a form command or replaces the one with the same name.
// The submissions range of an existing row is kept.
func (s *Store) UpsertForm(ctx context.Context, fc FormCommand) error {
	data, err := json.Marshal(fc.Form)
	if err != nil {
		return errors.Wrap(err, "failed to encode form")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO forms (guild_id, command_name, command_id, form, submission_type)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (guild_id, command_name) DO UPDATE
		 SET command_id = excluded.command_id, form = excluded.form, submission_type = excluded.submission_type`,
		fc.GuildID, fc.CommandName, fc.CommandID, string(data), fc.SubmissionType,
	)
	return errors.Wrapf(err, "failed to save form command %s", fc.CommandName)
}

// DeleteForm removes a form command.
func (s *Store) DeleteForm(ctx context.Context, guildID, commandName string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM forms WHERE guild_id = ? AND command_name = ?`,
		guildID, commandName,
	)
	return errors.Wrapf(err, "failed to delete form command %s", commandName)
}

// SetSubmissionsRange overrides the sheet range searched by get_submissions.
// An empty range restores the default.
func (s *Store) SetSubmissionsRange(ctx context.Context, guildID, commandName, rng string) error {
	var value sql.NullString
	if rng != "" {
		value = sql.NullString{String: rng, Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE forms SET submissions_range = ? WHERE guild_id = ? AND command_name = ?`,
		value, guildID, commandName,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update submissions range")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Wrapf(ErrNotFound, "command %s", commandName)
	}
	return nil
}

// LoadForms returns every stored form command.
func (s *Store) LoadForms(ctx context.Context) ([]FormCommand, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT guild_id, command_name, command_id, form, submission_type, submissions_range FROM forms ORDER BY rowid`,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query forms")
	}
	defer rows.Close()

	var commands []FormCommand
	for rows.Next() {
		var (
			fc   FormCommand
			data string
			rng  sql.NullString
		)
		if err := rows.Scan(&fc.GuildID, &fc.CommandName, &fc.CommandID, &data, &fc.SubmissionType, &rng); err != nil {
			return nil, errors.Wrap(err, "failed to scan form command")
		}
		if err := json.Unmarshal([]byte(data), &fc.Form); err != nil {
			return nil, errors.Wrapf(err, "failed to decode form of %s", fc.CommandName)
		}
		fc.SubmissionsRange = rng.String
		commands = append(commands, fc)
	}
	return commands, errors.Wrap(rows.Err(), "failed to read forms")
}
