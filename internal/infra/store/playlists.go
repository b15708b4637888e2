package store

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
)

// Playlist is a playlist event accepting submissions through a guild command.
type Playlist struct {
	GuildID       string
	CommandName   string
	Name          string
	SpreadsheetID string
	HasBackup     bool
}

// SavePlaylist inserts a playlist, replacing one registered under the same command.
func (s *Store) SavePlaylist(ctx context.Context, p Playlist) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO playlists (guild_id, command_name, name, spreadsheet_id, has_backup)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (guild_id, command_name) DO UPDATE
		 SET name = excluded.name, spreadsheet_id = excluded.spreadsheet_id, has_backup = excluded.has_backup`,
		p.GuildID, p.CommandName, p.Name, p.SpreadsheetID, p.HasBackup,
	)
	return errors.Wrapf(err, "failed to save playlist %s", p.CommandName)
}

// GetPlaylist returns the playlist registered under a command.
func (s *Store) GetPlaylist(ctx context.Context, guildID, commandName string) (*Playlist, error) {
	p := Playlist{GuildID: guildID, CommandName: commandName}
	err := s.db.QueryRowContext(ctx,
		`SELECT name, spreadsheet_id, has_backup FROM playlists WHERE guild_id = ? AND command_name = ?`,
		guildID, commandName,
	).Scan(&p.Name, &p.SpreadsheetID, &p.HasBackup)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrNotFound, "playlist %s", commandName)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get playlist %s", commandName)
	}
	return &p, nil
}

// DeletePlaylist removes a playlist. Deleting a missing playlist is not an error.
func (s *Store) DeletePlaylist(ctx context.Context, guildID, commandName string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM playlists WHERE guild_id = ? AND command_name = ?`,
		guildID, commandName,
	)
	return errors.Wrapf(err, "failed to delete playlist %s", commandName)
}

// ListPlaylists returns the playlists of a guild in registration order.
func (s *Store) ListPlaylists(ctx context.Context, guildID string) ([]Playlist, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT command_name, name, spreadsheet_id, has_backup FROM playlists WHERE guild_id = ? ORDER BY rowid`,
		guildID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query playlists")
	}
	defer rows.Close()

	var playlists []Playlist
	for rows.Next() {
		p := Playlist{GuildID: guildID}
		if err := rows.Scan(&p.CommandName, &p.Name, &p.SpreadsheetID, &p.HasBackup); err != nil {
			return nil, errors.Wrap(err, "failed to scan playlist")
		}
		playlists = append(playlists, p)
	}
	return playlists, errors.Wrap(rows.Err(), "failed to read playlists")
}
