package lp

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/osa030/humbleledger/internal/domain/playlist"
	"github.com/osa030/humbleledger/internal/domain/track"
)

const (
	titleNotStarted = "Listening Party has not started yet."
	titleFinished   = "Listening Party has finished."
	titlePlaying    = "Listening Party in full swing! Join in!"
	titleJoin       = "Join this listening party"
)

// InfoEmbed describes the session and what is playing at now.
func InfoEmbed(s *Session, now time.Time) *discordgo.MessageEmbed {
	p := s.Playlist
	var header string
	if p.Kind == playlist.KindAlbum {
		header = "**Album**:\n " + maybeLink(p.DisplayName(), p.URL)
	} else {
		header = "**Playlist**:\n " + maybeLink(p.Name, p.URL)
	}

	embed := &discordgo.MessageEmbed{
		Description: fmt.Sprintf("%s - \\[%s\\]", header, FormatDuration(p.TotalDuration())),
	}

	state := s.NowPlaying(now, 0)
	switch state.State {
	case StateNotStarted:
		embed.Title = titleNotStarted
	case StateFinished:
		embed.Title = titleFinished
	case StatePlaying:
		embed.Title = titlePlaying
		embed.Fields = []*discordgo.MessageEmbedField{{
			Name: "Now playing",
			Value: fmt.Sprintf("Track %d - %s - (%s)\nTrack started <t:%d:R>",
				state.Track.Number,
				maybeLink(state.Track.Name, trackContextURL(state.Track, p)),
				FormatDuration(state.Track.Duration),
				now.Add(-state.Position).Unix(),
			),
			Inline: true,
		}}
	}
	return embed
}

// JoinEmbed tells a late listener which track to select and where to seek
// so that playback started offset from now lines up with the party.
func JoinEmbed(s *Session, now time.Time, offset time.Duration) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{}

	state := s.NowPlaying(now, offset)
	switch state.State {
	case StateNotStarted:
		embed.Title = titleNotStarted
	case StateFinished:
		embed.Title = titleFinished
	case StatePlaying:
		embed.Title = titleJoin
		embed.Fields = []*discordgo.MessageEmbedField{{
			Name: "Select song",
			Value: fmt.Sprintf("Track: %s - (%s)\nPosition **%s**\n Start playback: <t:%d:R>",
				maybeLink(state.Track.Name, trackContextURL(state.Track, s.Playlist)),
				FormatDuration(state.Track.Duration),
				FormatDuration(state.Position),
				now.Add(offset).Unix(),
			),
			Inline: true,
		}}
	}
	return embed
}

// trackContextURL links the track inside its album or playlist context.
func trackContextURL(t track.Track, p *playlist.Playlist) string {
	if t.URL == "" {
		return ""
	}
	return t.URL + "?context=" + p.URI()
}
