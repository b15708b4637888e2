package lp

import (
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/humbleledger/internal/domain/playlist"
)

// Session is the listening party announced in a channel.
// Started is nil until the ready signal fires.
type Session struct {
	Playlist *playlist.Playlist
	Started  *time.Time
}

// NowPlaying resolves what is playing at now+offset.
func (s *Session) NowPlaying(now time.Time, offset time.Duration) PlayState {
	if s.Started == nil {
		return NotStarted()
	}
	started := *s.Started
	if started.After(now) {
		zlog.Warn().Msgf("Listening party start is in the future: started=%s now=%s",
			started.Format(time.RFC3339), now.Format(time.RFC3339))
		return NotStarted()
	}

	remain := now.Sub(started) + offset
	if remain < 0 {
		return NotStarted()
	}
	if s.Playlist == nil {
		return Finished(remain)
	}
	for _, t := range s.Playlist.Tracks {
		if remain < t.Duration {
			return Playing(t, remain)
		}
		remain -= t.Duration
	}
	return Finished(remain)
}
