// Package activity remembers what members are listening to on Spotify,
// as reported by their Discord presence.
package activity

import (
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

const spotifyActivityName = "Spotify"

// NowPlaying is the track shown in a member's Spotify presence.
type NowPlaying struct {
	Title   string
	Artists string
	End     time.Time // Zero when the presence has no end timestamp
}

// Query returns a search query finding the track.
func (np NowPlaying) Query() string {
	// Spotify presences separate artists with "; "
	artists := strings.ReplaceAll(np.Artists, ";", "")
	return strings.TrimSpace(artists + " " + np.Title)
}

// Registry tracks Spotify activity per user with thread-safe access.
type Registry struct {
	mu    sync.RWMutex
	users map[string]NowPlaying
}

// NewRegistry creates a new activity registry.
func NewRegistry() *Registry {
	return &Registry{
		users: make(map[string]NowPlaying),
	}
}

// FromActivities extracts the Spotify listening activity, if any.
func FromActivities(activities []*discordgo.Activity) (NowPlaying, bool) {
	for _, a := range activities {
		if a == nil || a.Type != discordgo.ActivityTypeListening || a.Name != spotifyActivityName {
			continue
		}
		if a.Details == "" {
			return NowPlaying{}, false
		}
		np := NowPlaying{Title: a.Details, Artists: a.State}
		if a.Timestamps.EndTimestamp > 0 {
			np.End = time.UnixMilli(a.Timestamps.EndTimestamp)
		}
		return np, true
	}
	return NowPlaying{}, false
}

// Update records the user's presence. Presences without Spotify activity
// clear the user's entry.
func (r *Registry) Update(userID string, activities []*discordgo.Activity) {
	np, ok := FromActivities(activities)

	r.mu.Lock()
	defer r.mu.Unlock()
	if ok {
		r.users[userID] = np
	} else {
		delete(r.users, userID)
	}
}

// NowPlaying returns what the user is listening to.
func (r *Registry) NowPlaying(userID string) (NowPlaying, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	np, ok := r.users[userID]
	return np, ok
}

// Len returns the number of users currently listening.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
