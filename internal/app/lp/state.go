// Package lp reconstructs listening-party playback state from wall-clock time.
package lp

import (
	"time"

	"github.com/osa030/humbleledger/internal/domain/track"
)

// State represents the playback state of a listening party.
type State int

const (
	StateNotStarted State = iota // No ready signal yet, or started in the future
	StatePlaying                 // A track is playing
	StateFinished                // Every track has been played
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StatePlaying:
		return "playing"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// PlayState is the result of resolving a session at a point in time.
type PlayState struct {
	State State

	// Track and Position are set when State is StatePlaying.
	Track    track.Track
	Position time.Duration

	// Overrun is how long ago the last track ended, set when State is StateFinished.
	Overrun time.Duration
}

// NotStarted returns a not-started play state.
func NotStarted() PlayState {
	return PlayState{State: StateNotStarted}
}

// Playing returns a playing play state.
func Playing(t track.Track, position time.Duration) PlayState {
	return PlayState{State: StatePlaying, Track: t, Position: position}
}

// Finished returns a finished play state.
func Finished(overrun time.Duration) PlayState {
	return PlayState{State: StateFinished, Overrun: overrun}
}
