package rest

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/humbleledger/internal/app/lp"
	"github.com/osa030/humbleledger/internal/app/notification"
)

// TrackView is a track in API responses.
type TrackView struct {
	Number   int    `json:"number"`
	Name     string `json:"name"`
	Artists  string `json:"artists,omitempty"`
	URL      string `json:"url,omitempty"`
	Duration string `json:"duration"`
}

// SessionView is a channel's listening party in API responses.
type SessionView struct {
	ChannelID     string     `json:"channel_id"`
	Kind          string     `json:"kind"`
	Name          string     `json:"name"`
	URL           string     `json:"url,omitempty"`
	Tracks        int        `json:"tracks"`
	TotalDuration string     `json:"total_duration"`
	Started       *time.Time `json:"started,omitempty"`
	State         string     `json:"state"`
	Track         *TrackView `json:"track,omitempty"`
	Position      string     `json:"position,omitempty"`
	Overrun       string     `json:"overrun,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
}

func newSessionView(channelID string, session lp.Session, state lp.PlayState) SessionView {
	v := SessionView{
		ChannelID: channelID,
		Started:   session.Started,
		State:     state.State.String(),
	}
	if p := session.Playlist; p != nil {
		v.Kind = p.Kind.String()
		v.Name = p.DisplayName()
		v.URL = p.URL
		v.Tracks = len(p.Tracks)
		v.TotalDuration = lp.FormatDuration(p.TotalDuration())
	}
	switch state.State {
	case lp.StatePlaying:
		t := state.Track
		v.Track = &TrackView{
			Number:   t.Number,
			Name:     t.Name,
			Artists:  t.ArtistsString(),
			URL:      t.URL,
			Duration: lp.FormatDuration(t.Duration),
		}
		v.Position = lp.FormatDuration(state.Position)
	case lp.StateFinished:
		v.Overrun = lp.FormatDuration(state.Overrun)
	}
	return v
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listSessions(w http.ResponseWriter, _ *http.Request) {
	now := s.sessions.Now()
	snapshot := s.sessions.Snapshot()

	views := make([]SessionView, 0, len(snapshot))
	for channelID, session := range snapshot {
		views = append(views, newSessionView(channelID, session, session.NowPlaying(now, 0)))
	}
	sort.Slice(views, func(i, j int) bool { return views[i].ChannelID < views[j].ChannelID })
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")

	var offset time.Duration
	if raw := r.URL.Query().Get("offset"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "offset must be a number of seconds")
			return
		}
		if secs < 0 {
			writeError(w, http.StatusBadRequest, "offset must not be negative")
			return
		}
		offset = time.Duration(secs) * time.Second
	}

	session, state, ok := s.sessions.State(channelID, offset)
	if !ok {
		writeError(w, http.StatusNotFound, lp.NoSessionMessage)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(channelID, session, state))
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")
	if _, _, ok := s.sessions.State(channelID, 0); !ok {
		writeError(w, http.StatusNotFound, lp.NoSessionMessage)
		return
	}

	ev := s.notifier.Broadcast(r.Context(), notification.ReadyEvent{
		ChannelID: channelID,
		Source:    "admin",
	})
	zlog.Info().Msgf("Ready signal sent from status api: channel=%s seq=%d", channelID, ev.SequenceNo)

	session, state, _ := s.sessions.State(channelID, 0)
	writeJSON(w, http.StatusOK, newSessionView(channelID, session, state))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zlog.Warn().Msgf("Failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}
