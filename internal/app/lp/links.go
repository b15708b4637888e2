package lp

import "regexp"

var (
	spotifyAlbumRe    = regexp.MustCompile(`\bhttps://open.spotify.com(?:/intl-[a-z]+)?/album/([a-zA-Z0-9]+)(?:\?[a-zA-Z?=&]*)?\b`)
	spotifyPlaylistRe = regexp.MustCompile(`\bhttps://open.spotify.com(?:/intl-[a-z]+)?/playlist/([a-zA-Z0-9]+)(?:\?[a-zA-Z?=&]*)?\b`)
)

// MatchSpotifyAlbum returns the first Spotify album ID found in s.
func MatchSpotifyAlbum(s string) (string, bool) {
	return firstGroup(spotifyAlbumRe, s)
}

// MatchSpotifyPlaylist returns the first Spotify playlist ID found in s.
func MatchSpotifyPlaylist(s string) (string, bool) {
	return firstGroup(spotifyPlaylistRe, s)
}

func firstGroup(re *regexp.Regexp, s string) (string, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}
