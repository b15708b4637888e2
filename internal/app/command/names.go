package command

// Global command names.
const (
	LPInfo           = "lp_info"
	LPJoin           = "lp_join"
	ReadyPoll        = "ready_poll"
	RegisterPlaylist = "register_playlist"
	RemovePlaylist   = "remove_playlist"
	ListPlaylists    = "list_playlists"
	SubmitAlbumClub  = "submit_album_club"
	CommandFromForm  = "command_from_form"
	RefreshForm      = "refresh_form_command"
	DeleteForm       = "delete_form_command"
	ListForms        = "list_forms"
	GetSubmissions   = "get_submissions"
	OverrideRange    = "override_form_submissions_range"
	BuildPlaylist    = "build_playlist"
)

// Option names shared by several commands.
const (
	OptCommandName = "command_name"
	OptLink        = "link"
	OptBackupLink  = "backup_link"
)
