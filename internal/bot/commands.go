package bot

import (
	"github.com/bwmarrin/discordgo"

	"github.com/osa030/humbleledger/internal/app/albumclub"
	"github.com/osa030/humbleledger/internal/app/command"
	"github.com/osa030/humbleledger/internal/app/forms"
)

var (
	manageEvents int64 = discordgo.PermissionManageEvents
	guildOnly          = false
	minOffset          = 0.0
)

// GlobalCommands returns the commands registered for every guild.
func GlobalCommands() []*discordgo.ApplicationCommand {
	commandName := func(desc string) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Type:         discordgo.ApplicationCommandOptionString,
			Name:         command.OptCommandName,
			Description:  desc,
			Required:     true,
			Autocomplete: true,
		}
	}
	managed := func(cmd *discordgo.ApplicationCommand) *discordgo.ApplicationCommand {
		cmd.DefaultMemberPermissions = &manageEvents
		return cmd
	}

	commands := []*discordgo.ApplicationCommand{
		{
			Name:        command.LPInfo,
			Description: "Show what the listening party in this channel is playing",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "visible",
					Description: "Show the answer to everyone in the channel",
				},
			},
		},
		{
			Name:        command.LPJoin,
			Description: "Find where to start playback to join the listening party",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "offset",
					Description: "Seconds you need to get ready (default 15)",
					MinValue:    &minOffset,
				},
			},
		},
		{
			Name:        command.ReadyPoll,
			Description: "Ask the listening party if everyone is ready",
		},
		managed(&discordgo.ApplicationCommand{
			Name:        command.RegisterPlaylist,
			Description: "Register a playlist users can submit songs to",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "name",
					Description: "Name of the playlist",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "spreadsheet_id",
					Description: "Spreadsheet ID or link",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "has_backup",
					Description: "Ask for a backup pick",
					Required:    true,
				},
			},
		}),
		managed(&discordgo.ApplicationCommand{
			Name:        command.RemovePlaylist,
			Description: "Remove a playlist submission command",
			Options:     []*discordgo.ApplicationCommandOption{commandName("The name of the submission command")},
		}),
		{
			Name:        command.ListPlaylists,
			Description: "List the playlists accepting submissions",
		},
		albumclub.ApplicationCommand(),
		managed(&discordgo.ApplicationCommand{
			Name:        command.CommandFromForm,
			Description: "Create a submission command from a Google Form",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        command.OptCommandName,
					Description: "Name of the command to create",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "form_id",
					Description: "Form ID or link",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "submission_type",
					Description: "What the form collects",
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: forms.TypeSong, Value: forms.TypeSong},
						{Name: forms.TypeAlbum, Value: forms.TypeAlbum},
					},
				},
			},
		}),
		managed(&discordgo.ApplicationCommand{
			Name:        command.RefreshForm,
			Description: "Rebuild a form command after the form changed",
			Options:     []*discordgo.ApplicationCommandOption{commandName("The name of the command to refresh")},
		}),
		managed(&discordgo.ApplicationCommand{
			Name:        command.DeleteForm,
			Description: "Delete a form command",
			Options:     []*discordgo.ApplicationCommandOption{commandName("The name of the command to delete")},
		}),
		{
			Name:        command.ListForms,
			Description: "List the form commands",
		},
		{
			Name:        command.GetSubmissions,
			Description: "Show your last submissions to a form",
			Options:     []*discordgo.ApplicationCommandOption{commandName("the command used to submit")},
		},
		managed(&discordgo.ApplicationCommand{
			Name:        command.OverrideRange,
			Description: "Set where get_submissions looks in the form's sheet",
			Options: []*discordgo.ApplicationCommandOption{
				commandName("The name of the command"),
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "range",
					Description: "Sheet range, e.g. 'Form Responses 1'!B:Z",
					Required:    true,
				},
			},
		}),
		managed(&discordgo.ApplicationCommand{
			Name:        command.BuildPlaylist,
			Description: "Build the Acquiring the Taste playlist",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "reuse",
					Description: "Add to the last playlist instead of creating a new edition",
				},
			},
		}),
	}
	for _, cmd := range commands {
		cmd.DMPermission = &guildOnly
	}
	return commands
}
