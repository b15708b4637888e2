package forms

import (
	"sort"
	"strings"
	"unicode"

	"github.com/bwmarrin/discordgo"

	"github.com/osa030/humbleledger/internal/app/command"
	"github.com/osa030/humbleledger/internal/domain/form"
)

const maxNameLength = 32

// SanitizeName converts s to a valid command or option name.
func SanitizeName(s string) string {
	ascii := strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	var b strings.Builder
	prevUnderscore := false
	for _, r := range strings.TrimSpace(ascii) {
		if unicode.IsSpace(r) || strings.ContainsRune("-+&./", r) {
			r = '_'
		} else {
			r = unicode.ToLower(r)
		}
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		if b.Len() >= maxNameLength {
			break
		}
		if r == '_' {
			if !prevUnderscore {
				b.WriteRune(r)
				prevUnderscore = true
			}
			continue
		}
		prevUnderscore = false
		b.WriteRune(r)
	}
	return b.String()
}

// IsLinkTitle reports whether a question title, or the option built from
// it, asks for a song or album link.
func IsLinkTitle(title string) bool {
	lower := strings.ToLower(title)
	return strings.Contains(lower, "spotify") || strings.Contains(lower, "link")
}

// ToCommand builds the slash command submitting to a form.
//
// The first question is assumed to ask for the username and is skipped.
// A text question followed by a link question is left out: its answer is
// derived from the link, which gets autocompletion instead.
func ToCommand(f *form.Form, commandName string) *discordgo.ApplicationCommand {
	var questions []form.Question
	if len(f.Questions) > 1 {
		questions = append(questions, f.Questions[1:]...)
	}
	// Discord requires required options first
	sort.SliceStable(questions, func(i, j int) bool {
		return questions[i].Required && !questions[j].Required
	})

	cmd := &discordgo.ApplicationCommand{
		Name:        SanitizeName(commandName),
		Description: command.Truncate(f.Title, 100),
	}
	autocomplete := false
	for i, q := range questions {
		if i+1 < len(questions) && q.Type == form.QuestionText && IsLinkTitle(questions[i+1].Title) {
			autocomplete = true
			continue
		}
		option := &discordgo.ApplicationCommandOption{
			Type:         discordgo.ApplicationCommandOptionString,
			Name:         SanitizeName(q.Title),
			Description:  command.Truncate(q.Title, 100),
			Required:     q.Required,
			Autocomplete: autocomplete,
		}
		if q.Type == form.QuestionChoice {
			for _, c := range q.Choices {
				option.Choices = append(option.Choices, &discordgo.ApplicationCommandOptionChoice{
					Name:  command.Truncate(c, 100),
					Value: c,
				})
			}
		}
		cmd.Options = append(cmd.Options, option)
		autocomplete = false
	}
	return cmd
}
