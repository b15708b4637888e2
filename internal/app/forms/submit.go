package forms

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/humbleledger/internal/app/command"
	"github.com/osa030/humbleledger/internal/app/filter"
	"github.com/osa030/humbleledger/internal/infra/config"
	"github.com/osa030/humbleledger/internal/infra/gforms"
	"github.com/osa030/humbleledger/internal/infra/store"
)

// isUserTitle reports whether a question asks for the submitter.
func isUserTitle(title string) bool {
	lower := strings.ToLower(title)
	return strings.Contains(lower, "user") || strings.Contains(lower, "discord")
}

type submitted struct {
	info string
	url  string
}

// Submit answers the form behind fc with the command's option values,
// keyed by option name.
//
// Questions are walked last to first so that the name resolved from a
// link can fill the question left out of the command just before it.
func (s *Service) Submit(ctx context.Context, fc store.FormCommand, user command.User, options map[string]string) (string, error) {
	questions := fc.Form.Questions
	answers := make([]gforms.Answer, 0, len(questions))
	var picks []submitted
	var carried *string

	for i := len(questions) - 1; i >= 0; i-- {
		q := questions[i]
		id, err := gforms.ParseQuestionID(q.ID)
		if err != nil {
			return "", err
		}

		if isUserTitle(q.Title) {
			answers = append(answers, gforms.Answer{QuestionID: id, Value: user.Handle()})
			continue
		}

		name := SanitizeName(q.Title)
		value, ok := options[name]
		if !ok && carried != nil {
			value, ok = *carried, true
			carried = nil
		}
		if !ok {
			if q.Required {
				return "", errors.Newf("Cannot submit form response: no value provided for %s", q.Title)
			}
			continue
		}

		if strings.Contains(name, "spotify") || strings.Contains(name, "link") {
			pick, err := s.resolvePick(ctx, fc, user, value)
			if err != nil {
				return "", err
			}
			if pick != nil {
				info := pick.info
				carried = &info
				value = pick.url
				picks = append(picks, *pick)
			}
		}
		answers = append(answers, gforms.Answer{QuestionID: id, Value: value})
	}

	if err := s.client.Submit(ctx, fc.Form.ResponseURL(), answers); err != nil {
		return "", err
	}
	zlog.Info().Msgf("form submission: command=%s user=%s answers=%d", fc.CommandName, user.Handle(), len(answers))

	if len(picks) == 0 {
		return "Submitted to **" + fc.Form.Title + "**", nil
	}
	links := make([]string, len(picks))
	for i, p := range picks {
		links[i] = "[" + p.info + "](" + p.url + ")"
	}
	return "Submitted " + strings.Join(links, ", ") + " to **" + fc.Form.Title + "**", nil
}

// resolvePick looks up a link answer. Album links no provider understands
// are submitted as is and return nil.
func (s *Service) resolvePick(ctx context.Context, fc store.FormCommand, user command.User, link string) (*submitted, error) {
	if fc.SubmissionType == TypeAlbum {
		if err := s.filters.Validate(ctx, filter.Submission{UserID: user.ID, Target: config.TargetForm}); err != nil {
			return nil, err
		}
		a, err := s.albums.FromURL(ctx, link)
		if err != nil {
			return nil, err
		}
		if a == nil {
			return nil, nil
		}
		return &submitted{info: a.FormatName(), url: a.URL}, nil
	}

	song, err := s.songs.GetSongFromURL(ctx, link)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve song")
	}
	if err := s.filters.Validate(ctx, filter.Submission{UserID: user.ID, Target: config.TargetForm, Track: song}); err != nil {
		return nil, err
	}
	return &submitted{info: song.DisplayName(), url: song.URL}, nil
}
