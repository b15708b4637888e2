// Package gforms fetches Google Forms definitions and posts form responses.
package gforms

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	gforms "google.golang.org/api/forms/v1"
	"google.golang.org/api/option"

	"github.com/osa030/humbleledger/internal/domain/form"
)

var (
	// ErrUnsupportedQuestion is returned for question kinds a slash command cannot express.
	ErrUnsupportedQuestion = errors.New("unsupported question")
	// ErrSubmitFailed is returned when the form endpoint rejects a response.
	ErrSubmitFailed = errors.New("failed to send response")
)

// Answer is a single entry of a form response.
type Answer struct {
	QuestionID uint64
	Value      string
}

// Client wraps the Forms API and the public response endpoint.
type Client struct {
	svc        *gforms.Service
	httpClient *http.Client
}

// Config represents Forms client configuration.
type Config struct {
	CredentialsFile string
}

// New creates a new Forms client authenticated with a service account.
func New(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Client, error) {
	if cfg.CredentialsFile != "" {
		opts = append(opts,
			option.WithCredentialsFile(cfg.CredentialsFile),
			option.WithScopes(gforms.FormsBodyReadonlyScope),
		)
	}

	svc, err := gforms.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create forms service")
	}
	return &Client{
		svc:        svc,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// GetForm fetches a form by its edit id and simplifies it.
func (c *Client) GetForm(ctx context.Context, formID string) (*form.Form, error) {
	f, err := c.svc.Forms.Get(formID).Context(ctx).Do()
	if err != nil {
		return nil, errors.Wrapf(err, "could not get form %s", formID)
	}
	return Simplify(f)
}

// Submit posts a response to the form's public endpoint.
func (c *Client) Submit(ctx context.Context, responseURL string, answers []Answer) error {
	pairs := make([]string, len(answers))
	for i, a := range answers {
		pairs[i] = "entry." + formatUint(a.QuestionID) + "=" + url.QueryEscape(a.Value)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, responseURL, strings.NewReader(strings.Join(pairs, "&")))
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Wrapf(ErrSubmitFailed, "status %d", resp.StatusCode)
	}
	return nil
}

// Simplify keeps the question items of a form. Text and single choice
// questions are supported; checkboxes and "Other" options are rejected.
func Simplify(f *gforms.Form) (*form.Form, error) {
	if f.Info == nil || f.Info.Title == "" {
		return nil, errors.New("form is missing a title")
	}

	out := &form.Form{
		ID:           f.FormId,
		Title:        f.Info.Title,
		ResponderURI: f.ResponderUri,
		SheetID:      f.LinkedSheetId,
	}

	for _, item := range f.Items {
		if item.QuestionItem == nil || item.QuestionItem.Question == nil {
			continue
		}
		if item.Title == "" {
			return nil, errors.New("question is missing a title")
		}
		q := item.QuestionItem.Question

		simple := form.Question{
			ID:       q.QuestionId,
			Required: q.Required,
			Title:    item.Title,
		}
		switch {
		case q.TextQuestion != nil:
			simple.Type = form.QuestionText
		case q.ChoiceQuestion != nil:
			if q.ChoiceQuestion.Type == "CHECKBOX" {
				return nil, errors.Wrap(ErrUnsupportedQuestion, "checkboxes are not supported")
			}
			simple.Type = form.QuestionChoice
			for _, opt := range q.ChoiceQuestion.Options {
				if opt.IsOther {
					return nil, errors.Wrap(ErrUnsupportedQuestion, "'Other' field is not supported")
				}
				simple.Choices = append(simple.Choices, opt.Value)
			}
		default:
			return nil, errors.Wrap(ErrUnsupportedQuestion, "can only handle text or choice questions")
		}
		out.Questions = append(out.Questions, simple)
	}

	return out, nil
}
