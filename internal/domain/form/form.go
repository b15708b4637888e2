// Package form provides the simplified Google Form model backing form commands.
package form

import (
	"fmt"
	"strings"
)

const (
	responderURIPrefix = "https://docs.google.com/forms/d/e/"
	responseURLFormat  = "https://docs.google.com/forms/u/0/d/e/%s/formResponse"
)

// QuestionType distinguishes free text questions from single choice ones.
type QuestionType string

const (
	QuestionText   QuestionType = "text"
	QuestionChoice QuestionType = "choice"
)

// Question is a supported form question.
type Question struct {
	ID       string       `json:"id"` // Hexadecimal question id
	Required bool         `json:"required"`
	Title    string       `json:"title"`
	Type     QuestionType `json:"type"`
	Choices  []string     `json:"choices,omitempty"`
}

// Form is a form reduced to what a slash command needs.
type Form struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Questions    []Question `json:"questions"`
	ResponderURI string     `json:"responder_uri"`
	SheetID      string     `json:"sheet_id,omitempty"`
}

// ResponderID returns the public id found in the responder URI.
func (f *Form) ResponderID() string {
	id := strings.TrimPrefix(f.ResponderURI, responderURIPrefix)
	return strings.TrimSuffix(id, "/viewform")
}

// ResponseURL returns the endpoint accepting form responses.
func (f *Form) ResponseURL() string {
	return fmt.Sprintf(responseURLFormat, f.ResponderID())
}

// NeedsRefresh reports whether the stored definition predates question ids.
func (f *Form) NeedsRefresh() bool {
	return len(f.Questions) > 0 && f.Questions[0].ID == ""
}
