// Package sheets reads and appends spreadsheet rows through the Google Sheets API.
package sheets

import (
	"context"
	"fmt"
	"regexp"

	"github.com/cockroachdb/errors"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// ValueInputOption used for every write, so dates and links are parsed like typed input.
const userEntered = "USER_ENTERED"

var spreadsheetURLRe = regexp.MustCompile(`https://docs.google.com/spreadsheets/d/([^/]+)`)

// Client wraps the Sheets API values service.
type Client struct {
	svc *gsheets.Service
}

// Config represents Sheets client configuration.
type Config struct {
	CredentialsFile string
}

// New creates a new Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Client, error) {
	if cfg.CredentialsFile != "" {
		opts = append(opts,
			option.WithCredentialsFile(cfg.CredentialsFile),
			option.WithScopes(gsheets.SpreadsheetsScope),
		)
	}

	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create sheets service")
	}
	return &Client{svc: svc}, nil
}

// Get returns the cells of a range as strings. Missing trailing cells are omitted.
func (c *Client) Get(ctx context.Context, spreadsheetID, rng string) ([][]string, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", rng)
	}

	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = fmt.Sprint(cell)
		}
		rows[i] = cells
	}
	return rows, nil
}

// Append appends rows after the table found in the range.
func (c *Client) Append(ctx context.Context, spreadsheetID, rng string, rows [][]any) error {
	_, err := c.svc.Spreadsheets.Values.Append(spreadsheetID, rng, &gsheets.ValueRange{Values: rows}).
		ValueInputOption(userEntered).
		Context(ctx).
		Do()
	if err != nil {
		return errors.Wrapf(err, "failed to append to %s", rng)
	}
	return nil
}

// Update overwrites the cells of a range.
func (c *Client) Update(ctx context.Context, spreadsheetID, rng string, rows [][]any) error {
	_, err := c.svc.Spreadsheets.Values.Update(spreadsheetID, rng, &gsheets.ValueRange{Values: rows}).
		ValueInputOption(userEntered).
		Context(ctx).
		Do()
	if err != nil {
		return errors.Wrapf(err, "failed to update %s", rng)
	}
	return nil
}

// ExtractSpreadsheetID accepts a spreadsheet id or URL and returns the id.
func ExtractSpreadsheetID(input string) string {
	if m := spreadsheetURLRe.FindStringSubmatch(input); m != nil {
		return m[1]
	}
	return input
}
