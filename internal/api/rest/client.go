package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// Client calls the status API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a status API client. The token is only needed to start sessions.
func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
	}
}

// Sessions returns every channel's session.
func (c *Client) Sessions(ctx context.Context) ([]SessionView, error) {
	var views []SessionView
	if err := c.do(ctx, http.MethodGet, "/api/v1/sessions", &views); err != nil {
		return nil, err
	}
	return views, nil
}

// Session returns a channel's session resolved offset from now.
func (c *Client) Session(ctx context.Context, channelID string, offset time.Duration) (*SessionView, error) {
	path := "/api/v1/sessions/" + url.PathEscape(channelID)
	if offset != 0 {
		path += fmt.Sprintf("?offset=%d", int(offset/time.Second))
	}
	var view SessionView
	if err := c.do(ctx, http.MethodGet, path, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// Start fires the ready signal for a channel.
func (c *Client) Start(ctx context.Context, channelID string) (*SessionView, error) {
	var view SessionView
	if err := c.do(ctx, http.MethodPost, "/api/v1/sessions/"+url.PathEscape(channelID)+"/start", &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *Client) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	if c.token != "" {
		req.Header.Set(AdminTokenHeader, c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s failed", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body errorBody
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error == "" {
			return errors.Newf("%s %s: status %d", method, path, resp.StatusCode)
		}
		return errors.Newf("%s %s: %s", method, path, body.Error)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}
	return nil
}
