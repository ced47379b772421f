// Package sync is the HTTP client for the save/load endpoints served by
// internal/api.
package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bastiangx/bardbook/internal/api"
	"github.com/bastiangx/bardbook/internal/logger"
	"github.com/bastiangx/bardbook/internal/storage"
	"github.com/charmbracelet/log"
)

// DefaultTimeout bounds a request when no http.Client is supplied.
const DefaultTimeout = 30 * time.Second

// maxResponseBytes caps how much of a reply is read.
const maxResponseBytes = 16 << 20

// ErrRemote wraps a failure reported by the server in its envelope.
var ErrRemote = errors.New("remote error")

// Client talks to a save/load endpoint.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

// NewClient returns a client for baseURL with a default timeout.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: DefaultTimeout},
	}
}

// Save uploads data and returns the server timestamp.
func (c *Client) Save(ctx context.Context, data map[string]any) (string, error) {
	body, err := json.Marshal(map[string]any{"data": data})
	if err != nil {
		return "", fmt.Errorf("failed to encode data: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "save", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	if !resp.Success {
		return "", remoteError(resp)
	}
	return deref(resp.Timestamp), nil
}

// Load downloads the saved data and its timestamp. It returns
// storage.ErrNotFound when the server has nothing saved.
func (c *Client) Load(ctx context.Context) (map[string]any, string, error) {
	resp, err := c.do(ctx, http.MethodGet, "load", nil)
	if err != nil {
		return nil, "", err
	}
	if !resp.Success {
		if resp.Message == api.MsgNotFound {
			return nil, "", storage.ErrNotFound
		}
		return nil, "", remoteError(resp)
	}
	return resp.Data, deref(resp.Timestamp), nil
}

func (c *Client) do(ctx context.Context, method, action string, body io.Reader) (*api.Response, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", c.BaseURL, err)
	}
	q := u.Query()
	q.Set("action", action)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	start := time.Now()
	res, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", action, err)
	}
	defer res.Body.Close()
	syncLog().Debugf("%s: %s in %v", action, res.Status, time.Since(start))

	var resp api.Response
	if err := json.NewDecoder(io.LimitReader(res.Body, maxResponseBytes)).Decode(&resp); err != nil {
		return nil, fmt.Errorf("%s: unexpected response (HTTP %d): %w", action, res.StatusCode, err)
	}
	if res.StatusCode != http.StatusOK && resp.Success {
		return nil, fmt.Errorf("%s: unexpected HTTP status %d", action, res.StatusCode)
	}
	return &resp, nil
}

func remoteError(resp *api.Response) error {
	msg := resp.Error
	if msg == "" {
		msg = resp.Message
	}
	return fmt.Errorf("%w: %s", ErrRemote, msg)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// syncLog follows the global level so -d applies to requests made after startup.
func syncLog() *log.Logger {
	return logger.NewWithConfig("sync", log.GetLevel(), false, true, log.TextFormatter)
}
