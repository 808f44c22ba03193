// internal/infra/ntfy/client.go
package ntfy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"econ_release_notifier/internal/apperr"
)

const (
	userAgent      = "econ-release-notifier/1.0"
	defaultTimeout = 20 * time.Second
)

// Client publishes plaintext notifications to a single ntfy topic. It
// implements notify.Notifier. One attempt per Send; a failed delivery is a
// transport error for the caller to escalate.
type Client struct {
	url        string
	title      string
	priority   string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// New creates a publisher for url, the full publish endpoint
// (server + "/" + topic).
func New(url, title, priority string, opts ...Option) *Client {
	c := &Client{
		url:      url,
		title:    title,
		priority: priority,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// Send publishes one message body.
func (c *Client) Send(ctx context.Context, body string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Title", c.title)
	req.Header.Set("Priority", c.priority)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperr.TransportWrap(err, fmt.Sprintf("ntfy delivery to %s failed", c.url))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.TransportWrap(err, "reading ntfy response")
	}
	if resp.StatusCode >= 400 {
		return apperr.Transportf("ntfy returned HTTP %d for %s: %s",
			resp.StatusCode, c.url, bodySnippet(respBody))
	}
	return nil
}

func bodySnippet(body []byte) string {
	const max = 500
	if len(body) > max {
		return string(body[:max])
	}
	return string(body)
}
