// internal/infra/calendar/client.go
package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"econ_release_notifier/internal/apperr"
	"econ_release_notifier/internal/domain/event"
)

// RapidAPI economic-calendar connection constants.
const (
	DefaultBaseURL = "https://economic-calendar-api.p.rapidapi.com"
	HostHeader     = "economic-calendar-api.p.rapidapi.com"

	defaultTimeout = 20 * time.Second
)

// Both weekly windows are fetched every run; the filter narrows by time
// afterwards.
var endpoints = []string{
	"/calendar/history/this-week",
	"/calendar/history/next-week",
}

// Client fetches raw records from the calendar API. It implements
// event.Source. Transport failures are not retried here: the external
// scheduler re-invoking the process is the retry mechanism.
type Client struct {
	baseURL    string
	apiKey     string
	host       string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// New creates a calendar API client.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		host:    HostHeader,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithBaseURL points the client at a different server.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
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

// Fetch retrieves both weekly endpoints and concatenates their records.
func (c *Client) Fetch(ctx context.Context) ([]event.RawRecord, error) {
	var out []event.RawRecord
	for _, ep := range endpoints {
		records, err := c.fetchOne(ctx, ep)
		if err != nil {
			return nil, err
		}
		out = append(out, records...)
	}
	return out, nil
}

func (c *Client) fetchOne(ctx context.Context, path string) ([]event.RawRecord, error) {
	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.host)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.TransportWrap(err, fmt.Sprintf("calendar API request to %s failed", url))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.TransportWrap(err, fmt.Sprintf("reading calendar API response from %s", url))
	}
	if resp.StatusCode >= 400 {
		return nil, apperr.Transportf("calendar API returned HTTP %d for %s: %s",
			resp.StatusCode, url, bodySnippet(body))
	}

	records, err := decodeRecords(body)
	if err != nil {
		return nil, apperr.TransportWrap(err,
			fmt.Sprintf("calendar API response from %s has an unexpected shape", url))
	}
	return records, nil
}

// decodeRecords accepts a bare array of records or an object wrapping one
// under a well-known key. Anything else means the API contract changed and
// the run must stop.
func decodeRecords(body []byte) ([]event.RawRecord, error) {
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("response is not JSON: %w", err)
	}
	switch v := payload.(type) {
	case []any:
		return onlyObjects(v), nil
	case map[string]any:
		for _, k := range []string{"data", "result", "items", "events"} {
			if list, ok := v[k].([]any); ok {
				return onlyObjects(list), nil
			}
		}
		return nil, fmt.Errorf("object payload carries no record list under data/result/items/events")
	}
	return nil, fmt.Errorf("payload is neither a list nor an object")
}

// onlyObjects keeps the object elements and drops everything else. The
// normalizer deals with object contents; non-objects carry nothing usable.
func onlyObjects(list []any) []event.RawRecord {
	records := make([]event.RawRecord, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			records = append(records, event.RawRecord(m))
		}
	}
	return records
}

func bodySnippet(body []byte) string {
	const max = 500
	if len(body) > max {
		return string(body[:max])
	}
	return string(body)
}
