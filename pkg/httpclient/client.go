package httpclient

import (
	"context"
	"net/http"
	"time"
)

// UserAgent identifies webring to feed origins. A stable, descriptive agent
// string is part of polite fetching; some origins rate-limit anonymous Go
// clients harder.
const UserAgent = "webring/1.0 (+feed aggregator)"

// requestTimeout bounds the whole request: dial, send, headers and body.
const requestTimeout = 30 * time.Second

// Client wraps an http.Client configured for feed fetching.
type Client struct {
	client *http.Client
}

// New creates a feed-fetching client with the default timeout.
func New() *Client {
	return &Client{
		client: &http.Client{Timeout: requestTimeout},
	}
}

// Do executes req with the feed-reader User-Agent applied.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", UserAgent)
	return c.client.Do(req)
}

// Get is a convenience wrapper for plain GET requests.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}
