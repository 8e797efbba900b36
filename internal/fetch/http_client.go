package fetch

import (
	"context"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// ClientOptions configure the fetch client.
type ClientOptions struct {
	Timeout   time.Duration
	UserAgent string
}

// Client is a small wrapper around retryablehttp providing a request
// timeout and a fixed User-Agent.
type Client struct {
	inner     *retryablehttp.Client
	userAgent string
}

// NewClient creates a new Client.
func NewClient(opts ClientOptions) *Client {
	r := retryablehttp.NewClient()
	r.RetryMax = 2
	r.HTTPClient.Timeout = opts.Timeout
	r.Logger = nil
	return &Client{inner: r, userAgent: opts.UserAgent}
}

// Get issues a GET request for url, honoring ctx for cancellation.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return c.inner.Do(req)
}
