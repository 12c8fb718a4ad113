// internal/common/httpclient/client.go
package httpclient

import (
	"context"
	"io"
	"net/http"
	"time"
)

// Client wraps net/http with context-scoped requests. It sets no overall
// http.Client timeout: streaming reads are bounded by the request context.
type Client struct {
	httpClient *http.Client
}

func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				MaxIdleConnsPerHost:   4,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 0,
			},
		},
	}
}

// NewClientWith wraps an existing *http.Client, e.g. httptest.Server.Client().
func NewClientWith(c *http.Client) *Client {
	return &Client{httpClient: c}
}

func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req.WithContext(ctx))
}

// NewRequest builds a request bound to ctx.
func (c *Client) NewRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	return http.NewRequestWithContext(ctx, method, url, body)
}
